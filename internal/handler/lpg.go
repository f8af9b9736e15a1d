package handler

import (
	"errors"
	"net/http"
	"time"

	"icomag/internal/audit"
	"icomag/internal/lpg"
	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LpgHandler serves tank refills, consumption splits and pending payments.
type LpgHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
	Svc   *lpg.Service
}

func NewLpgHandler(db *gorm.DB, recorder *audit.Recorder, svc *lpg.Service) *LpgHandler {
	return &LpgHandler{DB: db, Audit: recorder, Svc: svc}
}

type createRefillReq struct {
	BillAmount        float64            `json:"bill_amount" binding:"required,gt=0"`
	Gallons           float64            `json:"gallons" binding:"required,gt=0"`
	RefillDate        string             `json:"refill_date" binding:"required"`
	EfficiencyPercent float64            `json:"efficiency_percent" binding:"gte=0"`
	TagID             *uint              `json:"tag_id"`
	Readings          []lpg.ReadingInput `json:"readings" binding:"required,min=1,dive"`
}

func (h *LpgHandler) Create(c *gin.Context) {
	var req createRefillReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid refill data")
		return
	}

	date, err := time.Parse("2006-01-02", req.RefillDate)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "refill_date must be YYYY-MM-DD")
		return
	}

	refill, err := h.Svc.CreateRefill(lpg.CreateRefillInput{
		BillAmount:        req.BillAmount,
		Gallons:           req.Gallons,
		RefillDate:        date,
		EfficiencyPercent: req.EfficiencyPercent,
		TagID:             req.TagID,
		Readings:          req.Readings,
	})
	if err != nil {
		var vErr *util.ValidationError
		if errors.As(err, &vErr) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, vErr.Message)
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "refill create failed")
		return
	}

	h.Audit.LogCreate(actorName(c), "lpg_refill", refill.ID, gin.H{
		"bill_amount": refill.BillAmount, "entries": len(req.Readings),
	})
	util.Success(c, util.Response{"refill": refill})
}

func (h *LpgHandler) List(c *gin.Context) {
	var refills []models.LpgRefill
	if err := h.DB.Order("refill_date DESC").Find(&refills).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "refill query failed")
		return
	}
	util.Success(c, util.Response{"refills": refills})
}

func (h *LpgHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var refill models.LpgRefill
	if err := h.DB.Preload("Entries").Preload("Entries.Owner").Preload("Tag").
		First(&refill, id).Error; err != nil {
		notFoundOrServer(c, err, "refill not found")
		return
	}
	util.Success(c, util.Response{"refill": refill})
}

// Delete removes a refill and its entries. Payment transactions keep their
// tag; only the billing side disappears.
func (h *LpgHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var refill models.LpgRefill
	if err := h.DB.First(&refill, id).Error; err != nil {
		notFoundOrServer(c, err, "refill not found")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lpg_refill_id = ?", refill.ID).
			Delete(&models.LpgRefillEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&refill).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "refill delete failed")
		return
	}

	h.Audit.LogDelete(actorName(c), "lpg_refill", refill.ID, nil)
	util.Success(c, util.Response{"message": "refill deleted"})
}

// Pending returns per-owner paid/owed/remaining for one refill.
func (h *LpgHandler) Pending(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	balances, err := h.Svc.PendingForRefill(id)
	if err != nil {
		notFoundOrServer(c, err, "refill not found")
		return
	}
	util.Success(c, util.Response{"balances": balances})
}

// PendingAll returns the portfolio-wide pending payments view.
func (h *LpgHandler) PendingAll(c *gin.Context) {
	balances, err := h.Svc.PendingAll()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "pending payments query failed")
		return
	}
	util.Success(c, util.Response{"balances": balances})
}
