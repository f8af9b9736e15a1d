package handler

import (
	"net/http"
	"strconv"
	"time"

	"icomag/internal/audit"
	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler serves the transaction ledger: filtered listing, manual
// entry and staff edits.
type TransactionHandler struct {
	DB       *gorm.DB
	Audit    *audit.Recorder
	PageSize int
}

func NewTransactionHandler(db *gorm.DB, recorder *audit.Recorder, pageSize int) *TransactionHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &TransactionHandler{DB: db, Audit: recorder, PageSize: pageSize}
}

// List supports date range, type, owner, batch and duplicate filters with
// pagination. Tag filtering lives on the tag handler because it expands the
// hierarchy.
func (h *TransactionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 100 {
		size = h.PageSize
	}

	q := h.DB.Model(&models.Transaction{}).Preload("Tags").Preload("Tags.Tag")

	if startStr := c.Query("start"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start must be YYYY-MM-DD")
			return
		}
		q = q.Where("date >= ?", start)
	}
	if endStr := c.Query("end"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end must be YYYY-MM-DD")
			return
		}
		q = q.Where("date < ?", end.Add(24*time.Hour))
	}
	if t := models.MoneyDirection(c.Query("type")); t.Valid() {
		q = q.Where("type = ?", t)
	}
	if ownerStr := c.Query("owner_id"); ownerStr != "" {
		ownerID, err := strconv.Atoi(ownerStr)
		if err != nil || ownerID <= 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid owner_id")
			return
		}
		q = q.Where("owner_id = ?", ownerID)
	}
	if batchStr := c.Query("batch_id"); batchStr != "" {
		batchID, err := strconv.Atoi(batchStr)
		if err != nil || batchID <= 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid batch_id")
			return
		}
		q = q.Where("batch_id = ?", batchID)
	}
	if c.Query("exclude_duplicates") == "1" {
		q = q.Where("is_duplicate = ?", false)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "transaction query failed")
		return
	}

	var txns []models.Transaction
	if err := q.Session(&gorm.Session{}).
		Order("date DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "transaction query failed")
		return
	}

	util.Success(c, util.Response{
		"transactions": txns,
		"total":        total,
		"page":         page,
		"size":         size,
	})
}

func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var txn models.Transaction
	if err := h.DB.Preload("Tags").Preload("Tags.Tag").Preload("Owner").
		First(&txn, id).Error; err != nil {
		notFoundOrServer(c, err, "transaction not found")
		return
	}
	util.Success(c, util.Response{"transaction": txn})
}

type createTransactionReq struct {
	Type        string  `json:"type" binding:"required,oneof=credit debit"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Date        string  `json:"date" binding:"required"`
	Description string  `json:"description" binding:"required,max=512"`
	OwnerID     *uint   `json:"owner_id"`
	TagIDs      []uint  `json:"tag_ids"`
}

// Create records a manual ledger entry, outside any import batch.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid transaction data")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "date must be YYYY-MM-DD")
		return
	}

	txn := models.Transaction{
		Type:            models.MoneyDirection(req.Type),
		Amount:          req.Amount,
		Date:            date,
		Description:     req.Description,
		BankDescription: req.Description,
		OwnerID:         req.OwnerID,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		for _, tagID := range req.TagIDs {
			link := models.TransactionTag{TransactionID: txn.ID, TagID: tagID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "transaction create failed")
		return
	}

	h.Audit.LogCreate(actorName(c), "transaction", txn.ID, gin.H{
		"type": txn.Type, "amount": txn.Amount,
	})
	util.Success(c, util.Response{"transaction": txn})
}

type updateTransactionReq struct {
	Description string  `json:"description" binding:"required,max=512"`
	OwnerID     *uint   `json:"owner_id"`
	TagIDs      *[]uint `json:"tag_ids"`
}

// Update lets staff edit the free-text description, the owner attribution
// and the tag set. Type, amount, date and the bank description are immutable
// once stored.
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var txn models.Transaction
	if err := h.DB.First(&txn, id).Error; err != nil {
		notFoundOrServer(c, err, "transaction not found")
		return
	}

	var req updateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid transaction data")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		txn.Description = req.Description
		txn.OwnerID = req.OwnerID
		if err := tx.Save(&txn).Error; err != nil {
			return err
		}
		if req.TagIDs != nil {
			if err := tx.Where("transaction_id = ?", txn.ID).
				Delete(&models.TransactionTag{}).Error; err != nil {
				return err
			}
			for _, tagID := range *req.TagIDs {
				link := models.TransactionTag{TransactionID: txn.ID, TagID: tagID}
				if err := tx.Create(&link).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "transaction update failed")
		return
	}

	h.Audit.LogUpdate(actorName(c), "transaction", txn.ID, gin.H{
		"description": txn.Description, "owner_id": txn.OwnerID,
	})
	util.Success(c, util.Response{"transaction": txn})
}
