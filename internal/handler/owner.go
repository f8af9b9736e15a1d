package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"icomag/internal/audit"
	"icomag/internal/middleware"
	"icomag/internal/models"
	"icomag/internal/patterns"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OwnerHandler serves apartment owners and their attribution patterns.
type OwnerHandler struct {
	DB       *gorm.DB
	Audit    *audit.Recorder
	Patterns *patterns.Service
}

func NewOwnerHandler(db *gorm.DB, recorder *audit.Recorder, patternSvc *patterns.Service) *OwnerHandler {
	return &OwnerHandler{DB: db, Audit: recorder, Patterns: patternSvc}
}

type ownerReq struct {
	Name        string `json:"name" binding:"required,max=128"`
	ApartmentID string `json:"apartment_id" binding:"required,max=32"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"max=32"`
	IsActive    *bool  `json:"is_active"`
}

func (h *OwnerHandler) Create(c *gin.Context) {
	var req ownerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid owner data")
		return
	}

	owner := models.Owner{
		Name:        strings.TrimSpace(req.Name),
		ApartmentID: strings.TrimSpace(req.ApartmentID),
		Email:       req.Email,
		Phone:       req.Phone,
		IsActive:    true,
	}
	if req.IsActive != nil {
		owner.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&owner).Error; err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "apartment identifier already in use")
		return
	}

	h.Audit.LogCreate(actorName(c), "owner", owner.ID, gin.H{"apartment_id": owner.ApartmentID})
	util.Success(c, util.Response{"owner": owner})
}

func (h *OwnerHandler) List(c *gin.Context) {
	q := h.DB.Model(&models.Owner{}).Preload("Patterns")
	if c.Query("active") == "1" {
		q = q.Where("is_active = ?", true)
	}

	var owners []models.Owner
	if err := q.Order("apartment_id ASC").Find(&owners).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "owner query failed")
		return
	}
	util.Success(c, util.Response{"owners": owners})
}

func (h *OwnerHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var owner models.Owner
	if err := h.DB.Preload("Patterns").First(&owner, id).Error; err != nil {
		notFoundOrServer(c, err, "owner not found")
		return
	}
	util.Success(c, util.Response{"owner": owner})
}

func (h *OwnerHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var owner models.Owner
	if err := h.DB.First(&owner, id).Error; err != nil {
		notFoundOrServer(c, err, "owner not found")
		return
	}

	var req ownerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid owner data")
		return
	}

	owner.Name = strings.TrimSpace(req.Name)
	owner.ApartmentID = strings.TrimSpace(req.ApartmentID)
	owner.Email = req.Email
	owner.Phone = req.Phone
	if req.IsActive != nil {
		owner.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&owner).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "owner update failed")
		return
	}

	h.Audit.LogUpdate(actorName(c), "owner", owner.ID, gin.H{"apartment_id": owner.ApartmentID})
	util.Success(c, util.Response{"owner": owner})
}

// Delete removes an owner and, by cascade, its patterns. Transactions keep a
// weak reference and are left in place with owner cleared.
func (h *OwnerHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var owner models.Owner
	if err := h.DB.First(&owner, id).Error; err != nil {
		notFoundOrServer(c, err, "owner not found")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).
			Where("owner_id = ?", owner.ID).
			Update("owner_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", owner.ID).Delete(&models.OwnerPattern{}).Error; err != nil {
			return err
		}
		return tx.Delete(&owner).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "owner delete failed")
		return
	}

	h.Audit.LogDelete(actorName(c), "owner", owner.ID, gin.H{"apartment_id": owner.ApartmentID})
	util.Success(c, util.Response{"message": "owner deleted"})
}

type createOwnerPatternReq struct {
	Pattern         string `json:"pattern" binding:"required,max=255"`
	Description     string `json:"description" binding:"max=255"`
	ApplyToExisting bool   `json:"apply_to_existing"`
	OnlyUnassigned  bool   `json:"only_unassigned"`
}

func (h *OwnerHandler) CreatePattern(c *gin.Context) {
	ownerID, ok := paramID(c)
	if !ok {
		return
	}

	var req createOwnerPatternReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid pattern data")
		return
	}

	pattern, applied, err := h.Patterns.CreateOwnerPattern(patterns.CreateOwnerPatternInput{
		OwnerID:         ownerID,
		Pattern:         req.Pattern,
		Description:     req.Description,
		ApplyToExisting: req.ApplyToExisting,
		OnlyUnassigned:  req.OnlyUnassigned,
	})
	if err != nil {
		var vErr *util.ValidationError
		if errors.As(err, &vErr) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, vErr.Message)
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "owner not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "pattern creation failed")
		return
	}

	h.Audit.LogCreate(actorName(c), "owner_pattern", pattern.ID, gin.H{
		"owner_id": ownerID, "pattern": pattern.Pattern, "applied": applied,
	})
	util.Success(c, util.Response{"pattern": pattern, "applied": applied})
}

func (h *OwnerHandler) TogglePattern(c *gin.Context) {
	id, ok := namedParamID(c, "patternId")
	if !ok {
		return
	}
	pattern, err := h.Patterns.ToggleOwnerPattern(id)
	if err != nil {
		notFoundOrServer(c, err, "pattern not found")
		return
	}
	h.Audit.LogUpdate(actorName(c), "owner_pattern", pattern.ID, gin.H{"is_active": pattern.IsActive})
	util.Success(c, util.Response{"pattern": pattern})
}

func (h *OwnerHandler) DeletePattern(c *gin.Context) {
	id, ok := namedParamID(c, "patternId")
	if !ok {
		return
	}
	if err := h.Patterns.DeleteOwnerPattern(id); err != nil {
		notFoundOrServer(c, err, "pattern not found")
		return
	}
	h.Audit.LogDelete(actorName(c), "owner_pattern", id, nil)
	util.Success(c, util.Response{"message": "pattern deleted"})
}

// ---------- shared helpers ----------

func paramID(c *gin.Context) (uint, bool) {
	return namedParamID(c, "id")
}

func namedParamID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func notFoundOrServer(c *gin.Context, err error, msg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, msg)
		return
	}
	util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
}

func actorName(c *gin.Context) string {
	if user := middleware.CurrentUser(c); user != nil {
		return user.Username
	}
	return ""
}
