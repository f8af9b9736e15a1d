package handler

import (
	"errors"
	"net/http"
	"strings"

	"icomag/internal/audit"
	"icomag/internal/ledger"
	"icomag/internal/models"
	"icomag/internal/patterns"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TagHandler serves tags, their hierarchy and tag patterns.
type TagHandler struct {
	DB       *gorm.DB
	Audit    *audit.Recorder
	Patterns *patterns.Service
}

func NewTagHandler(db *gorm.DB, recorder *audit.Recorder, patternSvc *patterns.Service) *TagHandler {
	return &TagHandler{DB: db, Audit: recorder, Patterns: patternSvc}
}

type tagReq struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description" binding:"max=255"`
	ParentID    *uint  `json:"parent_id"`
}

func (h *TagHandler) Create(c *gin.Context) {
	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid tag data")
		return
	}

	tag := models.Tag{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := h.DB.Create(&tag).Error; err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "tag name already in use")
		return
	}

	if req.ParentID != nil {
		if err := ledger.SetTagParent(h.DB, tag.ID, req.ParentID); err != nil {
			h.mapParentError(c, err)
			return
		}
		tag.ParentID = req.ParentID
	}

	h.Audit.LogCreate(actorName(c), "tag", tag.ID, gin.H{"name": tag.Name})
	util.Success(c, util.Response{"tag": tag})
}

func (h *TagHandler) List(c *gin.Context) {
	var tags []models.Tag
	if err := h.DB.Preload("Patterns").Order("name ASC").Find(&tags).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "tag query failed")
		return
	}
	util.Success(c, util.Response{"tags": tags})
}

func (h *TagHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var tag models.Tag
	if err := h.DB.First(&tag, id).Error; err != nil {
		notFoundOrServer(c, err, "tag not found")
		return
	}

	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid tag data")
		return
	}

	tag.Name = strings.TrimSpace(req.Name)
	tag.Description = req.Description
	if err := h.DB.Save(&tag).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "tag update failed")
		return
	}

	// parent changes go through the cycle check
	if err := ledger.SetTagParent(h.DB, tag.ID, req.ParentID); err != nil {
		h.mapParentError(c, err)
		return
	}
	tag.ParentID = req.ParentID

	h.Audit.LogUpdate(actorName(c), "tag", tag.ID, gin.H{"name": tag.Name})
	util.Success(c, util.Response{"tag": tag})
}

// Delete removes a tag, its patterns (cascade) and its transaction links.
// Child tags keep existing with their parent cleared.
func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var tag models.Tag
	if err := h.DB.First(&tag, id).Error; err != nil {
		notFoundOrServer(c, err, "tag not found")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Tag{}).
			Where("parent_id = ?", tag.ID).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.TransactionTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.TagPattern{}).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "tag delete failed")
		return
	}

	h.Audit.LogDelete(actorName(c), "tag", tag.ID, gin.H{"name": tag.Name})
	util.Success(c, util.Response{"message": "tag deleted"})
}

// Transactions lists transactions carrying the tag or any direct child.
func (h *TagHandler) Transactions(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	txns, err := ledger.TransactionsByTag(h.DB, id)
	if err != nil {
		notFoundOrServer(c, err, "tag not found")
		return
	}
	util.Success(c, util.Response{"transactions": txns})
}

type createTagPatternReq struct {
	Pattern         string `json:"pattern" binding:"required,max=255"`
	Description     string `json:"description" binding:"max=255"`
	ApplyToExisting bool   `json:"apply_to_existing"`
}

func (h *TagHandler) CreatePattern(c *gin.Context) {
	tagID, ok := paramID(c)
	if !ok {
		return
	}

	var req createTagPatternReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid pattern data")
		return
	}

	pattern, applied, err := h.Patterns.CreateTagPattern(patterns.CreateTagPatternInput{
		TagID:           tagID,
		Pattern:         req.Pattern,
		Description:     req.Description,
		ApplyToExisting: req.ApplyToExisting,
	})
	if err != nil {
		var vErr *util.ValidationError
		if errors.As(err, &vErr) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, vErr.Message)
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "tag not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "pattern creation failed")
		return
	}

	h.Audit.LogCreate(actorName(c), "tag_pattern", pattern.ID, gin.H{
		"tag_id": tagID, "pattern": pattern.Pattern, "applied": applied,
	})
	util.Success(c, util.Response{"pattern": pattern, "applied": applied})
}

func (h *TagHandler) TogglePattern(c *gin.Context) {
	id, ok := namedParamID(c, "patternId")
	if !ok {
		return
	}
	pattern, err := h.Patterns.ToggleTagPattern(id)
	if err != nil {
		notFoundOrServer(c, err, "pattern not found")
		return
	}
	h.Audit.LogUpdate(actorName(c), "tag_pattern", pattern.ID, gin.H{"is_active": pattern.IsActive})
	util.Success(c, util.Response{"pattern": pattern})
}

func (h *TagHandler) DeletePattern(c *gin.Context) {
	id, ok := namedParamID(c, "patternId")
	if !ok {
		return
	}
	if err := h.Patterns.DeleteTagPattern(id); err != nil {
		notFoundOrServer(c, err, "pattern not found")
		return
	}
	h.Audit.LogDelete(actorName(c), "tag_pattern", id, nil)
	util.Success(c, util.Response{"message": "pattern deleted"})
}

func (h *TagHandler) mapParentError(c *gin.Context, err error) {
	var vErr *util.ValidationError
	if errors.As(err, &vErr) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, vErr.Message)
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "parent tag not found")
		return
	}
	util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "tag update failed")
}
