package handler

import (
	"net/http"
	"strconv"

	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler lists the audit trail.
type LogHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewLogHandler(db *gorm.DB, pageSize int) *LogHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &LogHandler{DB: db, PageSize: pageSize}
}

func (h *LogHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 100 {
		size = h.PageSize
	}

	q := h.DB.Model(&models.AuditLog{})
	if event := c.Query("event"); event != "" {
		q = q.Where("event_type = ?", event)
	}
	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity_type = ?", entity)
	}
	if actor := c.Query("actor"); actor != "" {
		q = q.Where("actor = ?", actor)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "log query failed")
		return
	}

	var entries []models.AuditLog
	if err := q.Session(&gorm.Session{}).
		Order("id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "log query failed")
		return
	}

	util.Success(c, util.Response{
		"entries": entries,
		"total":   total,
		"page":    page,
		"size":    size,
	})
}
