package handler

import (
	"net/http"
	"strconv"

	"icomag/internal/audit"
	"icomag/internal/blob"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
)

// AttachmentHandler serves supporting-document uploads and downloads.
type AttachmentHandler struct {
	Store *blob.Store
	Audit *audit.Recorder
}

func NewAttachmentHandler(store *blob.Store, recorder *audit.Recorder) *AttachmentHandler {
	return &AttachmentHandler{Store: store, Audit: recorder}
}

var attachmentKinds = map[string]bool{
	"transaction": true,
	"lpg_refill":  true,
	"owner":       true,
}

// Upload stores a document against an entity. Form fields: "file",
// "entity_kind", "entity_id".
func (h *AttachmentHandler) Upload(c *gin.Context) {
	kind := c.PostForm("entity_kind")
	if !attachmentKinds[kind] {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown entity kind")
		return
	}
	entityID, err := strconv.Atoi(c.PostForm("entity_id"))
	if err != nil || entityID <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid entity id")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "file is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "file unreadable")
		return
	}
	defer f.Close()

	attachment, err := h.Store.Upload(
		c.Request.Context(), kind, uint(entityID),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), f,
	)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "upload failed")
		return
	}

	h.Audit.LogCreate(actorName(c), "attachment", attachment.ID, gin.H{
		"entity_kind": kind, "entity_id": entityID, "filename": attachment.Filename,
	})
	util.Success(c, util.Response{"attachment": attachment})
}

// URL returns a time-limited download link.
func (h *AttachmentHandler) URL(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	url, err := h.Store.SignedURL(id)
	if err != nil {
		notFoundOrServer(c, err, "attachment not found")
		return
	}
	util.Success(c, util.Response{"url": url})
}

func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.Store.Delete(c.Request.Context(), id); err != nil {
		notFoundOrServer(c, err, "attachment not found")
		return
	}
	h.Audit.LogDelete(actorName(c), "attachment", id, nil)
	util.Success(c, util.Response{"message": "attachment deleted"})
}
