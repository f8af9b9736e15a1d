package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"icomag/internal/audit"
	"icomag/internal/bankcsv"
	"icomag/internal/importer"
	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchHandler serves statement imports and batch management.
type BatchHandler struct {
	DB         *gorm.DB
	Audit      *audit.Recorder
	Reconciler *importer.Reconciler
}

func NewBatchHandler(db *gorm.DB, recorder *audit.Recorder, rec *importer.Reconciler) *BatchHandler {
	return &BatchHandler{DB: db, Audit: recorder, Reconciler: rec}
}

// Import ingests an uploaded statement file. Form fields: "statement" (the
// file) and optional "use_patterns" ("1" enables auto-attribution).
func (h *BatchHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("statement")
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "statement file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "statement file unreadable")
		return
	}
	defer f.Close()

	storedName := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	opts := importer.Options{UsePatternMatching: c.PostForm("use_patterns") == "1"}

	result, err := h.Reconciler.ImportBatch(f, fileHeader.Filename, storedName, opts)
	if err != nil {
		switch {
		case errors.Is(err, bankcsv.ErrUnrecognizedFormat):
			util.Error(c, http.StatusBadRequest, util.CodeParse, "file is not a recognized statement export")
		case errors.Is(err, bankcsv.ErrNoTransactions):
			util.Error(c, http.StatusBadRequest, util.CodeParse, "statement contains no transactions")
		default:
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "import failed")
		}
		return
	}

	h.Audit.LogCreate(actorName(c), "transaction_batch", result.BatchID, gin.H{
		"file": fileHeader.Filename, "new": result.New, "duplicates": result.Duplicates,
	})
	util.Success(c, util.Response{
		"batch_id":   result.BatchID,
		"account":    result.AccountNumber,
		"total":      result.Total,
		"new":        result.New,
		"duplicates": result.Duplicates,
	})
}

type batchResp struct {
	models.TransactionBatch
	// Interrupted flags a batch whose counters do not reconcile, the
	// signature of an import that did not finish.
	Interrupted bool `json:"interrupted"`
}

func (h *BatchHandler) List(c *gin.Context) {
	var batches []models.TransactionBatch
	if err := h.DB.Order("processed_at DESC").Find(&batches).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "batch query failed")
		return
	}

	out := make([]batchResp, 0, len(batches))
	for _, b := range batches {
		out = append(out, batchResp{
			TransactionBatch: b,
			Interrupted:      b.NewCount+b.DuplicateCount != b.TotalCount,
		})
	}
	util.Success(c, util.Response{"batches": out})
}

// Delete removes a batch with all its transactions, all-or-nothing.
func (h *BatchHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.Reconciler.DeleteBatch(id); err != nil {
		notFoundOrServer(c, err, "batch not found")
		return
	}
	h.Audit.LogDelete(actorName(c), "transaction_batch", id, nil)
	util.Success(c, util.Response{"message": "batch deleted"})
}
