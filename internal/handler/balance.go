package handler

import (
	"net/http"
	"time"

	"icomag/internal/audit"
	"icomag/internal/ledger"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BalanceHandler serves the estimated balance and its checkpoint.
type BalanceHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func NewBalanceHandler(db *gorm.DB, recorder *audit.Recorder) *BalanceHandler {
	return &BalanceHandler{DB: db, Audit: recorder}
}

func (h *BalanceHandler) Estimate(c *gin.Context) {
	estimate, err := ledger.EstimateBalance(h.DB)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "balance estimate failed")
		return
	}
	util.Success(c, util.Response{"balance": estimate})
}

type checkpointReq struct {
	Balance float64 `json:"balance" binding:"required"`
	Date    string  `json:"date" binding:"required"`
}

func (h *BalanceHandler) SetCheckpoint(c *gin.Context) {
	var req checkpointReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "balance and date are required")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "date must be YYYY-MM-DD")
		return
	}

	if err := ledger.SetCheckpoint(h.DB, req.Balance, date); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "checkpoint update failed")
		return
	}

	h.Audit.LogUpdate(actorName(c), "balance_checkpoint", 0, gin.H{
		"balance": req.Balance, "date": req.Date,
	})
	util.Success(c, util.Response{"message": "checkpoint updated"})
}
