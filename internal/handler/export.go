package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler streams the ledger as CSV or XLSX for offline review.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

var exportHeader = []string{"Date", "Type", "Amount", "Description", "Bank Description", "Apartment", "Duplicate"}

func (h *ExportHandler) loadRows(c *gin.Context) ([]models.Transaction, bool) {
	q := h.DB.Preload("Owner").Order("date DESC, id DESC")
	if c.Query("exclude_duplicates") == "1" {
		q = q.Where("is_duplicate = ?", false)
	}

	var txns []models.Transaction
	if err := q.Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "transaction query failed")
		return nil, false
	}
	return txns, true
}

func exportRow(txn *models.Transaction) []string {
	apartment := ""
	if txn.Owner != nil {
		apartment = txn.Owner.ApartmentID
	}
	duplicate := "no"
	if txn.IsDuplicate {
		duplicate = "yes"
	}
	return []string{
		txn.Date.Format("2006-01-02"),
		string(txn.Type),
		strconv.FormatFloat(txn.Amount, 'f', 2, 64),
		txn.Description,
		txn.BankDescription,
		apartment,
		duplicate,
	}
}

// ExportCSV writes the ledger as a CSV download.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	txns, ok := h.loadRows(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeader)
	for i := range txns {
		writer.Write(exportRow(&txns[i]))
	}
}

// ExportXLSX writes the ledger as an Excel workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	txns, ok := h.loadRows(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	for row := range txns {
		for col, value := range exportRow(&txns[row]) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
