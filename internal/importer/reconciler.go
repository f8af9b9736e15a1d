// Package importer turns parsed bank statements into stored transactions,
// detecting duplicates from earlier imports and auto-attributing owners and
// tags through the pattern library.
package importer

import (
	"errors"
	"fmt"
	"io"
	"time"

	"icomag/internal/bankcsv"
	"icomag/internal/models"
	"icomag/internal/patterns"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Options controls one import run.
type Options struct {
	UsePatternMatching bool
}

// Result summarizes one import run.
type Result struct {
	BatchID       uint
	AccountNumber string
	Total         int
	New           int
	Duplicates    int
}

// Reconciler orchestrates statement imports.
type Reconciler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewReconciler(db *gorm.DB, log zerolog.Logger) *Reconciler {
	return &Reconciler{DB: db, Log: log}
}

// plannedRow is a candidate resolved against the existing ledger, ready to
// be inserted.
type plannedRow struct {
	txn    models.Transaction
	tagIDs []uint
}

// ImportBatch parses the statement and stores the batch header together with
// every transaction row in a single database transaction, so an interrupted
// import can never leave a header with stale statistics or a partial row set.
// A parser error aborts with no side effects.
//
// Duplicate detection uses the composite key (date, amount, type, serial).
// A duplicate is still stored, flagged, with the description, owner and tags
// of the matched transaction copied forward so staff edits survive
// re-imports of overlapping statement periods.
func (r *Reconciler) ImportBatch(file io.Reader, originalName, storedName string, opts Options) (*Result, error) {
	st, err := bankcsv.Parse(file)
	if err != nil {
		return nil, err
	}

	ownerPats, tagPats, err := r.loadPatterns(opts)
	if err != nil {
		return nil, err
	}

	rows := make([]plannedRow, 0, len(st.Candidates))
	result := &Result{AccountNumber: st.AccountNumber, Total: len(st.Candidates)}

	for _, cand := range st.Candidates {
		row, dup, err := r.planRow(cand, ownerPats, tagPats)
		if err != nil {
			return nil, err
		}
		if dup {
			result.Duplicates++
		} else {
			result.New++
		}
		rows = append(rows, row)
	}

	batch := models.TransactionBatch{
		StoredFilename:   storedName,
		OriginalFilename: originalName,
		AccountNumber:    st.AccountNumber,
		ProcessedAt:      nowFunc(),
		TotalCount:       result.Total,
		NewCount:         result.New,
		DuplicateCount:   result.Duplicates,
	}

	err = r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		for i := range rows {
			rows[i].txn.BatchID = &batch.ID
			if err := tx.Create(&rows[i].txn).Error; err != nil {
				return fmt.Errorf("create transaction: %w", err)
			}
			for _, tagID := range rows[i].tagIDs {
				link := models.TransactionTag{
					TransactionID: rows[i].txn.ID,
					TagID:         tagID,
				}
				if err := tx.Create(&link).Error; err != nil {
					return fmt.Errorf("tag transaction: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.BatchID = batch.ID
	r.Log.Info().Uint("batch_id", batch.ID).Str("file", originalName).
		Int("total", result.Total).Int("new", result.New).
		Int("duplicates", result.Duplicates).Msg("statement imported")
	return result, nil
}

// planRow resolves one candidate against the stored ledger.
func (r *Reconciler) planRow(cand bankcsv.Candidate, ownerPats, tagPats []patterns.CompiledPattern) (plannedRow, bool, error) {
	existing, err := r.findDuplicate(cand)
	if err != nil {
		return plannedRow{}, false, err
	}

	txn := models.Transaction{
		Type:            cand.Type,
		Amount:          cand.Amount,
		Date:            cand.Date,
		BankDescription: cand.Description,
		Reference:       cand.Reference,
		Serial:          cand.Serial,
	}

	if existing != nil {
		txn.IsDuplicate = true
		txn.Description = existing.Description
		txn.OwnerID = existing.OwnerID
		tagIDs := make([]uint, 0, len(existing.Tags))
		for _, link := range existing.Tags {
			tagIDs = append(tagIDs, link.TagID)
		}
		return plannedRow{txn: txn, tagIDs: tagIDs}, true, nil
	}

	txn.Description = cand.Description
	if p, ok := patterns.FirstMatch(ownerPats, cand.Description); ok {
		ownerID := p.TargetID
		txn.OwnerID = &ownerID
	}
	var tagIDs []uint
	for _, p := range patterns.Match(tagPats, cand.Description) {
		tagIDs = append(tagIDs, p.TargetID)
	}
	return plannedRow{txn: txn, tagIDs: tagIDs}, false, nil
}

// findDuplicate looks up a stored transaction with the same composite key.
// The original (non-duplicate) row wins when several match, so copied-forward
// edits come from the row staff actually edited.
func (r *Reconciler) findDuplicate(cand bankcsv.Candidate) (*models.Transaction, error) {
	q := r.DB.Preload("Tags").
		Where("date = ? AND amount = ? AND type = ?", cand.Date, cand.Amount, cand.Type)
	if cand.Serial != nil {
		q = q.Where("serial = ?", *cand.Serial)
	} else {
		q = q.Where("serial IS NULL")
	}

	var existing models.Transaction
	err := q.Order("is_duplicate ASC, id ASC").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup: %w", err)
	}
	return &existing, nil
}

func (r *Reconciler) loadPatterns(opts Options) ([]patterns.CompiledPattern, []patterns.CompiledPattern, error) {
	if !opts.UsePatternMatching {
		return nil, nil, nil
	}

	// loaded once per batch for efficiency and deterministic attribution
	var ownerRows []models.OwnerPattern
	if err := r.DB.Order("id ASC").Find(&ownerRows).Error; err != nil {
		return nil, nil, fmt.Errorf("load owner patterns: %w", err)
	}
	var tagRows []models.TagPattern
	if err := r.DB.Order("id ASC").Find(&tagRows).Error; err != nil {
		return nil, nil, fmt.Errorf("load tag patterns: %w", err)
	}

	return patterns.CompileOwnerPatterns(ownerRows, r.Log),
		patterns.CompileTagPatterns(tagRows, r.Log), nil
}

// DeleteBatch removes a batch and every transaction it produced,
// all-or-nothing.
func (r *Reconciler) DeleteBatch(id uint) error {
	var batch models.TransactionBatch
	if err := r.DB.First(&batch, id).Error; err != nil {
		return err
	}

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"transaction_id IN (?)",
			tx.Model(&models.Transaction{}).Select("id").Where("batch_id = ?", id),
		).Delete(&models.TransactionTag{}).Error; err != nil {
			return fmt.Errorf("delete batch tag links: %w", err)
		}
		if err := tx.Where("batch_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("delete batch transactions: %w", err)
		}
		if err := tx.Delete(&batch).Error; err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}
		return nil
	})
}
