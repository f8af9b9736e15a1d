// Package ledger provides read-side views over the transaction ledger: the
// estimated balance and tag-based filtering.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"icomag/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Balance checkpoint keys in the settings store.
const (
	balanceKey     = "current_balance"
	balanceDateKey = "balance_date"

	checkpointDateLayout = "2006-01-02"
)

// BalanceEstimate is the operator checkpoint plus the signed sum of
// transactions since it.
type BalanceEstimate struct {
	Exists            bool      `json:"exists"`
	CheckpointBalance float64   `json:"checkpoint_balance"`
	CheckpointDate    time.Time `json:"checkpoint_date"`
	EstimatedBalance  float64   `json:"estimated_balance"`
	TransactionsSince int64     `json:"transactions_since"`
}

// EstimateBalance reads the checkpoint and adds money-in amounts and
// subtracts money-out amounts for non-duplicate transactions dated at or
// after it. Without a checkpoint it returns Exists=false and zero values.
func EstimateBalance(db *gorm.DB) (*BalanceEstimate, error) {
	balanceStr, ok, err := getSetting(db, balanceKey)
	if err != nil {
		return nil, err
	}
	dateStr, okDate, err := getSetting(db, balanceDateKey)
	if err != nil {
		return nil, err
	}
	if !ok || !okDate {
		return &BalanceEstimate{}, nil
	}

	balance, err := strconv.ParseFloat(balanceStr, 64)
	if err != nil {
		return nil, fmt.Errorf("stored balance %q is not numeric: %w", balanceStr, err)
	}
	date, err := time.Parse(checkpointDateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("stored balance date %q: %w", dateStr, err)
	}

	var txns []models.Transaction
	if err := db.Where("date >= ? AND is_duplicate = ?", date, false).
		Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("load transactions since checkpoint: %w", err)
	}

	sum := decimal.NewFromFloat(balance)
	for _, txn := range txns {
		amount := decimal.NewFromFloat(txn.Amount)
		switch txn.Type {
		case models.MoneyIn:
			sum = sum.Add(amount)
		case models.MoneyOut:
			sum = sum.Sub(amount)
		}
	}

	return &BalanceEstimate{
		Exists:            true,
		CheckpointBalance: balance,
		CheckpointDate:    date,
		EstimatedBalance:  sum.InexactFloat64(),
		TransactionsSince: int64(len(txns)),
	}, nil
}

// SetCheckpoint overwrites the balance checkpoint. No history is kept.
func SetCheckpoint(db *gorm.DB, balance float64, date time.Time) error {
	if err := putSetting(db, balanceKey, strconv.FormatFloat(balance, 'f', -1, 64)); err != nil {
		return err
	}
	return putSetting(db, balanceDateKey, date.Format(checkpointDateLayout))
}

func getSetting(db *gorm.DB, key string) (string, bool, error) {
	var setting models.Setting
	err := db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %q: %w", key, err)
	}
	return setting.Value, true, nil
}

func putSetting(db *gorm.DB, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	if err := db.Save(&setting).Error; err != nil {
		return fmt.Errorf("write setting %q: %w", key, err)
	}
	return nil
}
