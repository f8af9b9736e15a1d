package lpg

import (
	"fmt"
	"time"

	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service persists refills and reconciles payments against them.
type Service struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{DB: db, Log: log}
}

// ReadingInput is one apartment's meter pair as submitted by staff.
type ReadingInput struct {
	OwnerID         uint    `json:"owner_id"`
	PreviousReading float64 `json:"previous_reading"`
	CurrentReading  float64 `json:"current_reading"`
}

// CreateRefillInput is the refill creation form.
type CreateRefillInput struct {
	BillAmount        float64
	Gallons           float64
	RefillDate        time.Time
	EfficiencyPercent float64
	TagID             *uint
	Readings          []ReadingInput
}

// CreateRefill allocates the bill across the readings and stores the refill
// with all its entries in one transaction, so a partial failure cannot leave
// a refill missing entries.
func (s *Service) CreateRefill(in CreateRefillInput) (*models.LpgRefill, error) {
	if in.BillAmount <= 0 {
		return nil, util.Validationf("bill amount must be positive")
	}
	if in.EfficiencyPercent < 0 {
		return nil, util.Validationf("efficiency percentage cannot be negative")
	}
	for _, rd := range in.Readings {
		if rd.CurrentReading < rd.PreviousReading {
			return nil, util.Validationf(
				fmt.Sprintf("owner %d: current reading below previous reading", rd.OwnerID))
		}
	}

	readings := make([]Reading, len(in.Readings))
	for i, rd := range in.Readings {
		readings[i] = Reading{
			OwnerID:         rd.OwnerID,
			PreviousReading: decimal.NewFromFloat(rd.PreviousReading),
			CurrentReading:  decimal.NewFromFloat(rd.CurrentReading),
		}
	}

	allocations, err := Allocate(
		decimal.NewFromFloat(in.BillAmount),
		decimal.NewFromFloat(in.EfficiencyPercent),
		readings,
	)
	if err != nil {
		if err == ErrNoConsumption {
			return nil, util.Validationf("refill has no net consumption to split")
		}
		return nil, err
	}

	refill := models.LpgRefill{
		BillAmount:        in.BillAmount,
		Gallons:           in.Gallons,
		RefillDate:        in.RefillDate,
		EfficiencyPercent: in.EfficiencyPercent,
		TagID:             in.TagID,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&refill).Error; err != nil {
			return fmt.Errorf("create refill: %w", err)
		}
		for i, alloc := range allocations {
			entry := models.LpgRefillEntry{
				LpgRefillID:     refill.ID,
				OwnerID:         alloc.OwnerID,
				PreviousReading: in.Readings[i].PreviousReading,
				CurrentReading:  in.Readings[i].CurrentReading,
				Consumption:     alloc.Consumption.InexactFloat64(),
				Percentage:      alloc.Percentage.InexactFloat64(),
				Subtotal:        alloc.Subtotal.InexactFloat64(),
				TotalAmount:     alloc.TotalAmount.InexactFloat64(),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("create refill entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info().Uint("refill_id", refill.ID).Float64("bill", in.BillAmount).
		Int("entries", len(allocations)).Msg("lpg refill created")
	return &refill, nil
}

// Payment statuses.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
)

// OwnerBalance is one owner's position against a refill (or against all
// refills in the aggregate view).
type OwnerBalance struct {
	OwnerID          uint    `json:"owner_id"`
	AmountOwed       float64 `json:"amount_owed"`
	AmountPaid       float64 `json:"amount_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
	Status           string  `json:"status"`
}

// PendingForRefill computes per-owner paid/owed/remaining for one refill.
// Payments are the money-in transactions carrying the refill's tag and
// attributed to the owner; duplicate-flagged rows are ignored so re-imports
// cannot double-count a payment.
func (s *Service) PendingForRefill(refillID uint) ([]OwnerBalance, error) {
	var refill models.LpgRefill
	if err := s.DB.Preload("Entries").First(&refill, refillID).Error; err != nil {
		return nil, err
	}
	return s.reconcileRefill(&refill)
}

func (s *Service) reconcileRefill(refill *models.LpgRefill) ([]OwnerBalance, error) {
	out := make([]OwnerBalance, 0, len(refill.Entries))
	for _, entry := range refill.Entries {
		if entry.TotalAmount <= 0 {
			continue
		}

		paid := decimal.Zero
		if refill.TagID != nil {
			var txns []models.Transaction
			err := s.DB.
				Joins("JOIN transaction_tags ON transaction_tags.transaction_id = transactions.id").
				Where("transaction_tags.tag_id = ?", *refill.TagID).
				Where("transactions.owner_id = ?", entry.OwnerID).
				Where("transactions.type = ?", models.MoneyIn).
				Where("transactions.is_duplicate = ?", false).
				Find(&txns).Error
			if err != nil {
				return nil, fmt.Errorf("load refill payments: %w", err)
			}
			for _, txn := range txns {
				paid = paid.Add(decimal.NewFromFloat(txn.Amount))
			}
		}

		owed := decimal.NewFromFloat(entry.TotalAmount)
		remaining := owed.Sub(paid)
		status := StatusPending
		if remaining.LessThanOrEqual(decimal.Zero) {
			status = StatusPaid
		}

		out = append(out, OwnerBalance{
			OwnerID:          entry.OwnerID,
			AmountOwed:       owed.InexactFloat64(),
			AmountPaid:       paid.InexactFloat64(),
			RemainingBalance: remaining.InexactFloat64(),
			Status:           status,
		})
	}
	return out, nil
}

// PendingAll aggregates owed/paid/remaining per owner across every refill,
// for the portfolio-wide pending-payments view.
func (s *Service) PendingAll() ([]OwnerBalance, error) {
	var refills []models.LpgRefill
	if err := s.DB.Preload("Entries").Order("refill_date ASC").Find(&refills).Error; err != nil {
		return nil, fmt.Errorf("load refills: %w", err)
	}

	totals := make(map[uint]*OwnerBalance)
	var order []uint
	for i := range refills {
		balances, err := s.reconcileRefill(&refills[i])
		if err != nil {
			return nil, err
		}
		for _, b := range balances {
			agg, ok := totals[b.OwnerID]
			if !ok {
				agg = &OwnerBalance{OwnerID: b.OwnerID}
				totals[b.OwnerID] = agg
				order = append(order, b.OwnerID)
			}
			agg.AmountOwed += b.AmountOwed
			agg.AmountPaid += b.AmountPaid
		}
	}

	out := make([]OwnerBalance, 0, len(order))
	for _, ownerID := range order {
		agg := totals[ownerID]
		agg.RemainingBalance = agg.AmountOwed - agg.AmountPaid
		agg.Status = StatusPending
		if agg.RemainingBalance <= 0 {
			agg.Status = StatusPaid
		}
		out = append(out, *agg)
	}
	return out, nil
}
