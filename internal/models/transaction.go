package models

import "time"

// MoneyDirection is the canonical transaction direction. Credit is money
// coming into the building account, debit is money going out. Every layer
// (parser, balance estimator, handlers) uses these constants; bare strings
// are never compared.
type MoneyDirection string

const (
	MoneyIn  MoneyDirection = "credit"
	MoneyOut MoneyDirection = "debit"
)

// Valid reports whether d is one of the two known directions.
func (d MoneyDirection) Valid() bool {
	return d == MoneyIn || d == MoneyOut
}

// Transaction is a single ledger entry. Description is staff-editable while
// BankDescription keeps the imported text verbatim. Duplicates detected on
// re-import are retained with IsDuplicate set so batch totals stay auditable.
type Transaction struct {
	ID              uint           `gorm:"primaryKey"`
	Type            MoneyDirection `gorm:"size:16;index;not null"`
	Amount          float64        `gorm:"not null"`
	Date            time.Time      `gorm:"index;not null"`
	Description     string         `gorm:"size:512"`
	BankDescription string         `gorm:"size:512"`
	OwnerID         *uint          `gorm:"index"`
	Reference       *string        `gorm:"size:64;index"`
	Serial          *string        `gorm:"size:64;index"`
	BatchID         *uint          `gorm:"index"`
	IsDuplicate     bool           `gorm:"index;not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Owner *Owner           `gorm:"constraint:OnDelete:SET NULL"`
	Tags  []TransactionTag `gorm:"constraint:OnDelete:CASCADE"`
}

// TransactionBatch is one statement import run. Deleting a batch cascades to
// its transactions (all-or-nothing).
type TransactionBatch struct {
	ID               uint      `gorm:"primaryKey"`
	StoredFilename   string    `gorm:"size:255;not null"`
	OriginalFilename string    `gorm:"size:255;not null"`
	AccountNumber    string    `gorm:"size:64"`
	ProcessedAt      time.Time `gorm:"index;not null"`
	TotalCount       int       `gorm:"not null"`
	NewCount         int       `gorm:"not null"`
	DuplicateCount   int       `gorm:"not null"`
	CreatedAt        time.Time

	Transactions []Transaction `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}
