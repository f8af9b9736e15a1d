package models

import "time"

// LpgRefill is one billing event for the shared propane tank. TagID links
// payment transactions to this refill.
type LpgRefill struct {
	ID                uint      `gorm:"primaryKey"`
	BillAmount        float64   `gorm:"not null"`
	Gallons           float64   `gorm:"not null"`
	RefillDate        time.Time `gorm:"index;not null"`
	EfficiencyPercent float64   `gorm:"not null"`
	TagID             *uint     `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Tag     *Tag             `gorm:"constraint:OnDelete:SET NULL"`
	Entries []LpgRefillEntry `gorm:"constraint:OnDelete:CASCADE"`
}

// LpgRefillEntry is one owner's share of one refill, derived from meter
// readings. Consumption, Percentage, Subtotal and TotalAmount are computed
// by the allocator and stored as presented.
type LpgRefillEntry struct {
	ID              uint    `gorm:"primaryKey"`
	LpgRefillID     uint    `gorm:"index;not null"`
	OwnerID         uint    `gorm:"index;not null"`
	PreviousReading float64 `gorm:"not null"`
	CurrentReading  float64 `gorm:"not null"`
	Consumption     float64 `gorm:"not null"`
	Percentage      float64 `gorm:"not null"`
	Subtotal        float64 `gorm:"not null"`
	TotalAmount     float64 `gorm:"not null"`
	CreatedAt       time.Time

	Owner Owner `gorm:"constraint:OnDelete:CASCADE"`
}
