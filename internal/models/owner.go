package models

import "time"

// Owner is the party responsible for one apartment.
type Owner struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:128;not null"`
	ApartmentID string `gorm:"size:32;uniqueIndex;not null"`
	Email       string `gorm:"size:128"`
	Phone       string `gorm:"size:32"`
	IsActive    bool   `gorm:"index;not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Patterns []OwnerPattern `gorm:"constraint:OnDelete:CASCADE"`
}

// OwnerPattern is a regular expression that auto-attributes matching
// transactions to its owner. The pattern text is validated at creation;
// an invalid regex is never stored.
type OwnerPattern struct {
	ID          uint   `gorm:"primaryKey"`
	OwnerID     uint   `gorm:"index;not null"`
	Pattern     string `gorm:"size:255;not null"`
	Description string `gorm:"size:255"`
	IsActive    bool   `gorm:"index;not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
