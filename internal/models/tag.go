package models

import "time"

// Tag is a transaction label with an optional parent, one level deep by
// convention. The schema does not prevent cycles; writes go through
// ledger.SetTagParent which rejects them.
type Tag struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:64;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
	ParentID    *uint  `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Patterns []TagPattern `gorm:"constraint:OnDelete:CASCADE"`
}

// TransactionTag links a transaction to a tag. A transaction may carry any
// number of tags.
type TransactionTag struct {
	ID            uint `gorm:"primaryKey"`
	TransactionID uint `gorm:"index:idx_txn_tag,unique;not null"`
	TagID         uint `gorm:"index:idx_txn_tag,unique;not null"`
	CreatedAt     time.Time

	Tag Tag `gorm:"constraint:OnDelete:CASCADE"`
}

// TagPattern is a regular expression that attaches its tag to matching
// transactions. Validated at creation like OwnerPattern.
type TagPattern struct {
	ID          uint   `gorm:"primaryKey"`
	TagID       uint   `gorm:"index;not null"`
	Pattern     string `gorm:"size:255;not null"`
	Description string `gorm:"size:255"`
	IsActive    bool   `gorm:"index;not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
