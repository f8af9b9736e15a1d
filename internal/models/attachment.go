package models

import "time"

// Attachment records a supporting document (bill, meter photo) stored in the
// blob bucket. The file contents are never inspected by the application.
type Attachment struct {
	ID          uint   `gorm:"primaryKey"`
	EntityKind  string `gorm:"size:32;index;not null"` // e.g. lpg_refill / transaction
	EntityID    uint   `gorm:"index;not null"`
	Filename    string `gorm:"size:255;not null"`
	StorageKey  string `gorm:"size:255;uniqueIndex;not null"`
	ContentType string `gorm:"size:128"`
	Size        int64  `gorm:"not null"`
	CreatedAt   time.Time
}
