package models

import "time"

// AuditLog is an append-only record of administrative actions. Rows are
// written by audit.Recorder and never updated or deleted.
type AuditLog struct {
	ID         uint   `gorm:"primaryKey"`
	EventType  string `gorm:"size:32;index;not null"` // create / update / delete / sign_in / sign_out
	EntityType string `gorm:"size:64;index"`
	EntityID   uint   `gorm:"index"`
	Actor      string `gorm:"size:64"`
	IP         string `gorm:"size:64"`
	Details    string `gorm:"type:text"` // JSON payload
	CreatedAt  time.Time
}
