package models

import "time"

// Setting is an untyped string key/value pair. The balance checkpoint lives
// here (keys "current_balance" and "balance_date"); overwritten on update,
// no history kept.
type Setting struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"size:255;not null"`
	UpdatedAt time.Time
}
