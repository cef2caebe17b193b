package models

import "time"

// Streak is the persisted streak row, one per user.
type Streak struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string    `gorm:"uniqueIndex;not null" json:"user_id"`
	CurrentStreak int       `gorm:"default:0" json:"current_streak"`
	LongestStreak int       `gorm:"default:0" json:"longest_streak"`
	LastRunDate   time.Time `gorm:"type:date" json:"last_run_date"`
	FreezeCount   int       `gorm:"default:0" json:"freeze_count"` // reserved for streak freezes

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
