package models

import "time"

// Achievement is a granted achievement. (user_id, description) is unique so
// re-granting is a no-op.
type Achievement struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_achievements_user_description" json:"user_id"`
	Description string    `gorm:"not null;uniqueIndex:idx_achievements_user_description" json:"description"`
	Code        string    `gorm:"type:varchar(128);index" json:"code"`
	Points      int       `gorm:"default:0" json:"points"`
	GemsBalance int       `gorm:"column:gems_balance;default:0" json:"gems_balance"`
	CreatedAt   time.Time `json:"created_at"`
}
