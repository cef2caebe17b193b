package models

import "time"

type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
	FriendStatusRejected FriendStatus = "rejected"
)

// Friend is a directed friend request; UserID sent it to FriendID.
type Friend struct {
	ID          string       `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string       `gorm:"index;not null" json:"user_id"`
	FriendID    string       `gorm:"index;not null" json:"friend_id"`
	Status      FriendStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	RequestedAt time.Time    `json:"requested_at"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}
