package models

import "time"

// RunnerProfile is a local snapshot of an identity-provider user, kept fresh
// by the profile sync worker. Used to resolve friends by email.
type RunnerProfile struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Email          string    `gorm:"index" json:"email"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
