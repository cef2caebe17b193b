package models

import "time"

// Run is one run from start to completion. Metric columns stay zero until
// the run is finished.
type Run struct {
	ID              string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string     `gorm:"index;not null" json:"user_id"`
	StartedAt       time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt      *time.Time `gorm:"index" json:"finished_at,omitempty"`
	DistanceMiles   float64    `gorm:"column:distance_miles;default:0" json:"distance_miles"`
	DurationS       int        `gorm:"column:duration_s;default:0" json:"duration_s"`
	AverageSpeedMPH float64    `gorm:"column:average_speed_mph;default:0" json:"average_speed_mph"`
	PeakSpeedMPH    float64    `gorm:"column:peak_speed_mph;default:0" json:"peak_speed_mph"`
	GemsEarned      int        `gorm:"default:0" json:"gems_earned"`
	IsFlagged       bool       `gorm:"default:false;index" json:"is_flagged"`

	Timestamps
}
