// services/streak_store.go
package services

import (
	"context"
	"errors"

	"crdo-backend/engine"
	"crdo-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakStore reads and upserts the single streak row of a user.
type StreakStore interface {
	// GetStreak returns nil, nil when the user has no streak yet.
	GetStreak(ctx context.Context, userID string) (*engine.StreakState, error)
	UpsertStreak(ctx context.Context, userID string, s engine.StreakState) error
}

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) GetStreak(ctx context.Context, userID string) (*engine.StreakState, error) {
	row, err := r.find(ctx, userID)
	if err != nil || row == nil {
		return nil, err
	}
	s := StreakStateOf(row)
	return &s, nil
}

// GetStreakRow returns the raw row, or nil when absent.
func (r *StreakRepository) GetStreakRow(ctx context.Context, userID string) (*models.Streak, error) {
	return r.find(ctx, userID)
}

func (r *StreakRepository) find(ctx context.Context, userID string) (*models.Streak, error) {
	var row models.Streak
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertStreak inserts or updates by user_id. freeze_count is never
// overwritten on update.
func (r *StreakRepository) UpsertStreak(ctx context.Context, userID string, s engine.StreakState) error {
	row := models.Streak{
		ID:            uuid.NewString(),
		UserID:        userID,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		LastRunDate:   s.LastRunDate.Time(),
		FreezeCount:   s.FreezeCount,
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_streak", "longest_streak", "last_run_date", "updated_at"}),
	}).Create(&row).Error
}

// StreakStateOf converts a stored row into engine state.
func StreakStateOf(row *models.Streak) engine.StreakState {
	return engine.StreakState{
		CurrentStreak: row.CurrentStreak,
		LongestStreak: row.LongestStreak,
		LastRunDate:   engine.DateOf(row.LastRunDate),
		FreezeCount:   row.FreezeCount,
	}
}
