// services/run_store.go
package services

import (
	"context"
	"time"

	"crdo-backend/engine"
	"crdo-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunCompletion is what finishing a run writes onto the run row.
type RunCompletion struct {
	DistanceMiles   float64
	DurationS       int
	AverageSpeedMPH float64
	PeakSpeedMPH    float64
	GemsEarned      int
	IsFlagged       bool
	FinishedAt      time.Time
}

// RunStore updates a run with its completion fields.
type RunStore interface {
	CompleteRun(ctx context.Context, userID, runID string, c RunCompletion) error
}

// HistoryReader returns a user's completed runs, most recent first. An empty
// result is not an error.
type HistoryReader interface {
	History(ctx context.Context, userID string, limit int) ([]engine.HistoricalRun, error)
}

type RunRepository struct {
	DB *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{DB: db}
}

// CreateRun inserts a started run for userID.
func (r *RunRepository) CreateRun(ctx context.Context, userID string, startedAt time.Time) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: startedAt.UTC(),
	}
	if err := r.DB.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// InsertRun stores a fully populated run (used by test-data seeding).
func (r *RunRepository) InsertRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(run).Error
}

// CompleteRun only touches a run owned by userID.
func (r *RunRepository) CompleteRun(ctx context.Context, userID, runID string, c RunCompletion) error {
	finishedAt := c.FinishedAt.UTC()
	res := r.DB.WithContext(ctx).
		Model(&models.Run{}).
		Where("id = ? AND user_id = ?", runID, userID).
		Updates(map[string]interface{}{
			"distance_miles":    c.DistanceMiles,
			"duration_s":        c.DurationS,
			"average_speed_mph": c.AverageSpeedMPH,
			"peak_speed_mph":    c.PeakSpeedMPH,
			"gems_earned":       c.GemsEarned,
			"is_flagged":        c.IsFlagged,
			"finished_at":       &finishedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *RunRepository) History(ctx context.Context, userID string, limit int) ([]engine.HistoricalRun, error) {
	var runs []models.Run
	q := r.DB.WithContext(ctx).
		Where("user_id = ? AND finished_at IS NOT NULL", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}

	history := make([]engine.HistoricalRun, 0, len(runs))
	for _, run := range runs {
		history = append(history, engine.HistoricalRun{
			AverageSpeed:  run.AverageSpeedMPH,
			DistanceMiles: run.DistanceMiles,
			DurationS:     run.DurationS,
			CreatedAt:     run.CreatedAt,
		})
	}
	return history, nil
}

// RecentRuns returns up to limit runs ordered by start time, newest first.
// limit <= 0 returns every run.
func (r *RunRepository) RecentRuns(ctx context.Context, userID string, limit int) ([]models.Run, error) {
	var runs []models.Run
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&runs).Error
	return runs, err
}
