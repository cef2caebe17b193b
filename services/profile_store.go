// services/profile_store.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"crdo-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository is the local mirror of identity-provider users.
type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

// FindByEmail matches case-insensitively; a miss is ErrUserNotFound.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*models.RunnerProfile, error) {
	var p models.RunnerProfile
	err := r.DB.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ByExternalIDs returns the known profiles keyed by external user id.
func (r *ProfileRepository) ByExternalIDs(ctx context.Context, ids []string) (map[string]models.RunnerProfile, error) {
	out := make(map[string]models.RunnerProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []models.RunnerProfile
	if err := r.DB.WithContext(ctx).Where("external_user_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ExternalUserID] = p
	}
	return out, nil
}

// UpsertProfile inserts or refreshes one mirrored user by external id.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p models.RunnerProfile) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(&p).Error
}

// LastUpdatedAt is the newest mirrored change, zero when the mirror is empty.
func (r *ProfileRepository) LastUpdatedAt(ctx context.Context) (time.Time, error) {
	var last *time.Time
	err := r.DB.WithContext(ctx).Model(&models.RunnerProfile{}).Select("MAX(updated_at)").Scan(&last).Error
	if err != nil || last == nil {
		return time.Time{}, err
	}
	return *last, nil
}
