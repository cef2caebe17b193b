// services/achievement_store.go
package services

import (
	"context"

	"crdo-backend/engine"
	"crdo-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementStore persists grants, ignoring ones that already exist for
// the same (user, description).
type AchievementStore interface {
	GrantAchievement(ctx context.Context, g engine.AchievementGrant) error
}

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) GrantAchievement(ctx context.Context, g engine.AchievementGrant) error {
	row := models.Achievement{
		ID:          uuid.NewString(),
		UserID:      g.UserID,
		Description: g.Description,
		Code:        g.Code,
		Points:      g.Points,
		GemsBalance: g.Gems,
		CreatedAt:   g.GrantedAt.UTC(),
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "description"}},
		DoNothing: true,
	}).Create(&row).Error
}

// RecentAchievements returns newest grants first; limit <= 0 returns all.
func (r *AchievementRepository) RecentAchievements(ctx context.Context, userID string, limit int) ([]models.Achievement, error) {
	var out []models.Achievement
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
