// services/stats_service.go
package services

import (
	"context"
	"math"
	"time"

	"crdo-backend/engine"
	"crdo-backend/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type RunSummary struct {
	ID           string    `json:"id"`
	Distance     float64   `json:"distance"`
	Duration     int       `json:"duration"`
	AverageSpeed float64   `json:"averageSpeed"`
	PeakSpeed    float64   `json:"peakSpeed"`
	GemsEarned   int       `json:"gemsEarned"`
	IsFlagged    bool      `json:"isFlagged"`
	StartedAt    time.Time `json:"startedAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Dashboard struct {
	Streak             *engine.StreakState  `json:"streak"`
	Gems               GemsBalance          `json:"gems"`
	RecentRuns         []models.Run         `json:"recentRuns"`
	RecentAchievements []models.Achievement `json:"recentAchievements"`
}

type GemsBalance struct {
	Balance int `json:"balance"`
}

type UserStats struct {
	User         UserRef              `json:"user"`
	Stats        StatTotals           `json:"stats"`
	Streak       engine.StreakState   `json:"streak"`
	Achievements []models.Achievement `json:"achievements"`
	Friends      FriendCounts         `json:"friends"`
	RecentRuns   []RunSummary         `json:"recentRuns"`
}

type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type StatTotals struct {
	TotalRuns       int     `json:"totalRuns"`
	TotalDistance   float64 `json:"totalDistance"`
	TotalDuration   int     `json:"totalDuration"`
	AverageDistance float64 `json:"averageDistance"`
	AverageDuration int     `json:"averageDuration"`
	TotalPoints     int     `json:"totalPoints"`
	TotalGems       int     `json:"totalGems"`
	WeeklyRuns      int     `json:"weeklyRuns"`
	WeeklyDistance  float64 `json:"weeklyDistance"`
	WeeklyDuration  int     `json:"weeklyDuration"`
}

type FriendCounts struct {
	Accepted        int `json:"accepted"`
	PendingRequests int `json:"pendingRequests"`
	SentRequests    int `json:"sentRequests"`
	Total           int `json:"total"`
}

// StatsService builds read-only aggregates. The reads behind one response are
// independent, so they run concurrently.
type StatsService struct {
	DB           *gorm.DB
	Runs         *RunRepository
	Streaks      *StreakRepository
	Achievements *AchievementRepository
	Now          func() time.Time
}

func NewStatsService(db *gorm.DB, runs *RunRepository, streaks *StreakRepository, achievements *AchievementRepository) *StatsService {
	return &StatsService{DB: db, Runs: runs, Streaks: streaks, Achievements: achievements, Now: time.Now}
}

func (s *StatsService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	var (
		d            Dashboard
		achievements []models.Achievement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.Streaks.GetStreak(gctx, userID)
		d.Streak = st
		return err
	})
	g.Go(func() error {
		runs, err := s.Runs.RecentRuns(gctx, userID, 10)
		d.RecentRuns = runs
		return err
	})
	g.Go(func() error {
		var err error
		achievements, err = s.Achievements.RecentAchievements(gctx, userID, 5)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dependency("load dashboard", err)
	}

	d.RecentAchievements = nonNil(achievements)
	d.RecentRuns = nonNil(d.RecentRuns)
	for _, a := range achievements {
		d.Gems.Balance += a.GemsBalance
	}
	return &d, nil
}

func (s *StatsService) UserStats(ctx context.Context, user UserRef) (*UserStats, error) {
	var (
		runs         []models.Run
		streak       *engine.StreakState
		achievements []models.Achievement
		rels         []models.Friend
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		runs, err = s.Runs.RecentRuns(gctx, user.ID, 0)
		return err
	})
	g.Go(func() (err error) {
		streak, err = s.Streaks.GetStreak(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		achievements, err = s.Achievements.RecentAchievements(gctx, user.ID, 0)
		return err
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).
			Where("user_id = ? OR friend_id = ?", user.ID, user.ID).
			Find(&rels).Error
	})
	if err := g.Wait(); err != nil {
		return nil, dependency("load user stats", err)
	}

	return buildUserStats(user, runs, streak, achievements, rels, s.Now()), nil
}

func buildUserStats(user UserRef, runs []models.Run, streak *engine.StreakState, achievements []models.Achievement, rels []models.Friend, now time.Time) *UserStats {
	out := &UserStats{
		User:         user,
		Achievements: nonNil(achievements),
		RecentRuns:   []RunSummary{},
	}
	if streak != nil {
		out.Streak = *streak
	}

	var totalDistance, weeklyDistance float64
	var totalDuration, weeklyDuration, runGems int
	weekAgo := now.AddDate(0, 0, -7)
	for i, r := range runs {
		totalDistance += r.DistanceMiles
		totalDuration += r.DurationS
		runGems += r.GemsEarned
		if !r.StartedAt.Before(weekAgo) {
			out.Stats.WeeklyRuns++
			weeklyDistance += r.DistanceMiles
			weeklyDuration += r.DurationS
		}
		if i < 10 {
			out.RecentRuns = append(out.RecentRuns, RunSummary{
				ID:           r.ID,
				Distance:     r.DistanceMiles,
				Duration:     r.DurationS,
				AverageSpeed: r.AverageSpeedMPH,
				PeakSpeed:    r.PeakSpeedMPH,
				GemsEarned:   r.GemsEarned,
				IsFlagged:    r.IsFlagged,
				StartedAt:    r.StartedAt,
				CreatedAt:    r.CreatedAt,
			})
		}
	}

	achievementGems := 0
	for _, a := range achievements {
		out.Stats.TotalPoints += a.Points
		achievementGems += a.GemsBalance
	}

	out.Stats.TotalRuns = len(runs)
	out.Stats.TotalDistance = round2(totalDistance)
	out.Stats.TotalDuration = totalDuration
	if len(runs) > 0 {
		out.Stats.AverageDistance = round2(totalDistance / float64(len(runs)))
		out.Stats.AverageDuration = int(math.Round(float64(totalDuration) / float64(len(runs))))
	}
	out.Stats.TotalGems = achievementGems + runGems
	out.Stats.WeeklyDistance = round2(weeklyDistance)
	out.Stats.WeeklyDuration = weeklyDuration

	for _, f := range rels {
		switch {
		case f.Status == models.FriendStatusAccepted:
			out.Friends.Accepted++
		case f.Status == models.FriendStatusPending && f.FriendID == user.ID:
			out.Friends.PendingRequests++
		case f.Status == models.FriendStatusPending && f.UserID == user.ID:
			out.Friends.SentRequests++
		}
	}
	out.Friends.Total = out.Friends.Accepted + out.Friends.PendingRequests + out.Friends.SentRequests
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
