// services/run_completion.go
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"crdo-backend/engine"
	"crdo-backend/metrics"

	"github.com/sirupsen/logrus"
)

// Limits are the bounds a submission must satisfy before anything is written.
type Limits struct {
	MaxDistanceMiles     float64
	MaxDurationSeconds   int
	MinPaceMPH           float64
	MinPaceDistanceMiles float64
}

func DefaultLimits() Limits {
	return Limits{
		MaxDistanceMiles:     100,
		MaxDurationSeconds:   86400,
		MinPaceMPH:           0.5,
		MinPaceDistanceMiles: 1,
	}
}

type FinishRunRequest struct {
	RunID        string            `json:"runId"`
	Distance     float64           `json:"distance"`
	Duration     int               `json:"duration"`
	AverageSpeed *float64          `json:"averageSpeed,omitempty"`
	PeakSpeed    *float64          `json:"peakSpeed,omitempty"`
	Units        engine.UnitSystem `json:"units,omitempty"`
}

func (r FinishRunRequest) submission(at time.Time) engine.RunSubmission {
	return engine.RunSubmission{
		Distance:     r.Distance,
		Duration:     r.Duration,
		AverageSpeed: r.AverageSpeed,
		PeakSpeed:    r.PeakSpeed,
		Units:        r.Units,
		SubmittedAt:  at,
	}
}

type FinishRunResult struct {
	Message      string             `json:"message"`
	RunID        string             `json:"runId"`
	Streak       engine.StreakState `json:"streak"`
	Achievements []string           `json:"achievements"`
	IsFlagged    bool               `json:"-"`
}

// RunCompletionService finishes a run: validation, fast-path flag, run
// update, streak transition and achievement grants, strictly in that order.
type RunCompletionService struct {
	Engine       *engine.Engine
	Limits       Limits
	Runs         RunStore
	Streaks      StreakStore
	Achievements AchievementStore
	Metrics      *metrics.Recorder
	Now          func() time.Time
}

func NewRunCompletionService(eng *engine.Engine, limits Limits, runs RunStore, streaks StreakStore, achievements AchievementStore, rec *metrics.Recorder) *RunCompletionService {
	return &RunCompletionService{
		Engine:       eng,
		Limits:       limits,
		Runs:         runs,
		Streaks:      streaks,
		Achievements: achievements,
		Metrics:      rec,
		Now:          time.Now,
	}
}

func (s *RunCompletionService) FinishRun(ctx context.Context, userID string, req FinishRunRequest) (*FinishRunResult, error) {
	if req.RunID == "" {
		return nil, &ValidationError{Message: "runId is required"}
	}
	now := s.Now().UTC()
	log := logrus.WithFields(logrus.Fields{"component": "run_completion", "user_id": userID, "run_id": req.RunID})

	m, err := s.validate(req, now)
	if err != nil {
		if ve, ok := err.(*ValidationError); ok {
			s.Metrics.ValidationRejected(ve.Code)
			log.WithField("code", ve.Code).Info("run submission rejected")
		}
		return nil, err
	}

	flagged := s.Engine.Classifier.Flag(m)
	if flagged {
		log.WithField("average_speed_mph", *m.ReportedAverage).Warn("🚩 run flagged as suspicious")
	}

	completion := RunCompletion{
		DistanceMiles:   m.DistanceMiles,
		DurationS:       m.DurationSeconds,
		AverageSpeedMPH: m.AverageSpeed(),
		PeakSpeedMPH:    m.PeakSpeed(),
		GemsEarned:      int(math.Floor(m.DistanceMiles)),
		IsFlagged:       flagged,
		FinishedAt:      now,
	}
	if err := s.Runs.CompleteRun(ctx, userID, req.RunID, completion); err != nil {
		return nil, dependency("update run", err)
	}

	prev, err := s.Streaks.GetStreak(ctx, userID)
	if err != nil {
		return nil, dependency("read streak", err)
	}
	streak := s.Engine.Streaks.Advance(prev, m.RunDate())
	if err := s.Streaks.UpsertStreak(ctx, userID, streak); err != nil {
		s.Metrics.BestEffortFailed("streak")
		log.WithError(err).Error("failed to persist streak")
	}

	defs := s.Engine.Achievements.Evaluate(m, streak)
	s.Metrics.AchievementsProposed(len(defs))
	proposed := make([]string, 0, len(defs))
	for _, g := range engine.Grants(userID, defs, now) {
		proposed = append(proposed, g.Description)
		if err := s.Achievements.GrantAchievement(ctx, g); err != nil {
			s.Metrics.BestEffortFailed("achievement")
			log.WithError(err).WithField("achievement", g.Code).Error("failed to grant achievement")
		}
	}

	s.Metrics.RunCompleted(flagged)
	log.WithFields(logrus.Fields{
		"current_streak": streak.CurrentStreak,
		"achievements":   len(proposed),
		"flagged":        flagged,
	}).Info("✅ run completed")

	return &FinishRunResult{
		Message:      "Run completed successfully",
		RunID:        req.RunID,
		Streak:       streak,
		Achievements: proposed,
		IsFlagged:    flagged,
	}, nil
}

// validate applies the distance and duration bounds and the pace
// precondition, then returns the normalized metrics.
func (s *RunCompletionService) validate(req FinishRunRequest, at time.Time) (engine.RunMetrics, error) {
	sub := req.submission(at)

	// Distance is bounded on both sides before duration is looked at.
	miles, err := s.Engine.Units.Miles(sub)
	if err != nil || miles > s.Limits.MaxDistanceMiles {
		return engine.RunMetrics{}, s.distanceError()
	}

	m, err := s.Engine.Units.Normalize(sub)
	switch err {
	case nil:
	case engine.ErrInvalidDistance:
		return m, s.distanceError()
	case engine.ErrInvalidDuration:
		return m, s.durationError()
	default:
		return m, err
	}

	if m.DurationSeconds > s.Limits.MaxDurationSeconds {
		return m, s.durationError()
	}
	if m.ImpliedSpeed < s.Limits.MinPaceMPH && m.DistanceMiles > s.Limits.MinPaceDistanceMiles {
		return m, &ValidationError{
			Code:    CodePaceViolation,
			Message: "Suspicious activity detected",
			Details: "Distance too high for reported speed. Please ensure accurate tracking.",
		}
	}
	return m, nil
}

func (s *RunCompletionService) distanceError() error {
	return &ValidationError{
		Code:    CodeDistanceViolation,
		Message: "Invalid distance",
		Details: fmt.Sprintf("Distance must be between 0 and %g miles", s.Limits.MaxDistanceMiles),
	}
}

func (s *RunCompletionService) durationError() error {
	return &ValidationError{
		Code:    CodeDurationViolation,
		Message: "Invalid duration",
		Details: fmt.Sprintf("Duration must be between 0 and %d seconds", s.Limits.MaxDurationSeconds),
	}
}
