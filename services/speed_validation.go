// services/speed_validation.go
package services

import (
	"context"
	"time"

	"crdo-backend/engine"
	"crdo-backend/metrics"

	"github.com/sirupsen/logrus"
)

type SpeedValidationRequest struct {
	RunID        string            `json:"runId"`
	Distance     float64           `json:"distance"`
	Duration     int               `json:"duration"`
	AverageSpeed *float64          `json:"averageSpeed,omitempty"`
	PeakSpeed    *float64          `json:"peakSpeed,omitempty"`
	Units        engine.UnitSystem `json:"units,omitempty"`
}

// AssessmentArchiver stores a copy of an assessment for later review.
type AssessmentArchiver interface {
	ArchiveAssessment(ctx context.Context, userID, runID string, a engine.RiskAssessment, at time.Time) error
}

// SpeedValidationService runs the full risk assessment on demand. It never
// touches the run row.
type SpeedValidationService struct {
	Engine   *engine.Engine
	History  HistoryReader
	Archiver AssessmentArchiver // optional
	Metrics  *metrics.Recorder
	Now      func() time.Time
}

func NewSpeedValidationService(eng *engine.Engine, history HistoryReader, archiver AssessmentArchiver, rec *metrics.Recorder) *SpeedValidationService {
	return &SpeedValidationService{
		Engine:   eng,
		History:  history,
		Archiver: archiver,
		Metrics:  rec,
		Now:      time.Now,
	}
}

func (s *SpeedValidationService) Validate(ctx context.Context, userID string, req SpeedValidationRequest) (*engine.RiskAssessment, error) {
	now := s.Now().UTC()
	m, err := s.Engine.Units.Normalize(engine.RunSubmission{
		Distance:     req.Distance,
		Duration:     req.Duration,
		AverageSpeed: req.AverageSpeed,
		PeakSpeed:    req.PeakSpeed,
		Units:        req.Units,
		SubmittedAt:  now,
	})
	switch err {
	case nil:
	case engine.ErrInvalidDistance:
		return nil, &ValidationError{Code: CodeDistanceViolation, Message: "Invalid distance", Details: err.Error()}
	case engine.ErrInvalidDuration:
		return nil, &ValidationError{Code: CodeDurationViolation, Message: "Invalid duration", Details: err.Error()}
	default:
		return nil, err
	}

	history, err := s.History.History(ctx, userID, s.Engine.Scorer.HistoryDepth())
	if err != nil {
		return nil, dependency("read run history", err)
	}

	a := s.Engine.Assess(m, history)
	s.Metrics.Assessed(a.RiskLevel.String(), a.RiskScore)

	log := logrus.WithFields(logrus.Fields{
		"component":  "speed_validation",
		"user_id":    userID,
		"run_id":     req.RunID,
		"risk_score": a.RiskScore,
		"risk_level": a.RiskLevel.String(),
		"history":    len(history),
	})
	if a.IsLegitimate {
		log.Debug("assessment complete")
	} else {
		log.Warn("run assessed as not legitimate")
	}

	if s.Archiver != nil {
		if err := s.Archiver.ArchiveAssessment(ctx, userID, req.RunID, a, now); err != nil {
			s.Metrics.BestEffortFailed("archive")
			log.WithError(err).Error("failed to archive assessment")
		}
	}
	return &a, nil
}
