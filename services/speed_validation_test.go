package services

import (
	"context"
	"testing"
	"time"

	"crdo-backend/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	runs  []engine.HistoricalRun
	err   error
	limit int
}

func (f *fakeHistory) History(_ context.Context, _ string, limit int) ([]engine.HistoricalRun, error) {
	f.limit = limit
	return f.runs, f.err
}

type fakeArchiver struct {
	archived []engine.RiskAssessment
	err      error
}

func (f *fakeArchiver) ArchiveAssessment(_ context.Context, _, _ string, a engine.RiskAssessment, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.archived = append(f.archived, a)
	return nil
}

func newSpeedValidation(h HistoryReader, a AssessmentArchiver) *SpeedValidationService {
	svc := NewSpeedValidationService(engine.New(engine.DefaultConfig()), h, a, nil)
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

func TestSpeedValidationModerateRun(t *testing.T) {
	h := &fakeHistory{}
	svc := newSpeedValidation(h, nil)

	a, err := svc.Validate(context.Background(), "user-1", SpeedValidationRequest{
		RunID:        "run-1",
		Distance:     3.10686,
		Duration:     1500,
		AverageSpeed: ptr(12),
		PeakSpeed:    ptr(14),
	})
	require.NoError(t, err)

	assert.True(t, a.IsLegitimate)
	assert.Equal(t, engine.RiskLow, a.RiskLevel)
	assert.Zero(t, a.RiskScore)
	assert.Equal(t, 100, a.Confidence)
	assert.Empty(t, a.Violations)
	assert.Equal(t, "Recreational runner speed - normal", a.Evidence.SpeedAnalysis)
	assert.Equal(t, engine.DefaultRiskConfig().HistoryDepth(), h.limit)
}

func TestSpeedValidationImpossibleSpeed(t *testing.T) {
	svc := newSpeedValidation(&fakeHistory{}, nil)

	a, err := svc.Validate(context.Background(), "user-1", SpeedValidationRequest{
		RunID:        "run-1",
		Distance:     5,
		Duration:     1200,
		AverageSpeed: ptr(30),
		PeakSpeed:    ptr(30),
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, a.RiskScore, 40)
	assert.Contains(t, a.Violations, "Speed exceeds human limits (27 mph)")
	assert.Equal(t, engine.RiskMedium, a.RiskLevel)
}

func TestSpeedValidationUsesHistory(t *testing.T) {
	runs := make([]engine.HistoricalRun, 6)
	for i := range runs {
		runs[i] = engine.HistoricalRun{AverageSpeed: 8, DistanceMiles: 3, DurationS: 1350}
	}
	svc := newSpeedValidation(&fakeHistory{runs: runs}, nil)

	a, err := svc.Validate(context.Background(), "user-1", SpeedValidationRequest{RunID: "run-1", Distance: 3, Duration: 1350, AverageSpeed: ptr(8), PeakSpeed: ptr(9)})
	require.NoError(t, err)

	assert.Len(t, a.Violations, 1)
	assert.Equal(t, 30, a.RiskScore)
}

func TestSpeedValidationHistoryFailureAborts(t *testing.T) {
	arch := &fakeArchiver{}
	svc := newSpeedValidation(&fakeHistory{err: errStore}, arch)

	_, err := svc.Validate(context.Background(), "user-1", SpeedValidationRequest{RunID: "run-1", Distance: 3, Duration: 1350})

	var de *DependencyError
	require.ErrorAs(t, err, &de)
	assert.Empty(t, arch.archived)
}

func TestSpeedValidationRejectsNonPositiveInput(t *testing.T) {
	svc := newSpeedValidation(&fakeHistory{}, nil)

	_, err := svc.Validate(context.Background(), "user-1", SpeedValidationRequest{Distance: 3, Duration: 0})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeDurationViolation, ve.Code)

	_, err = svc.Validate(context.Background(), "user-1", SpeedValidationRequest{Distance: 0, Duration: 60})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeDistanceViolation, ve.Code)
}

func TestSpeedValidationArchives(t *testing.T) {
	arch := &fakeArchiver{}
	svc := newSpeedValidation(&fakeHistory{}, arch)

	a, err := svc.Validate(context.Background(), "user-1", SpeedValidationRequest{RunID: "run-1", Distance: 3, Duration: 1350})
	require.NoError(t, err)
	require.Len(t, arch.archived, 1)
	assert.Equal(t, *a, arch.archived[0])
}

func TestSpeedValidationArchiveFailureIsSwallowed(t *testing.T) {
	svc := newSpeedValidation(&fakeHistory{}, &fakeArchiver{err: errStore})

	a, err := svc.Validate(context.Background(), "user-1", SpeedValidationRequest{RunID: "run-1", Distance: 3, Duration: 1350})
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestSpeedValidationScoresOnlyReportedSpeeds(t *testing.T) {
	svc := newSpeedValidation(&fakeHistory{}, nil)

	// 10 miles in 20 minutes implies 30 mph, but no speeds were reported.
	a, err := svc.Validate(context.Background(), "user-1", SpeedValidationRequest{RunID: "run-1", Distance: 10, Duration: 1200})
	require.NoError(t, err)
	assert.Zero(t, a.RiskScore)
	assert.Equal(t, engine.RiskLow, a.RiskLevel)
	assert.Equal(t, "Recreational runner speed - normal", a.Evidence.SpeedAnalysis)

	// A reported average is scored; the missing peak adds nothing.
	a, err = svc.Validate(context.Background(), "user-1", SpeedValidationRequest{RunID: "run-1", Distance: 10, Duration: 1200, AverageSpeed: ptr(23)})
	require.NoError(t, err)
	assert.Equal(t, 20, a.RiskScore)
	assert.Equal(t, []string{"Elite athlete speed detected"}, a.Warnings)
}
