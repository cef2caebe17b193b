package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func metricsWith(avg, peak float64) RunMetrics {
	return RunMetrics{
		DistanceMiles:   3,
		DurationSeconds: 1800,
		ReportedAverage: ptr(avg),
		ReportedPeak:    ptr(peak),
		ImpliedSpeed:    6,
		SubmittedAt:     time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
	}
}

func historyOf(speeds ...float64) []HistoricalRun {
	runs := make([]HistoricalRun, len(speeds))
	for i, s := range speeds {
		runs[i] = HistoricalRun{AverageSpeed: s, DistanceMiles: 3, DurationS: 1800}
	}
	return runs
}

func TestSpeedBands(t *testing.T) {
	scorer := NewRiskScorer(DefaultRiskConfig())

	cases := []struct {
		name       string
		avg        float64
		score      int
		evidence   string
		violations int
		warnings   int
	}{
		{"impossible", 30, 40, "Impossible speed detected - likely cheating", 1, 0},
		{"elite", 23, 20, "Very high speed - requires verification", 0, 1},
		{"advanced", 19, 5, "Advanced runner speed - plausible", 0, 0},
		{"good", 14, 0, "Good runner speed - normal range", 0, 0},
		{"recreational", 8, 0, "Recreational runner speed - normal", 0, 0},
		{"boundary is exclusive", 27, 20, "Very high speed - requires verification", 0, 1},
		{"exactly 13 is recreational", 13, 0, "Recreational runner speed - normal", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := scorer.Score(metricsWith(tc.avg, tc.avg), nil)
			// peak equal to average only contributes above 27
			expected := tc.score
			if tc.avg > 33 {
				expected += 30
			} else if tc.avg > 27 {
				expected += 15
			}
			assert.Equal(t, expected, a.RiskScore)
			assert.Equal(t, tc.evidence, a.Evidence.SpeedAnalysis)
			assert.Len(t, a.Violations, tc.violations+boolToInt(tc.avg > 33))
			assert.Len(t, a.Warnings, tc.warnings+boolToInt(tc.avg > 27 && tc.avg <= 33))
		})
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestSpeedBandIsTotal(t *testing.T) {
	scorer := NewRiskScorer(DefaultRiskConfig())
	units := DefaultUnits()
	for distance := 0.1; distance <= 100; distance += 7.3 {
		for _, duration := range []int{1, 60, 600, 3600, 20000, 86400} {
			m, err := units.Normalize(RunSubmission{Distance: distance, Duration: duration})
			require.NoError(t, err)
			a := scorer.Score(m, nil)
			assert.NotEmpty(t, a.Evidence.SpeedAnalysis)
		}
	}
}

func TestPeakSpeedCeiling(t *testing.T) {
	scorer := NewRiskScorer(DefaultRiskConfig())

	a := scorer.Score(metricsWith(8, 34), nil)
	assert.Equal(t, 30, a.RiskScore)
	assert.Equal(t, []string{"Peak speed exceeds human limits (33 mph)"}, a.Violations)

	a = scorer.Score(metricsWith(8, 28), nil)
	assert.Equal(t, 15, a.RiskScore)
	assert.Equal(t, []string{"Very high peak speed detected"}, a.Warnings)

	a = scorer.Score(metricsWith(8, 12), nil)
	assert.Equal(t, 0, a.RiskScore)
	assert.Empty(t, a.Violations)
	assert.Empty(t, a.Warnings)
}

func TestMissingReportedSpeedsAreNotScored(t *testing.T) {
	scorer := NewRiskScorer(DefaultRiskConfig())
	m := RunMetrics{DistanceMiles: 10, DurationSeconds: 1200, ImpliedSpeed: 30}

	a := scorer.Score(m, nil)
	assert.Zero(t, a.RiskScore)
	assert.Empty(t, a.Violations)
	assert.Empty(t, a.Warnings)
	assert.Equal(t, "Recreational runner speed - normal", a.Evidence.SpeedAnalysis)
}

func TestMissingPeakSkipsPeakCeiling(t *testing.T) {
	scorer := NewRiskScorer(DefaultRiskConfig())
	m := metricsWith(20, 0)
	m.ReportedPeak = nil
	m.ImpliedSpeed = 40

	a := scorer.Score(m, nil)
	assert.Equal(t, 5, a.RiskScore)
	assert.Empty(t, a.Warnings)
}

func TestConsistency(t *testing.T) {
	scorer := NewRiskScorer(DefaultRiskConfig())

	t.Run("not enough history", func(t *testing.T) {
		a := scorer.Score(metricsWith(8, 8), historyOf(8, 8, 8))
		assert.Equal(t, noConsistencyHistory, a.Evidence.ConsistencyAnalysis)
		assert.Equal(t, 0, a.RiskScore)
	})

	t.Run("robotic speeds with long history", func(t *testing.T) {
		a := scorer.Score(metricsWith(8, 8), historyOf(8, 8, 8, 8, 8, 8))
		assert.Equal(t, 30, a.RiskScore)
		assert.Contains(t, a.Violations, "Suspiciously consistent speeds")
		assert.Equal(t, "Perfect consistency suggests automation", a.Evidence.ConsistencyAnalysis)
	})

	t.Run("robotic speeds inside the 4-5 run dead zone", func(t *testing.T) {
		for _, h := range [][]HistoricalRun{historyOf(8, 8, 8, 8), historyOf(8, 8, 8, 8, 8)} {
			a := scorer.Score(metricsWith(8, 8), h)
			assert.Equal(t, 0, a.RiskScore)
			assert.Empty(t, a.Violations)
			assert.Equal(t, "Normal speed variation", a.Evidence.ConsistencyAnalysis)
		}
	})

	t.Run("high variation lowers risk", func(t *testing.T) {
		a := scorer.Score(metricsWith(23, 23), historyOf(2, 14, 3, 15, 4))
		// 20 for the elite band, minus 10 for natural variation
		assert.Equal(t, 10, a.RiskScore)
		assert.Equal(t, "High variation - natural human performance", a.Evidence.ConsistencyAnalysis)
	})

	t.Run("variation never drives the score below zero", func(t *testing.T) {
		a := scorer.Score(metricsWith(8, 8), historyOf(2, 14, 3, 15, 4))
		assert.Equal(t, 0, a.RiskScore)
	})
}

func TestProgression(t *testing.T) {
	scorer := NewRiskScorer(DefaultRiskConfig())

	older := []float64{6, 7, 6, 7, 6, 7} // older window mean 6.4 (5 runs used)
	build := func(recent ...float64) []HistoricalRun {
		return historyOf(append(recent, older...)...)
	}

	cases := []struct {
		name     string
		recent   []float64
		evidence string
		points   int
	}{
		{"impossible", []float64{9, 11, 10, 9, 12}, "Sudden 50%+ speed improvement", 30},
		{"suspicious", []float64{8, 7, 9, 7, 9}, "20%+ speed improvement", 15},
		{"natural", []float64{6, 8, 6, 8, 7.5}, "Natural progression", 0},
		{"stable", []float64{5, 7, 5, 8, 6}, "Stable performance", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := scorer.Score(metricsWith(8, 8), build(tc.recent...))
			assert.Equal(t, tc.evidence, a.Evidence.PatternAnalysis)
			assert.Equal(t, "Normal speed variation", a.Evidence.ConsistencyAnalysis)
			assert.Equal(t, tc.points, a.RiskScore)
		})
	}

	t.Run("needs more than ten runs", func(t *testing.T) {
		a := scorer.Score(metricsWith(8, 8), historyOf(9, 11, 10, 9, 12, 6, 7, 6, 7, 6))
		assert.Equal(t, noPatternHistory, a.Evidence.PatternAnalysis)
	})
}

func TestScoreIsClamped(t *testing.T) {
	scorer := NewRiskScorer(DefaultRiskConfig())
	h := historyOf(20, 20, 20, 20, 20, 5, 5, 5, 5, 5, 5)

	a := scorer.Score(metricsWith(40, 40), h)
	// 40 + 30 + 30 + 30 would exceed the ceiling
	assert.Equal(t, 100, a.RiskScore)
}

func TestAssessScenarioModerateRun(t *testing.T) {
	e := New(DefaultConfig())
	m, err := e.Units.Normalize(RunSubmission{
		Distance:     5000,
		Duration:     1500,
		AverageSpeed: ptr(12 * 1609.344 / 3600),
		Units:        UnitsMetric,
	})
	require.NoError(t, err)

	a := e.Assess(m, nil)
	assert.Empty(t, a.Violations)
	assert.Equal(t, RiskLow, a.RiskLevel)
	assert.True(t, a.IsLegitimate)
	assert.Equal(t, 100, a.Confidence)
	assert.Equal(t, "Recreational runner speed - normal", a.Evidence.SpeedAnalysis)
}

func TestAssessScenarioImpossibleSpeed(t *testing.T) {
	e := New(DefaultConfig())
	m, err := e.Units.Normalize(RunSubmission{Distance: 5, Duration: 600, AverageSpeed: ptr(30)})
	require.NoError(t, err)

	a := e.Assess(m, nil)
	assert.Contains(t, a.Violations, "Speed exceeds human limits (27 mph)")
	assert.GreaterOrEqual(t, a.RiskScore, 40)
	assert.Equal(t, 100-a.RiskScore, a.Confidence)
	assert.True(t, e.Classifier.Flag(m))
}

func TestAlternateThresholds(t *testing.T) {
	cfg := DefaultRiskConfig()
	cfg.MaxAverageSpeed = 15
	scorer := NewRiskScorer(cfg)

	a := scorer.Score(metricsWith(16, 16), nil)
	assert.Contains(t, a.Violations, "Speed exceeds human limits (15 mph)")
	assert.True(t, NewRiskClassifier(cfg).Flag(metricsWith(16, 16)))
}

func TestHistoryDepth(t *testing.T) {
	assert.Equal(t, 11, DefaultRiskConfig().HistoryDepth())
}
