// engine/metrics.go
package engine

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidDistance = errors.New("distance must be a positive number")
	ErrInvalidDuration = errors.New("duration must be a positive number of seconds")
)

// UnitSystem tells Normalize how to read distance and speed on a submission.
type UnitSystem string

const (
	UnitsImperial UnitSystem = "imperial" // miles, mph
	UnitsMetric   UnitSystem = "metric"   // meters, m/s
)

// RunSubmission is a raw run as reported by the client.
type RunSubmission struct {
	Distance     float64
	Duration     int // seconds
	AverageSpeed *float64
	PeakSpeed    *float64
	Units        UnitSystem
	SubmittedAt  time.Time
}

// RunMetrics is a submission in canonical units (miles, seconds, mph).
type RunMetrics struct {
	DistanceMiles   float64
	DurationSeconds int
	ReportedAverage *float64
	ReportedPeak    *float64
	ImpliedSpeed    float64
	SubmittedAt     time.Time
}

// HistoricalRun is a completed past run, canonical units.
type HistoricalRun struct {
	AverageSpeed  float64
	DistanceMiles float64
	DurationS     int
	CreatedAt     time.Time
}

// Normalize converts a submission to canonical units and derives the implied
// speed. Distance and duration must be positive.
func (u Units) Normalize(sub RunSubmission) (RunMetrics, error) {
	distance, err := u.Miles(sub)
	if err != nil {
		return RunMetrics{}, err
	}
	if sub.Duration <= 0 {
		return RunMetrics{}, ErrInvalidDuration
	}

	avg, peak := copyFloat(sub.AverageSpeed), copyFloat(sub.PeakSpeed)
	if sub.Units == UnitsMetric {
		avg = u.mpsToMPH(avg)
		peak = u.mpsToMPH(peak)
	}

	return RunMetrics{
		DistanceMiles:   distance,
		DurationSeconds: sub.Duration,
		ReportedAverage: avg,
		ReportedPeak:    peak,
		ImpliedSpeed:    distance / float64(sub.Duration) * u.SecondsPerHour,
		SubmittedAt:     sub.SubmittedAt,
	}, nil
}

// Miles is the submitted distance in miles. It looks at nothing but the
// distance, so callers can bound it before any other field is checked.
func (u Units) Miles(sub RunSubmission) (float64, error) {
	if sub.Distance <= 0 || math.IsNaN(sub.Distance) || math.IsInf(sub.Distance, 0) {
		return 0, ErrInvalidDistance
	}
	if sub.Units == UnitsMetric {
		return sub.Distance / u.MetersPerMile, nil
	}
	return sub.Distance, nil
}

func (u Units) mpsToMPH(v *float64) *float64 {
	if v == nil {
		return nil
	}
	mph := *v * u.SecondsPerHour / u.MetersPerMile
	return &mph
}

// AverageSpeed is the reported average, or the implied speed when the client
// sent none.
func (m RunMetrics) AverageSpeed() float64 {
	if m.ReportedAverage != nil {
		return *m.ReportedAverage
	}
	return m.ImpliedSpeed
}

// PeakSpeed is the reported peak, or the implied speed when the client sent none.
func (m RunMetrics) PeakSpeed() float64 {
	if m.ReportedPeak != nil {
		return *m.ReportedPeak
	}
	return m.ImpliedSpeed
}

// RunDate is the UTC calendar date of the submission.
func (m RunMetrics) RunDate() Date {
	return DateOf(m.SubmittedAt)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
