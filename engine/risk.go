// engine/risk.go
package engine

import (
	"fmt"
	"math"
)

type severity int

const (
	severityNone severity = iota
	severityWarning
	severityViolation
)

// finding is what one matching rule contributes to an assessment.
type finding struct {
	points   int
	severity severity
	note     string // violation or warning text
	evidence string
}

// band matches when the measured value is strictly above the threshold.
type band struct {
	above float64
	finding
}

// firstBand scans bands top-down and returns the first match.
func firstBand(value float64, bands []band) (finding, bool) {
	for _, b := range bands {
		if value > b.above {
			return b.finding, true
		}
	}
	return finding{}, false
}

// Evidence holds one narrative per analysis dimension.
type Evidence struct {
	SpeedAnalysis       string `json:"speedAnalysis"`
	ConsistencyAnalysis string `json:"consistencyAnalysis"`
	PatternAnalysis     string `json:"patternAnalysis"`
}

// RiskAssessment is the explainable verdict on one submission.
type RiskAssessment struct {
	IsLegitimate    bool      `json:"isLegitimate"`
	Confidence      int       `json:"confidence"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	RiskScore       int       `json:"riskScore"`
	Violations      []string  `json:"violations"`
	Warnings        []string  `json:"warnings"`
	Evidence        Evidence  `json:"evidence"`
	Recommendations []string  `json:"recommendations"`
}

func (a *RiskAssessment) apply(f finding) int {
	switch f.severity {
	case severityViolation:
		a.Violations = append(a.Violations, f.note)
	case severityWarning:
		a.Warnings = append(a.Warnings, f.note)
	}
	return f.points
}

// RiskScorer adds up independent signals into a 0-100 risk score.
type RiskScorer struct {
	cfg        RiskConfig
	speedBands []band
	peakBands  []band
}

const (
	noConsistencyHistory = "Insufficient run history for consistency analysis"
	noPatternHistory     = "Insufficient run history for pattern analysis"
)

func NewRiskScorer(cfg RiskConfig) *RiskScorer {
	return &RiskScorer{
		cfg: cfg,
		speedBands: []band{
			{cfg.MaxAverageSpeed, finding{40, severityViolation,
				fmt.Sprintf("Speed exceeds human limits (%g mph)", cfg.MaxAverageSpeed),
				"Impossible speed detected - likely cheating"}},
			{cfg.EliteAverageSpeed, finding{20, severityWarning,
				"Elite athlete speed detected",
				"Very high speed - requires verification"}},
			{cfg.AdvancedAverageSpeed, finding{5, severityNone, "", "Advanced runner speed - plausible"}},
			{cfg.GoodAverageSpeed, finding{0, severityNone, "", "Good runner speed - normal range"}},
			{math.Inf(-1), finding{0, severityNone, "", "Recreational runner speed - normal"}},
		},
		peakBands: []band{
			{cfg.MaxPeakSpeed, finding{30, severityViolation,
				fmt.Sprintf("Peak speed exceeds human limits (%g mph)", cfg.MaxPeakSpeed), ""}},
			{cfg.HighPeakSpeed, finding{15, severityWarning, "Very high peak speed detected", ""}},
		},
	}
}

// HistoryDepth is the number of recent runs Score can use.
func (s *RiskScorer) HistoryDepth() int { return s.cfg.HistoryDepth() }

// Score evaluates m against history (most recent first). The returned
// assessment carries the clamped score, findings and evidence; level,
// confidence and recommendations are left to the RiskClassifier.
func (s *RiskScorer) Score(m RunMetrics, history []HistoricalRun) RiskAssessment {
	a := RiskAssessment{
		Violations:      []string{},
		Warnings:        []string{},
		Recommendations: []string{},
	}
	score := 0

	// Only reported speeds are scored. A missing average reads as the
	// lowest band and a missing peak contributes nothing.
	speed := s.speedBands[len(s.speedBands)-1].finding
	if m.ReportedAverage != nil {
		speed, _ = firstBand(*m.ReportedAverage, s.speedBands)
	}
	score += a.apply(speed)
	a.Evidence.SpeedAnalysis = speed.evidence

	if m.ReportedPeak != nil {
		if peak, ok := firstBand(*m.ReportedPeak, s.peakBands); ok {
			score += a.apply(peak)
		}
	}

	cons := s.consistency(history)
	score += a.apply(cons)
	a.Evidence.ConsistencyAnalysis = cons.evidence

	trend := s.progression(history)
	score += a.apply(trend)
	a.Evidence.PatternAnalysis = trend.evidence

	a.RiskScore = clamp(score, 0, 100)
	return a
}

// consistency looks at how much the recent average speeds wander around their
// mean. The hard violation needs more history than the analysis itself, so
// with 4-5 runs only the softer outcomes are reachable.
func (s *RiskScorer) consistency(history []HistoricalRun) finding {
	if len(history) <= s.cfg.ConsistencyMinHistory {
		return finding{evidence: noConsistencyHistory}
	}
	speeds := recentSpeeds(history, 0, s.cfg.ConsistencyWindow)
	deviation := meanAbsDeviation(speeds)

	switch {
	case deviation < s.cfg.AutomationMaxDeviation && len(history) > s.cfg.AutomationMinHistory:
		return finding{30, severityViolation, "Suspiciously consistent speeds", "Perfect consistency suggests automation"}
	case deviation > s.cfg.NaturalMinDeviation:
		return finding{-10, severityNone, "", "High variation - natural human performance"}
	default:
		return finding{0, severityNone, "", "Normal speed variation"}
	}
}

// progression compares the recent window mean against the window before it.
func (s *RiskScorer) progression(history []HistoricalRun) finding {
	if len(history) <= s.cfg.ProgressionMinHistory {
		return finding{evidence: noPatternHistory}
	}
	w := s.cfg.ProgressionWindow
	recent := mean(recentSpeeds(history, 0, w))
	older := mean(recentSpeeds(history, w, w))

	f, _ := firstBand(recent, []band{
		{older * s.cfg.ImpossibleImprovement, finding{30, severityViolation, "Impossible performance improvement", "Sudden 50%+ speed improvement"}},
		{older * s.cfg.SuspiciousImprovement, finding{15, severityWarning, "Suspicious performance improvement", "20%+ speed improvement"}},
		{older * s.cfg.NaturalImprovement, finding{0, severityNone, "", "Natural progression"}},
		{math.Inf(-1), finding{0, severityNone, "", "Stable performance"}},
	})
	return f
}

func recentSpeeds(history []HistoricalRun, offset, n int) []float64 {
	if offset >= len(history) {
		return nil
	}
	end := offset + n
	if end > len(history) {
		end = len(history)
	}
	speeds := make([]float64, 0, end-offset)
	for _, r := range history[offset:end] {
		speeds = append(speeds, r.AverageSpeed)
	}
	return speeds
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func meanAbsDeviation(vs []float64) float64 {
	m := mean(vs)
	devs := make([]float64, len(vs))
	for i, v := range vs {
		devs[i] = math.Abs(v - m)
	}
	return mean(devs)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
