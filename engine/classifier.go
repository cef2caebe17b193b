// engine/classifier.go
package engine

import "fmt"

// RiskLevel orders assessments: low < medium < high < critical.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskLevelNames = map[RiskLevel]string{
	RiskLow:      "low",
	RiskMedium:   "medium",
	RiskHigh:     "high",
	RiskCritical: "critical",
}

func (l RiskLevel) String() string {
	if name, ok := riskLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("RiskLevel(%d)", int(l))
}

func (l RiskLevel) MarshalText() ([]byte, error) {
	if _, ok := riskLevelNames[l]; !ok {
		return nil, fmt.Errorf("unknown risk level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *RiskLevel) UnmarshalText(b []byte) error {
	for level, name := range riskLevelNames {
		if name == string(b) {
			*l = level
			return nil
		}
	}
	return fmt.Errorf("unknown risk level %q", string(b))
}

var recommendations = map[RiskLevel][]string{
	RiskCritical: {"Immediate manual review required", "Consider account suspension"},
	RiskHigh:     {"Flag for manual review", "Monitor user activity closely"},
	RiskMedium:   {"Monitor user activity"},
	RiskLow:      {"Normal validation - no action required"},
}

// RiskClassifier turns a clamped score into a verdict.
type RiskClassifier struct {
	cfg RiskConfig
}

func NewRiskClassifier(cfg RiskConfig) *RiskClassifier {
	return &RiskClassifier{cfg: cfg}
}

// Level maps a score onto the ordered risk levels.
func (c *RiskClassifier) Level(score int) RiskLevel {
	switch {
	case score >= c.cfg.CriticalScore:
		return RiskCritical
	case score >= c.cfg.HighScore:
		return RiskHigh
	case score >= c.cfg.MediumScore:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Classify fills level, legitimacy, confidence and recommendations from the
// assessment's score.
func (c *RiskClassifier) Classify(a *RiskAssessment) {
	a.RiskScore = clamp(a.RiskScore, 0, 100)
	a.RiskLevel = c.Level(a.RiskScore)
	a.IsLegitimate = a.RiskLevel < RiskHigh
	a.Confidence = 100 - a.RiskScore
	a.Recommendations = append([]string(nil), recommendations[a.RiskLevel]...)
}

// Flag is the fast-path check used at run completion: only a reported average
// above the human ceiling marks the run.
func (c *RiskClassifier) Flag(m RunMetrics) bool {
	return m.ReportedAverage != nil && *m.ReportedAverage > c.cfg.MaxAverageSpeed
}
