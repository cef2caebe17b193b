// engine/config.go
package engine

// Units holds the conversion constants used to bring every submission into
// miles, seconds and mph before any rule looks at it.
type Units struct {
	MetersPerMile  float64
	SecondsPerHour float64
}

// RiskConfig is the single source of truth for every speed threshold, shared
// by the full assessment and the fast-path flag at run completion.
type RiskConfig struct {
	// Average speed bands (mph), evaluated highest first.
	MaxAverageSpeed      float64 // above this: impossible, also the fast-path flag
	EliteAverageSpeed    float64
	AdvancedAverageSpeed float64
	GoodAverageSpeed     float64

	// Peak speed ceilings (mph).
	MaxPeakSpeed  float64
	HighPeakSpeed float64

	// Consistency analysis over the most recent runs.
	ConsistencyMinHistory  int // history must be strictly longer than this
	ConsistencyWindow      int
	AutomationMaxDeviation float64
	AutomationMinHistory   int // hard violation needs history strictly longer than this
	NaturalMinDeviation    float64

	// Progression analysis: recent window against the window just before it.
	ProgressionMinHistory int // history must be strictly longer than this
	ProgressionWindow     int
	ImpossibleImprovement float64
	SuspiciousImprovement float64
	NaturalImprovement    float64

	// Classification cut-offs on the clamped score.
	CriticalScore int
	HighScore     int
	MediumScore   int
}

// HistoryDepth is how many recent runs the scorer can ever look at. Reading
// more than this changes no outcome.
func (c RiskConfig) HistoryDepth() int {
	depth := c.ProgressionMinHistory + 1
	if c.ConsistencyMinHistory+1 > depth {
		depth = c.ConsistencyMinHistory + 1
	}
	if c.AutomationMinHistory+1 > depth {
		depth = c.AutomationMinHistory + 1
	}
	if 2*c.ProgressionWindow > depth {
		depth = 2 * c.ProgressionWindow
	}
	return depth
}

// Config bundles everything the engines need. It is built once at startup and
// passed by value; nothing in this package keeps mutable defaults.
type Config struct {
	Units   Units
	Risk    RiskConfig
	Catalog Catalog
}

// DefaultUnits returns the imperial conversion constants.
func DefaultUnits() Units {
	return Units{
		MetersPerMile:  1609.344,
		SecondsPerHour: 3600,
	}
}

// DefaultRiskConfig returns the production thresholds.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxAverageSpeed:      27,
		EliteAverageSpeed:    22,
		AdvancedAverageSpeed: 18,
		GoodAverageSpeed:     13,

		MaxPeakSpeed:  33,
		HighPeakSpeed: 27,

		ConsistencyMinHistory:  3,
		ConsistencyWindow:      5,
		AutomationMaxDeviation: 0.5,
		AutomationMinHistory:   5,
		NaturalMinDeviation:    4.0,

		ProgressionMinHistory: 10,
		ProgressionWindow:     5,
		ImpossibleImprovement: 1.5,
		SuspiciousImprovement: 1.2,
		NaturalImprovement:    1.1,

		CriticalScore: 80,
		HighScore:     60,
		MediumScore:   40,
	}
}

// DefaultConfig returns units, thresholds and the built-in achievement catalog.
func DefaultConfig() Config {
	return Config{
		Units:   DefaultUnits(),
		Risk:    DefaultRiskConfig(),
		Catalog: DefaultCatalog(),
	}
}

// Engine wires the scoring, classification, streak and achievement engines
// around one immutable Config.
type Engine struct {
	Units        Units
	Scorer       *RiskScorer
	Classifier   *RiskClassifier
	Streaks      *StreakEngine
	Achievements *AchievementEngine
}

func New(cfg Config) *Engine {
	return &Engine{
		Units:        cfg.Units,
		Scorer:       NewRiskScorer(cfg.Risk),
		Classifier:   NewRiskClassifier(cfg.Risk),
		Streaks:      NewStreakEngine(),
		Achievements: NewAchievementEngine(cfg.Catalog),
	}
}

// Assess scores a run against history and classifies the result.
func (e *Engine) Assess(m RunMetrics, history []HistoricalRun) RiskAssessment {
	a := e.Scorer.Score(m, history)
	e.Classifier.Classify(&a)
	return a
}
