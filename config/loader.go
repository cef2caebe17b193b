package config

import (
	"fmt"
	"os"
	"strings"

	"crdo-backend/engine"
	"crdo-backend/services"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads .env when present, then parses the environment into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	} else {
		logrus.Info("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d (must be 1-65535)", c.Port)
	}
	if c.MaxDistanceMiles <= 0 {
		return fmt.Errorf("MAX_DISTANCE_MILES must be positive")
	}
	if c.MaxDurationSeconds <= 0 {
		return fmt.Errorf("MAX_DURATION_SECONDS must be positive")
	}
	if c.MaxAverageSpeedMPH <= 0 || c.MaxPeakSpeedMPH <= 0 {
		return fmt.Errorf("speed ceilings must be positive")
	}
	bands := engine.DefaultRiskConfig()
	if c.MaxAverageSpeedMPH <= bands.EliteAverageSpeed {
		return fmt.Errorf("MAX_AVERAGE_SPEED_MPH must be above the elite band (%g mph)", bands.EliteAverageSpeed)
	}
	if c.MaxPeakSpeedMPH <= bands.HighPeakSpeed {
		return fmt.Errorf("MAX_PEAK_SPEED_MPH must be above the high peak band (%g mph)", bands.HighPeakSpeed)
	}
	if c.MinPaceMPH < 0 || c.MinPaceDistanceMiles < 0 {
		return fmt.Errorf("pace thresholds must not be negative")
	}
	if c.FinishRunMaxRequests < 1 {
		return fmt.Errorf("FINISH_RUN_MAX_REQUESTS must be at least 1")
	}
	if c.FinishRunWindow <= 0 || c.ProfileSyncInterval <= 0 || c.HealthProbeInterval <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q (text or json)", c.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.AssessmentArchiveEnabled && c.AssessmentBucket == "" {
		return fmt.Errorf("ASSESSMENT_BUCKET is required when ASSESSMENT_ARCHIVE_ENABLED is set")
	}
	return nil
}

// SetupLogging configures the standard logrus logger.
func (c *Config) SetupLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	if strings.EqualFold(c.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// EngineConfig builds the immutable engine configuration. The speed ceilings
// from the environment replace the defaults for both the full assessment and
// the fast-path flag.
func (c *Config) EngineConfig() (engine.Config, error) {
	ec := engine.DefaultConfig()
	ec.Risk.MaxAverageSpeed = c.MaxAverageSpeedMPH
	ec.Risk.MaxPeakSpeed = c.MaxPeakSpeedMPH

	if c.AchievementsFile != "" {
		catalog, err := LoadCatalog(c.AchievementsFile)
		if err != nil {
			return engine.Config{}, err
		}
		ec.Catalog = catalog
	}
	return ec, nil
}

func (c *Config) Limits() services.Limits {
	return services.Limits{
		MaxDistanceMiles:     c.MaxDistanceMiles,
		MaxDurationSeconds:   c.MaxDurationSeconds,
		MinPaceMPH:           c.MinPaceMPH,
		MinPaceDistanceMiles: c.MinPaceDistanceMiles,
	}
}

// Origins splits ALLOWED_ORIGINS for the CORS middleware.
func (c *Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
