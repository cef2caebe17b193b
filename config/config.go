package config

import "time"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port           int    `env:"PORT" envDefault:"8080"`
	Environment    string `env:"ENVIRONMENT" envDefault:"dev"`
	Version        string `env:"APP_VERSION" envDefault:"1.0.0"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"text"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`

	// Database and identity provider (REQUIRED)
	DatabaseURL            string `env:"DATABASE_URL,notEmpty"`
	SupabaseURL            string `env:"SUPABASE_URL,notEmpty"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY,notEmpty"`

	// Run validation limits
	MaxDistanceMiles     float64 `env:"MAX_DISTANCE_MILES" envDefault:"100"`
	MaxDurationSeconds   int     `env:"MAX_DURATION_SECONDS" envDefault:"86400"`
	MaxAverageSpeedMPH   float64 `env:"MAX_AVERAGE_SPEED_MPH" envDefault:"27"`
	MaxPeakSpeedMPH      float64 `env:"MAX_PEAK_SPEED_MPH" envDefault:"33"`
	MinPaceMPH           float64 `env:"MIN_PACE_MPH" envDefault:"0.5"`
	MinPaceDistanceMiles float64 `env:"MIN_PACE_DISTANCE_MILES" envDefault:"1"`

	// Finish-run rate limiting; counters go to redis when REDIS_ADDR is set
	FinishRunMaxRequests int           `env:"FINISH_RUN_MAX_REQUESTS" envDefault:"10"`
	FinishRunWindow      time.Duration `env:"FINISH_RUN_WINDOW" envDefault:"1m"`
	RedisAddr            string        `env:"REDIS_ADDR"`
	RedisPassword        string        `env:"REDIS_PASSWORD"`

	// Optional YAML achievement catalog replacing the built-in one
	AchievementsFile string `env:"ACHIEVEMENTS_FILE"`

	// Assessment archive (S3 / R2)
	AssessmentArchiveEnabled bool   `env:"ASSESSMENT_ARCHIVE_ENABLED" envDefault:"false"`
	AssessmentBucket         string `env:"ASSESSMENT_BUCKET"`
	S3Endpoint               string `env:"S3_ENDPOINT"`
	S3AccessKeyID            string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey        string `env:"S3_SECRET_ACCESS_KEY"`
	S3Region                 string `env:"S3_REGION" envDefault:"auto"`

	// Background jobs
	ProfileSyncInterval time.Duration `env:"PROFILE_SYNC_INTERVAL" envDefault:"1m"`
	HealthProbeInterval time.Duration `env:"HEALTH_PROBE_INTERVAL" envDefault:"30s"`

	// Shared token required to scrape /metrics; empty leaves it open
	MetricsToken string `env:"METRICS_TOKEN"`

	// QA
	SeedEnabled bool `env:"SEED_ENABLED" envDefault:"false"`
}
