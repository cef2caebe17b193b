package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crdo-backend/config"
	"crdo-backend/engine"
	"crdo-backend/handlers"
	"crdo-backend/metrics"
	"crdo-backend/middleware"
	"crdo-backend/models"
	"crdo-backend/services"
	"crdo-backend/utils"
	"crdo-backend/workers"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// functionCount is the number of user-facing endpoints reported by /health.
const functionCount = 9

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("❌ invalid config: %v", err)
	}
	cfg.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("❌ failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Run{},
		&models.Streak{},
		&models.Achievement{},
		&models.Friend{},
		&models.RunnerProfile{},
	); err != nil {
		logrus.Fatalf("❌ failed to migrate database: %v", err)
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logrus.Fatalf("❌ failed to build engine config: %v", err)
	}
	eng := engine.New(engineCfg)

	reg := metrics.NewRegistry()
	rec := metrics.New(reg)

	// Storage
	runs := services.NewRunRepository(db)
	streaks := services.NewStreakRepository(db)
	achievements := services.NewAchievementRepository(db)
	profiles := services.NewProfileRepository(db)

	var archiver services.AssessmentArchiver
	if cfg.AssessmentArchiveEnabled {
		archive, err := utils.NewAssessmentArchive(ctx, utils.ArchiveConfig{
			Bucket:          cfg.AssessmentBucket,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logrus.Fatalf("❌ failed to initialize assessment archive: %v", err)
		}
		archiver = archive
		logrus.Infof("🗄️ archiving risk assessments to bucket %s", cfg.AssessmentBucket)
	}

	var limiterStorage fiber.Storage
	if cfg.RedisAddr != "" {
		client, err := connectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logrus.Fatalf("❌ failed to connect to redis: %v", err)
		}
		storage := middleware.NewRedisStorage(client, "crdo:finishRun:")
		defer storage.Close()
		limiterStorage = storage
	} else {
		logrus.Warn("⚠️ REDIS_ADDR not set, finishRun rate limits are per instance")
	}

	// Services
	identity := services.NewIdentityClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	runService := services.NewRunService(runs, engineCfg.Units, cfg.SeedEnabled)
	completion := services.NewRunCompletionService(eng, cfg.Limits(), runs, streaks, achievements, rec)
	validation := services.NewSpeedValidationService(eng, runs, archiver, rec)
	friends := services.NewFriendService(db, profiles)
	stats := services.NewStatsService(db, runs, streaks, achievements)

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatalf("❌ failed to get sql.DB: %v", err)
	}
	health := services.NewHealthMonitor(sqlDB, cfg.Version, functionCount, rec)
	if err := health.Start(cfg.HealthProbeInterval); err != nil {
		logrus.Fatalf("❌ failed to start health monitor: %v", err)
	}
	defer func() {
		if err := health.Stop(); err != nil {
			logrus.WithError(err).Warn("health monitor shutdown")
		}
	}()

	syncWorker := workers.NewProfileSyncWorker(identity, profiles, cfg.ProfileSyncInterval, rec)
	syncWorker.Start(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: cfg.Environment == "production",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Origins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, apikey, X-Client-Info",
		MaxAge:       86400,
	}))
	app.Use(middleware.RequestLogger())
	app.Use(rec.Middleware())

	auth := middleware.BearerAuth(identity)
	finishLimiter := middleware.PerUserLimiter(cfg.FinishRunMaxRequests, cfg.FinishRunWindow, limiterStorage)

	handlers.SetupHealthRoutes(app, health)
	handlers.SetupRunRoutes(app, auth, finishLimiter, runService, completion, validation)
	handlers.SetupSocialRoutes(app, auth, friends)
	handlers.SetupStatsRoutes(app, auth, stats)
	app.Get("/metrics", middleware.ServiceToken(cfg.MetricsToken), metrics.Handler(reg))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := app.Listen(addr); err != nil {
			logrus.Errorf("Server error: %v", err)
			stop()
		}
	}()

	logrus.Infof("✅ Server running on http://localhost:%d (%s)", cfg.Port, cfg.Environment)
	logrus.Infof("✅ CORS configured for origins: %s", cfg.Origins())

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("server shutdown")
	}
}

// connectDatabase opens Postgres and retries the first ping with exponential
// backoff so the service can start before the database is ready.
func connectDatabase(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute
	err = backoff.RetryNotify(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return sqlDB.PingContext(pingCtx)
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		logrus.WithError(err).Warnf("database not ready, retrying in %s", wait)
	})
	if err != nil {
		return nil, err
	}
	logrus.Info("✅ connected to database")
	return db, nil
}

func connectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	err := backoff.Retry(func() error {
		return client.Ping(ctx).Err()
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	logrus.Infof("✅ connected to redis at %s", addr)
	return client, nil
}
