// services/scheduler.go
package services

import (
	"context"
	"sync"
	"time"

	"crdo-backend/metrics"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime *int64 `json:"responseTime,omitempty"` // ms
}

type FunctionsHealth struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type HealthStatus struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	Database  DatabaseHealth  `json:"database"`
	Functions FunctionsHealth `json:"functions"`
}

func (h HealthStatus) Healthy() bool { return h.Status == "healthy" }

// HealthMonitor probes the database on a schedule and serves the last result,
// so health requests never wait on the database.
type HealthMonitor struct {
	DB            Pinger
	Version       string
	FunctionCount int
	Timeout       time.Duration
	Metrics       *metrics.Recorder
	Now           func() time.Time

	mu        sync.RWMutex
	probed    bool
	up        bool
	latency   time.Duration
	scheduler gocron.Scheduler
}

func NewHealthMonitor(db Pinger, version string, functionCount int, rec *metrics.Recorder) *HealthMonitor {
	return &HealthMonitor{
		DB:            db,
		Version:       version,
		FunctionCount: functionCount,
		Timeout:       3 * time.Second,
		Metrics:       rec,
		Now:           time.Now,
	}
}

// Probe pings the database once and records the outcome.
func (m *HealthMonitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	start := time.Now()
	err := m.DB.PingContext(ctx)
	latency := time.Since(start)

	m.mu.Lock()
	m.probed = true
	m.up = err == nil
	m.latency = latency
	m.mu.Unlock()

	m.Metrics.DatabaseProbe(err == nil, latency)
	if err != nil {
		logrus.WithField("component", "health").WithError(err).Warn("database probe failed")
	}
	return err == nil
}

// Start probes immediately and then every interval.
func (m *HealthMonitor) Start(interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			m.Probe(context.Background())
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	sched.Start()

	m.mu.Lock()
	m.scheduler = sched
	m.mu.Unlock()
	logrus.WithField("component", "health").Infof("⏱️ database probe every %s", interval)
	return nil
}

func (m *HealthMonitor) Stop() error {
	m.mu.Lock()
	sched := m.scheduler
	m.scheduler = nil
	m.mu.Unlock()
	if sched == nil {
		return nil
	}
	return sched.Shutdown()
}

// Status reports the last probe. Before the first probe the database counts
// as disconnected.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	probed, up, latency := m.probed, m.up, m.latency
	m.mu.RUnlock()

	h := HealthStatus{
		Status:    "unhealthy",
		Timestamp: m.Now().UTC(),
		Version:   m.Version,
		Database:  DatabaseHealth{Status: "disconnected"},
		Functions: FunctionsHealth{Status: "running", Count: m.FunctionCount},
	}
	if probed && up {
		ms := latency.Milliseconds()
		h.Status = "healthy"
		h.Database = DatabaseHealth{Status: "connected", ResponseTime: &ms}
	}
	return h
}
