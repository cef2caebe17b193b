// Package metrics exposes the Prometheus collectors of the run backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crdo"

// Recorder holds every collector. A nil *Recorder is valid and records nothing,
// so services can be built without metrics in tests.
type Recorder struct {
	runsCompleted        *prometheus.CounterVec
	validationRejections *prometheus.CounterVec
	bestEffortFailures   *prometheus.CounterVec
	assessments          *prometheus.CounterVec
	riskScore            prometheus.Histogram
	achievementsProposed prometheus.Counter
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	dbUp                 prometheus.Gauge
	dbLatency            prometheus.Gauge
	profilesSynced       prometheus.Counter
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func New(reg prometheus.Registerer) *Recorder {
	auto := promauto.With(reg)
	return &Recorder{
		runsCompleted: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Completed runs by fast-path flag outcome",
		}, []string{"flagged"}),
		validationRejections: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_validation_rejections_total",
			Help:      "Finish-run submissions rejected before persistence, by code",
		}, []string{"code"}),
		bestEffortFailures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "best_effort_write_failures_total",
			Help:      "Swallowed write failures during run completion, by step",
		}, []string{"step"}),
		assessments: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_assessments_total",
			Help:      "On-demand risk assessments by level",
		}, []string{"level"}),
		riskScore: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of clamped risk scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		achievementsProposed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_proposed_total",
			Help:      "Achievement definitions satisfied by completed runs",
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status_code"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		dbUp: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_up",
			Help:      "1 when the last database probe succeeded",
		}),
		dbLatency: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_probe_seconds",
			Help:      "Latency of the last database probe",
		}),
		profilesSynced: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runner_profiles_synced_total",
			Help:      "Runner profiles upserted from the identity provider",
		}),
	}
}

func (r *Recorder) RunCompleted(flagged bool) {
	if r == nil {
		return
	}
	r.runsCompleted.WithLabelValues(strconv.FormatBool(flagged)).Inc()
}

func (r *Recorder) ValidationRejected(code string) {
	if r == nil {
		return
	}
	r.validationRejections.WithLabelValues(code).Inc()
}

func (r *Recorder) BestEffortFailed(step string) {
	if r == nil {
		return
	}
	r.bestEffortFailures.WithLabelValues(step).Inc()
}

func (r *Recorder) AchievementsProposed(n int) {
	if r == nil {
		return
	}
	r.achievementsProposed.Add(float64(n))
}

func (r *Recorder) Assessed(level string, score int) {
	if r == nil {
		return
	}
	r.assessments.WithLabelValues(level).Inc()
	r.riskScore.Observe(float64(score))
}

func (r *Recorder) DatabaseProbe(up bool, latency time.Duration) {
	if r == nil {
		return
	}
	if up {
		r.dbUp.Set(1)
	} else {
		r.dbUp.Set(0)
	}
	r.dbLatency.Set(latency.Seconds())
}

func (r *Recorder) ProfilesSynced(n int) {
	if r == nil {
		return
	}
	r.profilesSynced.Add(float64(n))
}

// Middleware records request count and latency per matched route.
func (r *Recorder) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		r.httpRequests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
