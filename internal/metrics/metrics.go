package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

const divisor = 100

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds every Prometheus collector of the application.
type Metrics struct {
	registry *prometheus.Registry

	// RED for HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec

	// Domain
	WeatherLookups   *prometheus.CounterVec // by source, result
	UpstreamFailures *prometheus.CounterVec // by endpoint
	PredictionsTotal *prometheus.CounterVec // by kind
	AuthEvents       *prometheus.CounterVec // by event, result
	RegisteredUsers  prometheus.Gauge

	// Session store
	SessionOps        *prometheus.CounterVec
	SessionOpDuration *prometheus.HistogramVec

	// Cron
	CronRuns        *prometheus.CounterVec
	CronRunDuration *prometheus.HistogramVec
}

// NewMetrics builds the collectors on a private registry so tests can create many.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests total",
			},
			[]string{"method", "endpoint", "status_class"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "In-flight HTTP requests",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		WeatherLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weather_lookups_total",
				Help:      "Weather lookups by source and outcome",
			},
			[]string{"source", "result"},
		),
		UpstreamFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_failures_total",
				Help:      "Failed OpenWeatherMap calls collapsed to absent payloads",
			},
			[]string{"endpoint"},
		),
		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rain_predictions_total",
				Help:      "Rain predictions produced",
			},
			[]string{"kind"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Registrations, logins and logouts",
			},
			[]string{"event", "result"},
		),
		RegisteredUsers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_users",
				Help:      "Number of registered accounts",
			},
		),

		SessionOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_operations_total",
				Help:      "Session store operation counts",
			},
			[]string{"operation", "result"},
		),
		SessionOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_operation_duration_seconds",
				Help:      "Session store operation latencies",
			},
			[]string{"operation"},
		),

		CronRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cron_runs_total",
				Help:      "Cron job executions",
			},
			[]string{"job"},
		),
		CronRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cron_run_duration_seconds",
				Help:      "Duration of cron jobs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
		m.WeatherLookups,
		m.UpstreamFailures,
		m.PredictionsTotal,
		m.AuthEvents,
		m.RegisteredUsers,
		m.SessionOps,
		m.SessionOpDuration,
		m.CronRuns,
		m.CronRunDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the registry for extra collectors (e.g. DB stats).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTPMiddleware instruments Gin HTTP handlers for RED metrics.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		c.Next()
		m.HTTPRequestsInFlight.Dec()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, StatusClass(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// ObserveLatency and IncrementCounter let the session store report without importing prometheus.
func (m *Metrics) ObserveLatency(op string, d time.Duration) {
	m.SessionOpDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) IncrementCounter(op string, err error) {
	m.SessionOps.WithLabelValues(op, Result(err)).Inc()
}

// CronJob wraps a function with cron metrics (runs + duration).
func (m *Metrics) CronJob(name string, job func()) {
	start := time.Now()
	m.CronRuns.WithLabelValues(name).Inc()
	job()
	m.CronRunDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetRegisteredUsers(n int) {
	m.RegisteredUsers.Set(float64(n))
}

func (m *Metrics) RecordAuth(event string, err error) {
	m.AuthEvents.WithLabelValues(event, Result(err)).Inc()
}

func (m *Metrics) RecordLookup(source string, err error) {
	m.WeatherLookups.WithLabelValues(source, Result(err)).Inc()
}

func (m *Metrics) RecordUpstreamFailure(endpoint string) {
	m.UpstreamFailures.WithLabelValues(endpoint).Inc()
}

// RecordPredictions counts the dated forecast entries apart from the undated "Today" one.
func (m *Metrics) RecordPredictions(predictions []models.RainPrediction) {
	for _, p := range predictions {
		kind := "forecast"
		if p.Date == "" {
			kind = "today"
		}
		m.PredictionsTotal.WithLabelValues(kind).Inc()
	}
}

func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

func StatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}
