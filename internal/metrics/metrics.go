// Package metrics exposes Prometheus collectors for HTTP traffic and answer outcomes.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of the service. It is private to the
// service so tests can build routers repeatedly without duplicate
// registration panics.
var Registry = prometheus.NewRegistry()

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// AnswerOutcomes counts answer operations by operation and result.
	AnswerOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_operations_total",
			Help: "Answer operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		RequestCounter,
		RequestDuration,
		AnswerOutcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Operations and outcomes recorded in AnswerOutcomes.
const (
	OpStart  = "start"
	OpSubmit = "submit"

	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeMissing  = "missing_field"
	OutcomeNotTaken = "not_taking"
	OutcomeTimeUp   = "time_up"
	OutcomeError    = "error"
)

// RecordAnswer increments the outcome counter of an answer operation.
func RecordAnswer(operation, outcome string) {
	AnswerOutcomes.WithLabelValues(operation, outcome).Inc()
}

// Middleware records request counts and latencies per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
