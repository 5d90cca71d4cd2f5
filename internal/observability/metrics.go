package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	interviewsStarted     prometheus.Counter
	interviewsCompleted   *prometheus.CounterVec
	answersRecorded       prometheus.Counter
	parseFallbacksTotal   *prometheus.CounterVec
	generationUnavailable *prometheus.CounterVec
	sessionsActive        prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the interview API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_http_requests_total",
			Help: "Total number of interview API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interview_http_latency_seconds",
			Help:    "Latency distribution for interview API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_http_errors_total",
			Help: "Total number of error responses returned by interview endpoints.",
		}, []string{"method", "route", "status"})

		interviewsStarted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_started_total",
			Help: "Interview sessions created.",
		})

		interviewsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_sessions_completed_total",
			Help: "Interview sessions that reached a final recommendation.",
		}, []string{"recommendation"})

		answersRecorded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interview_answers_recorded_total",
			Help: "Answers recorded and evaluated.",
		})

		parseFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_parse_fallbacks_total",
			Help: "Model outputs that could not be parsed and were replaced by a fallback.",
		}, []string{"stage"})

		generationUnavailable = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_generation_unavailable_total",
			Help: "Flow steps aborted because the text-generation model could not be reached.",
		}, []string{"operation"})

		sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "interview_sessions_active",
			Help: "Interview sessions currently held in memory.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			interviewsStarted,
			interviewsCompleted,
			answersRecorded,
			parseFallbacksTotal,
			generationUnavailable,
			sessionsActive,
		)
	})
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// InterviewsStarted counts created sessions.
func InterviewsStarted() prometheus.Counter {
	RegisterMetrics()
	return interviewsStarted
}

// InterviewsCompleted counts summarized sessions by recommendation.
func InterviewsCompleted() *prometheus.CounterVec {
	RegisterMetrics()
	return interviewsCompleted
}

// AnswersRecorded counts evaluated answers.
func AnswersRecorded() prometheus.Counter {
	RegisterMetrics()
	return answersRecorded
}

// ParseFallbacks counts fallback substitutions by stage (evaluation, summary).
func ParseFallbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return parseFallbacksTotal
}

// GenerationUnavailable counts operations aborted by model failures.
func GenerationUnavailable() *prometheus.CounterVec {
	RegisterMetrics()
	return generationUnavailable
}

// SessionsActive tracks in-memory sessions.
func SessionsActive() prometheus.Gauge {
	RegisterMetrics()
	return sessionsActive
}
