package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	meetingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_transitions_total",
			Help: "Meeting lifecycle transitions applied, by transition name.",
		},
		[]string{"transition"},
	)

	noticeEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notice_evaluations_total",
			Help: "Public-notice compliance evaluations, by verdict.",
		},
		[]string{"verdict"},
	)

	votesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votes_recorded_total",
		Help: "Votes recorded on meeting actions.",
	})
)

// Init registers all service metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		meetingTransitions,
		noticeEvaluations,
		votesRecorded,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTransition counts one applied lifecycle transition.
func ObserveTransition(name string) {
	meetingTransitions.WithLabelValues(name).Inc()
}

// ObserveNoticeVerdict counts one compliance evaluation outcome.
func ObserveNoticeVerdict(verdict string) {
	noticeEvaluations.WithLabelValues(verdict).Inc()
}

// ObserveVote counts one recorded vote.
func ObserveVote() {
	votesRecorded.Inc()
}

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for instrumentation.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
