package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notary_portal"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of portal API requests by handler.",
		},
		[]string{"handler"},
	)

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Count of notary backend calls by operation and result.",
		},
		[]string{"op", "result"},
	)

	backendRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_retries_total",
			Help:      "Count of retried notary backend calls by operation.",
		},
		[]string{"op"},
	)

	backendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_seconds",
			Help:      "Latency of notary backend calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	backendUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_up",
			Help:      "1 when the last backend health probe succeeded.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Count of backend cache lookups by result.",
		},
		[]string{"result"},
	)

	bookingSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submitted_total",
			Help:      "Count of booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	feedbackSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_submitted_total",
			Help:      "Count of feedback entries submitted for completed jobs.",
		},
	)

	slotQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_queries_total",
			Help:      "Count of availability queries by slot source.",
		},
		[]string{"source"},
	)

	slotWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_record_warnings_total",
			Help:      "Count of malformed slot or booking records skipped during reconciliation.",
		},
		[]string{"source"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			backendRequests,
			backendRetries,
			backendLatency,
			backendUp,
			cacheLookups,
			bookingSubmitted,
			feedbackSubmitted,
			slotQueries,
			slotWarnings,
		)
	})
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}

// ObserveBackend records one backend call.
func ObserveBackend(op string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	backendRequests.WithLabelValues(op, result).Inc()
	backendLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func IncBackendRetry(op string) {
	backendRetries.WithLabelValues(op).Inc()
}

func SetBackendUp(up bool) {
	if up {
		backendUp.Set(1)
		return
	}
	backendUp.Set(0)
}

func IncCache(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func IncBookingSubmitted(outcome string) {
	bookingSubmitted.WithLabelValues(outcome).Inc()
}

func IncFeedbackSubmitted() {
	feedbackSubmitted.Inc()
}

func IncSlotQuery(source string) {
	slotQueries.WithLabelValues(source).Inc()
}

func AddSlotWarnings(source string, n int) {
	if n <= 0 {
		return
	}
	slotWarnings.WithLabelValues(source).Add(float64(n))
}
