package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfbatch",
			Name:      "requests_total",
			Help:      "Batch requests by operation and result",
		},
		[]string{"op", "result"},
	)

	itemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfbatch",
			Name:      "items_total",
			Help:      "Batch items by operation and result (ok, skipped)",
		},
		[]string{"op", "result"},
	)

	rejectedParts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfbatch",
			Name:      "rejected_parts_total",
			Help:      "Upload parts rejected at intake by field and reason",
		},
		[]string{"field", "reason"},
	)

	documentBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfbatch",
			Name:      "document_bytes",
			Help:      "Size of produced documents",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 8),
		},
		[]string{"op"},
	)

	documentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfbatch",
			Name:      "document_duration_seconds",
			Help:      "Time spent building a document",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	registerOnce sync.Once
)

// Init registers collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, itemsTotal, rejectedParts, documentBytes, documentDuration)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveRequest(op, result string) { requestsTotal.WithLabelValues(op, result).Inc() }

func ObserveItems(op string, ok, skipped int) {
	itemsTotal.WithLabelValues(op, "ok").Add(float64(ok))
	itemsTotal.WithLabelValues(op, "skipped").Add(float64(skipped))
}

func RejectPart(field, reason string) { rejectedParts.WithLabelValues(field, reason).Inc() }

func ObserveDocument(op string, size int, dur time.Duration) {
	documentBytes.WithLabelValues(op).Observe(float64(size))
	documentDuration.WithLabelValues(op).Observe(dur.Seconds())
}
