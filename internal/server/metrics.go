package server

import (
	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardpanda_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardpanda_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Rendering metrics
	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardpanda_renders_total",
			Help: "Total number of barcode renders",
		},
		[]string{"requested", "effective", "outcome"}, // outcome: exact, substituted, placeholder
	)

	renderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardpanda_render_duration_seconds",
			Help:    "Barcode render duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)

	exportPagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardpanda_export_pages_total",
			Help: "Total number of card pages exported to PDF",
		},
	)

	// Capture metrics
	captureEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardpanda_capture_events_total",
			Help: "Total number of capture detections",
		},
		[]string{"outcome"}, // outcome: accepted, ignored, rejected
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardpanda_rate_limit_hits_total",
			Help: "Total number of rate limited requests",
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardpanda_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardpanda_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

func renderOutcome(img barcode.RenderedImage) string {
	switch {
	case img.Placeholder:
		return "placeholder"
	case img.Type != img.Requested:
		return "substituted"
	default:
		return "exact"
	}
}

func recordRender(img barcode.RenderedImage) {
	rendersTotal.WithLabelValues(img.Requested.String(), img.Type.String(), renderOutcome(img)).Inc()
}
