package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/capture"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/MeKo-Tech/cardpanda/internal/export"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	store       cards.Store
	renderer    *barcode.Renderer
	exporter    *export.Exporter
	rateLimiter *RateLimiter

	corsOrigin   string
	maxBodyBytes int64
	timeoutSec   int
	pageSize     string
	now          func() time.Time
}

// Config holds server configuration.
type Config struct {
	Host               string
	Port               int
	CORSOrigin         string
	MaxBodyKB          int64
	TimeoutSec         int
	RateLimitPerMinute int // render and capture requests per client; 0 disables
	PageSize           string
}

// Response types for API endpoints.
type HealthResponse struct {
	Status   string   `json:"status"`
	Version  string   `json:"version,omitempty"`
	Time     string   `json:"time"`
	Cards    int      `json:"cards"`
	Encoders []string `json:"encoders"`
}

// RenderRequest is the body of POST /render. Either Type or RawType must be
// set; RawType is normalized through Vocabulary (live-metadata by default).
type RenderRequest struct {
	Payload    string `json:"payload"`
	Type       string `json:"type,omitempty"`
	RawType    string `json:"raw_type,omitempty"`
	Vocabulary string `json:"vocabulary,omitempty"`
}

// RenderResponse is the JSON form of a render (format=json).
type RenderResponse struct {
	Type          barcode.Type      `json:"type"`
	RequestedType barcode.Type      `json:"requested_type"`
	Algorithm     barcode.Algorithm `json:"algorithm"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	Placeholder   bool              `json:"placeholder"`
	PNG           []byte            `json:"png"`
}

// CardRequest is the body of POST /cards and PUT /cards/{id}.
type CardRequest struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
	Type    string `json:"type"`
	Color   string `json:"color,omitempty"`
}

type CardsResponse struct {
	Cards []cards.Record `json:"cards"`
	Count int            `json:"count"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a server backed by store. A nil renderer uses the
// default encoder registry.
func NewServer(config Config, store cards.Store, renderer *barcode.Renderer) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: nil card store")
	}
	if renderer == nil {
		renderer = barcode.NewRenderer(nil)
	}
	s := &Server{
		store:        store,
		renderer:     renderer,
		exporter:     export.New(renderer),
		corsOrigin:   config.CORSOrigin,
		maxBodyBytes: config.MaxBodyKB * 1024,
		timeoutSec:   config.TimeoutSec,
		pageSize:     config.PageSize,
		now:          time.Now,
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = 64 * 1024
	}
	if config.RateLimitPerMinute > 0 {
		s.rateLimiter = NewRateLimiter(config.RateLimitPerMinute, time.Minute)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/render", s.corsMiddleware(s.rateLimitMiddleware(s.renderHandler)))
	mux.HandleFunc("/cards", s.corsMiddleware(s.cardsHandler))
	mux.HandleFunc("/cards/export.pdf", s.corsMiddleware(s.exportHandler))
	mux.HandleFunc("/cards/{id}", s.corsMiddleware(s.cardHandler))
	mux.HandleFunc("/cards/{id}/barcode.png", s.corsMiddleware(s.cardBarcodeHandler))
	mux.HandleFunc("/capture", s.rateLimitMiddleware(s.captureWebSocketHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with every route installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// sourceFromQuery reads the capture source from ?source=, defaulting to the
// live camera.
func sourceFromQuery(r *http.Request) (capture.Source, error) {
	v := r.URL.Query().Get("source")
	if v == "" {
		return capture.SourceLiveCamera, nil
	}
	return capture.ParseSource(v)
}
