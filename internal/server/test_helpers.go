package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
)

// quietRenderer renders with the default registry minus algs, logging nowhere.
func quietRenderer(algs ...barcode.Algorithm) *barcode.Renderer {
	reg := barcode.DefaultRegistry().Without(algs...)
	return barcode.NewRenderer(reg, barcode.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// newTestServer returns a server over an empty memory store.
func newTestServer(t *testing.T) (*Server, *cards.MemoryStore) {
	t.Helper()
	store := cards.NewMemoryStore()
	s, err := NewServer(Config{CORSOrigin: "*", MaxBodyKB: 4, TimeoutSec: 30}, store, quietRenderer())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return s, store
}

// doJSON sends body (marshalled unless already []byte) through the full mux.
func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
