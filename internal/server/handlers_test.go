package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RequiresStore(t *testing.T) {
	_, err := NewServer(Config{}, nil, nil)
	assert.Error(t, err)

	s, err := NewServer(Config{}, cards.NewMemoryStore(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(64*1024), s.maxBodyBytes)
	assert.Nil(t, s.rateLimiter)
}

func TestServer_HealthHandler(t *testing.T) {
	server, store := newTestServer(t)
	_, err := store.Create(context.Background(), cards.Draft{Payload: "1", Type: barcode.TypeQR})
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
		checkResponse  bool
	}{
		{name: "GET request success", method: "GET", expectedStatus: http.StatusOK, checkResponse: true},
		{name: "POST request not allowed", method: "POST", expectedStatus: http.StatusMethodNotAllowed},
		{name: "PUT request not allowed", method: "PUT", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			server.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse {
				var response HealthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, "healthy", response.Status)
				assert.Equal(t, "2024-05-01T10:00:00Z", response.Time)
				assert.Equal(t, 1, response.Cards)
				assert.Len(t, response.Encoders, 5)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServer_RenderPNG(t *testing.T) {
	server, _ := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodPost, "/render", RenderRequest{Payload: "4006381333931", Type: "ean13"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "code128", w.Header().Get("X-Barcode-Type"))
	assert.Equal(t, "ean13", w.Header().Get("X-Barcode-Requested-Type"))
	assert.Equal(t, "false", w.Header().Get("X-Barcode-Placeholder"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestServer_RenderJSON(t *testing.T) {
	server, _ := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodPost, "/render?format=json", RenderRequest{Payload: "123", Type: "qr"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RenderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, barcode.TypeQR, resp.Type)
	assert.Equal(t, barcode.TypeQR, resp.RequestedType)
	assert.Equal(t, barcode.AlgorithmQR, resp.Algorithm)
	assert.Equal(t, resp.Width, resp.Height)
	assert.False(t, resp.Placeholder)
	assert.NotEmpty(t, resp.PNG)
}

func TestServer_RenderRawType(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	tests := []struct {
		name     string
		req      RenderRequest
		wantType string
	}{
		{"live metadata default", RenderRequest{Payload: "1", RawType: barcode.LiveQR}, "qr"},
		{"classification collapse", RenderRequest{Payload: "1", RawType: "VNBarcodeSymbologyMicroPDF417", Vocabulary: "classification"}, "pdf417"},
		{"unknown falls back", RenderRequest{Payload: "1", RawType: "org.example.Nope"}, "code128"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/render", tt.req)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantType, w.Header().Get("X-Barcode-Type"))
		})
	}
}

func TestServer_RenderFallbackHeaders(t *testing.T) {
	store := cards.NewMemoryStore()
	server, err := NewServer(Config{MaxBodyKB: 4}, store, quietRenderer(barcode.AlgorithmQR))
	require.NoError(t, err)

	w := doJSON(t, server.Handler(), http.MethodPost, "/render", RenderRequest{Payload: "42", Type: "qr"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "code128", w.Header().Get("X-Barcode-Type"))
	assert.Equal(t, "qr", w.Header().Get("X-Barcode-Requested-Type"))
}

func TestServer_RenderPlaceholderHeaders(t *testing.T) {
	server, err := NewServer(Config{MaxBodyKB: 4}, cards.NewMemoryStore(), barcode.NewRenderer(barcode.NewRegistry(nil)))
	require.NoError(t, err)

	w := doJSON(t, server.Handler(), http.MethodPost, "/render", RenderRequest{Payload: "42", Type: "aztec"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Barcode-Placeholder"))
}

func TestServer_RenderErrors(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	tests := []struct {
		name   string
		method string
		body   any
		status int
	}{
		{"wrong method", http.MethodGet, nil, http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, []byte("{"), http.StatusBadRequest},
		{"unknown field", http.MethodPost, []byte(`{"payload":"1","type":"qr","extra":1}`), http.StatusBadRequest},
		{"unknown type", http.MethodPost, RenderRequest{Payload: "1", Type: "maxicode"}, http.StatusBadRequest},
		{"missing type", http.MethodPost, RenderRequest{Payload: "1"}, http.StatusBadRequest},
		{"bad vocabulary", http.MethodPost, RenderRequest{Payload: "1", RawType: "x", Vocabulary: "braille"}, http.StatusBadRequest},
		{"body too large", http.MethodPost, RenderRequest{Payload: strings.Repeat("9", 8*1024), Type: "qr"}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, tt.method, "/render", tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusMethodNotAllowed {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.False(t, resp.Success)
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestServer_RenderDeterministic(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()
	a := doJSON(t, h, http.MethodPost, "/render", RenderRequest{Payload: "987654", Type: "dataMatrix"})
	b := doJSON(t, h, http.MethodPost, "/render", RenderRequest{Payload: "987654", Type: "dataMatrix"})
	assert.Equal(t, a.Body.Bytes(), b.Body.Bytes())
}

func TestServer_Metrics(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()
	doJSON(t, h, http.MethodPost, "/render", RenderRequest{Payload: "1", Type: "qr"})

	w := doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "cardpanda_renders_total")
	assert.Contains(t, body, `cardpanda_http_requests_total{endpoint="/render"`)
}
