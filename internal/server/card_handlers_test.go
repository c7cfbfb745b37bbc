package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCard(t *testing.T, h http.Handler, req CardRequest) cards.Record {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/cards", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec cards.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "/cards/"+rec.ID, w.Header().Get("Location"))
	return rec
}

func TestServer_CardLifecycle(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	rec := createCard(t, h, CardRequest{Payload: "4006381333931", Type: "ean13", Color: "#ff8800"})
	assert.Equal(t, "Card 1", rec.Name)
	assert.Equal(t, barcode.TypeEAN13, rec.Type)
	assert.Equal(t, cards.Color{R: 0xff, G: 0x88, A: 0xff}, rec.Color)

	w := doJSON(t, h, http.MethodGet, "/cards/"+rec.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got cards.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, rec.ID, got.ID)

	w = doJSON(t, h, http.MethodPut, "/cards/"+rec.ID, CardRequest{Name: "Bakery", Payload: "77", Type: "qr"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Bakery", got.Name)
	assert.Equal(t, barcode.TypeQR, got.Type)
	assert.Equal(t, rec.Color, got.Color, "colour is kept when omitted")

	w = doJSON(t, h, http.MethodGet, "/cards", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list CardsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = doJSON(t, h, http.MethodDelete, "/cards/"+rec.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodGet, "/cards/"+rec.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CardErrors(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
	}{
		{"unknown type", http.MethodPost, "/cards", CardRequest{Payload: "1", Type: "nope"}, http.StatusBadRequest},
		{"bad colour", http.MethodPost, "/cards", CardRequest{Payload: "1", Type: "qr", Color: "red"}, http.StatusBadRequest},
		{"empty payload", http.MethodPost, "/cards", CardRequest{Payload: "", Type: "qr"}, http.StatusBadRequest},
		{"collection method", http.MethodDelete, "/cards", nil, http.StatusMethodNotAllowed},
		{"missing card", http.MethodGet, "/cards/missing", nil, http.StatusNotFound},
		{"update missing", http.MethodPut, "/cards/missing", CardRequest{Payload: "1", Type: "qr"}, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/cards/missing", nil, http.StatusNotFound},
		{"card method", http.MethodPost, "/cards/missing", nil, http.StatusMethodNotAllowed},
		{"missing barcode", http.MethodGet, "/cards/missing/barcode.png", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestServer_CardBarcode(t *testing.T) {
	server, store := newTestServer(t)
	rec, err := store.Create(context.Background(), cards.Draft{Payload: "123", Type: barcode.TypeAztec})
	require.NoError(t, err)

	w := doJSON(t, server.Handler(), http.MethodGet, "/cards/"+rec.ID+"/barcode.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "aztec", w.Header().Get("X-Barcode-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestServer_Export(t *testing.T) {
	server, store := newTestServer(t)
	h := server.Handler()

	w := doJSON(t, h, http.MethodGet, "/cards/export.pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "no cards yet")

	for _, tt := range []barcode.Type{barcode.TypeQR, barcode.TypeCode39, barcode.TypePDF417} {
		_, err := store.Create(context.Background(), cards.Draft{Payload: "12345", Type: tt})
		require.NoError(t, err)
	}

	w = doJSON(t, h, http.MethodGet, "/cards/export.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	n, err := api.PageCount(bytes.NewReader(w.Body.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	w = doJSON(t, h, http.MethodGet, "/cards/export.pdf?pages=2-3&page_size=A6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	n, err = api.PageCount(bytes.NewReader(w.Body.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	w = doJSON(t, h, http.MethodGet, "/cards/export.pdf?pages=9", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/cards/export.pdf", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
