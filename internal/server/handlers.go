package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/version"
)

const formatJSON = "json"

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:   "healthy",
		Version:  version.Version,
		Time:     s.clock().UTC().Format(time.RFC3339),
		Encoders: []string{},
	}
	if s.store != nil {
		n, err := s.store.Count(r.Context())
		if err != nil {
			slog.Error("Card store unavailable", "error", err)
			s.writeErrorResponse(w, "card store unavailable", http.StatusServiceUnavailable)
			return
		}
		response.Cards = n
	}
	if s.renderer != nil {
		for _, a := range s.renderer.Algorithms() {
			response.Encoders = append(response.Encoders, string(a))
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// renderHandler draws an ad-hoc payload. It never fails for a well-formed
// request: encoder problems surface as a substituted type or a placeholder.
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RenderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	t, err := resolveType(req)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	img := s.render(barcode.RenderRequest{Payload: req.Payload, Type: t})
	s.writeRendered(w, r, img)
}

// resolveType picks the canonical type from either the text form or a raw
// detector identifier.
func resolveType(req RenderRequest) (barcode.Type, error) {
	switch {
	case req.Type != "":
		return barcode.ParseType(req.Type)
	case req.RawType != "":
		vocab := barcode.VocabularyLiveMetadata
		if req.Vocabulary != "" {
			v, err := barcode.ParseVocabulary(req.Vocabulary)
			if err != nil {
				return 0, err
			}
			vocab = v
		}
		return barcode.Normalize(req.RawType, vocab), nil
	default:
		return 0, errors.New("one of type or raw_type is required")
	}
}

func (s *Server) render(req barcode.RenderRequest) barcode.RenderedImage {
	start := time.Now()
	img := s.renderer.Render(req)
	renderDuration.Observe(time.Since(start).Seconds())
	recordRender(img)
	return img
}

// writeRendered writes img as PNG, or as JSON when ?format=json.
func (s *Server) writeRendered(w http.ResponseWriter, r *http.Request, img barcode.RenderedImage) {
	w.Header().Set("X-Barcode-Type", img.Type.String())
	w.Header().Set("X-Barcode-Requested-Type", img.Requested.String())
	w.Header().Set("X-Barcode-Placeholder", strconv.FormatBool(img.Placeholder))

	data, err := img.PNG()
	if err != nil {
		s.writeErrorResponse(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == formatJSON {
		s.writeJSON(w, http.StatusOK, RenderResponse{
			Type:          img.Type,
			RequestedType: img.Requested,
			Algorithm:     img.Algorithm,
			Width:         img.Width(),
			Height:        img.Height(),
			Placeholder:   img.Placeholder,
			PNG:           data,
		})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write image response", "error", err)
	}
}

// decodeJSON reads a size-limited JSON body into v, writing the error
// response itself on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		s.writeErrorResponse(w, "Invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}
