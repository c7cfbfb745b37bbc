package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/MeKo-Tech/cardpanda/internal/export"
)

// cardsHandler lists (GET) and creates (POST) cards.
func (s *Server) cardsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.store.List(r.Context())
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, CardsResponse{Cards: list, Count: len(list)})

	case http.MethodPost:
		var req CardRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		draft, err := req.draft()
		if err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := s.store.Create(r.Context(), draft)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		slog.Info("Card created", "id", rec.ID, "type", rec.Type)
		w.Header().Set("Location", "/cards/"+rec.ID)
		s.writeJSON(w, http.StatusCreated, rec)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// cardHandler reads, replaces and deletes a single card.
func (s *Server) cardHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		rec, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, rec)

	case http.MethodPut:
		var req CardRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		cur, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		draft, err := req.draft()
		if err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		cur.Name = draft.Name
		cur.Payload = draft.Payload
		cur.Type = draft.Type
		if draft.Color != nil {
			cur.Color = *draft.Color
		}
		rec, err := s.store.Update(r.Context(), cur)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, rec)

	case http.MethodDelete:
		if err := s.store.Delete(r.Context(), id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		slog.Info("Card deleted", "id", id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// cardBarcodeHandler renders a stored card.
func (s *Server) cardBarcodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeRendered(w, r, s.render(rec.RenderRequest()))
}

// exportHandler returns every card (or ?pages=1-3) as a PDF.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	list, err := s.store.List(ctx)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	opts := export.Options{
		PageSize:  r.URL.Query().Get("page_size"),
		Selection: r.URL.Query().Get("pages"),
	}
	if opts.PageSize == "" {
		opts.PageSize = s.pageSize
	}

	var buf bytes.Buffer
	sum, err := s.exporter.Write(ctx, &buf, list, opts)
	switch {
	case errors.Is(err, export.ErrNothingToExport):
		s.writeErrorResponse(w, "no cards to export", http.StatusNotFound)
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.writeErrorResponse(w, "export timed out", http.StatusGatewayTimeout)
		return
	case err != nil:
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	exportPagesTotal.Add(float64(sum.Pages))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="cards.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write export response", "error", err)
	}
}

// draft validates the request fields that the store does not check itself.
func (req CardRequest) draft() (cards.Draft, error) {
	t, err := barcode.ParseType(req.Type)
	if err != nil {
		return cards.Draft{}, err
	}
	d := cards.Draft{Name: req.Name, Payload: req.Payload, Type: t}
	if req.Color != "" {
		c, err := cards.ParseColor(req.Color)
		if err != nil {
			return cards.Draft{}, err
		}
		d.Color = &c
	}
	return d, nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cards.ErrNotFound):
		s.writeErrorResponse(w, "card not found", http.StatusNotFound)
	case errors.Is(err, cards.ErrInvalid):
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Card store failure", "error", err)
		s.writeErrorResponse(w, fmt.Sprintf("card store failure: %v", err), http.StatusInternalServerError)
	}
}
