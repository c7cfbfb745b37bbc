package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/capture"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client message types on /capture.
const (
	msgDetection = "detection"
	msgSave      = "save"
	msgStop      = "stop"
)

// CaptureMessage is a client message on /capture.
//
//	{"type":"detection","payload":"4006381333931","raw_type":"org.gs1.EAN-13","vocabulary":"live-metadata"}
//	{"type":"save","name":"Bakery","color":"#ff8800ff"}
//	{"type":"stop"}
type CaptureMessage struct {
	Type       string `json:"type"`
	Payload    string `json:"payload,omitempty"`
	RawType    string `json:"raw_type,omitempty"`
	Vocabulary string `json:"vocabulary,omitempty"`
	Name       string `json:"name,omitempty"`
	Color      string `json:"color,omitempty"`
}

// CaptureResponse is a server message on /capture.
type CaptureResponse struct {
	Type      string                   `json:"type"`   // "session", "detection", "saved", "error"
	Status    string                   `json:"status"` // "scanning", "accepted", "ignored", "stopped", "error"
	Barcode   *capture.CapturedBarcode `json:"barcode,omitempty"`
	Card      *cards.Record            `json:"card,omitempty"`
	Error     string                   `json:"error,omitempty"`
	ErrorType string                   `json:"error_type,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// captureState is the per-connection capture state. Messages on one
// connection are handled in order, so it needs no lock.
type captureState struct {
	session *capture.Session
	saved   *cards.Record
}

func newCaptureState(session *capture.Session) *captureState {
	return &captureState{session: session}
}

// lockedWriter serializes writes from the read loop and the ping goroutine.
type lockedWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *lockedWriter) WriteMessage(messageType int, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return l.conn.WriteMessage(messageType, data)
}

// captureWebSocketHandler runs one capture session per connection.
func (s *Server) captureWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	src, err := sourceFromQuery(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("Capture session connected", "remote_addr", r.RemoteAddr, "source", src)

	s.handleCaptureConnection(r.Context(), conn, newCaptureState(capture.NewSession(src)))
}

// handleCaptureConnection reads client messages until the client leaves or
// sends stop.
func (s *Server) handleCaptureConnection(ctx context.Context, conn *websocket.Conn, state *captureState) {
	session := state.session
	out := &lockedWriter{conn: conn}
	done := make(chan struct{})
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				// Server shutdown; unblock the reader below.
				out.mu.Lock()
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteTimeout))
				out.mu.Unlock()
				_ = conn.Close()
				return
			case <-ticker.C:
				out.mu.Lock()
				err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsWriteTimeout))
				out.mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	if err := session.Start(); err != nil {
		s.sendCaptureError(out, "session_error", err.Error())
		return
	}
	defer session.Stop()
	s.sendCaptureResponse(out, CaptureResponse{Type: "session", Status: "scanning"})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType != websocket.TextMessage {
			continue
		}
		if stop := s.handleCaptureMessage(ctx, out, state, data); stop {
			return
		}
	}
}

// handleCaptureMessage processes one client message and reports whether the
// connection should end.
func (s *Server) handleCaptureMessage(ctx context.Context, out WebSocketConnWriter, state *captureState, data []byte) bool {
	var msg CaptureMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendCaptureError(out, "invalid_request", fmt.Sprintf("Failed to parse message: %v", err))
		return false
	}

	switch msg.Type {
	case msgDetection:
		s.handleDetection(out, state.session, msg)
	case msgSave:
		s.handleSave(ctx, out, state, msg)
	case msgStop:
		state.session.Stop()
		s.sendCaptureResponse(out, CaptureResponse{Type: "session", Status: "stopped"})
		return true
	default:
		s.sendCaptureError(out, "invalid_request", "Unsupported message type: "+msg.Type)
	}
	return false
}

func (s *Server) handleDetection(out WebSocketConnWriter, session *capture.Session, msg CaptureMessage) {
	vocab := barcode.VocabularyLiveMetadata
	if session.Source() == capture.SourceStillImage {
		vocab = barcode.VocabularyClassification
	}
	if msg.Vocabulary != "" {
		v, err := barcode.ParseVocabulary(msg.Vocabulary)
		if err != nil {
			captureEventsTotal.WithLabelValues("rejected").Inc()
			s.sendCaptureError(out, "invalid_request", err.Error())
			return
		}
		vocab = v
	}

	result, accepted, err := session.Offer(capture.Event{
		Payload:    msg.Payload,
		RawType:    msg.RawType,
		Vocabulary: vocab,
	})
	if err != nil {
		captureEventsTotal.WithLabelValues("rejected").Inc()
		s.sendCaptureError(out, "session_error", err.Error())
		return
	}

	status := "ignored"
	if accepted {
		status = "accepted"
		slog.Info("Barcode captured", "type", result.Type, "raw_type", msg.RawType, "source", result.Source)
	}
	captureEventsTotal.WithLabelValues(status).Inc()
	s.sendCaptureResponse(out, CaptureResponse{Type: msgDetection, Status: status, Barcode: &result})
}

// handleSave creates at most one card per session. Later saves are answered
// with the card already created.
func (s *Server) handleSave(ctx context.Context, out WebSocketConnWriter, state *captureState, msg CaptureMessage) {
	if state.saved != nil {
		s.sendCaptureResponse(out, CaptureResponse{Type: "saved", Status: "ignored", Card: state.saved})
		return
	}

	result, ok := state.session.Result()
	if !ok {
		s.sendCaptureError(out, "invalid_request", "nothing captured yet")
		return
	}

	var col *cards.Color
	if msg.Color != "" {
		c, err := cards.ParseColor(msg.Color)
		if err != nil {
			s.sendCaptureError(out, "invalid_request", err.Error())
			return
		}
		col = &c
	}

	rec, err := s.store.Create(ctx, cards.DraftFromCapture(result, msg.Name, col))
	if err != nil {
		s.sendCaptureError(out, "store_error", err.Error())
		return
	}
	state.saved = &rec
	slog.Info("Card created from capture", "id", rec.ID, "type", rec.Type)
	s.sendCaptureResponse(out, CaptureResponse{Type: "saved", Status: "accepted", Card: &rec})
}

// sendCaptureResponse sends a response message over WebSocket.
func (s *Server) sendCaptureResponse(conn WebSocketConnWriter, response CaptureResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendCaptureError sends an error message over WebSocket.
func (s *Server) sendCaptureError(conn WebSocketConnWriter, errorType, message string) {
	s.sendCaptureResponse(conn, CaptureResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
