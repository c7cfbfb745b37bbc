// Package capture turns detection events from the camera or photo pipeline
// into canonical captured barcodes.
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
)

var (
	// ErrSessionNotStarted is returned by Offer before Start.
	ErrSessionNotStarted = errors.New("capture: session not started")
	// ErrSessionClosed is returned by Start and Offer once a session has
	// accepted a detection or been stopped.
	ErrSessionClosed = errors.New("capture: session closed")
)

// Source says where a detection came from.
type Source int

const (
	SourceLiveCamera Source = iota + 1
	SourceStillImage
)

func (s Source) String() string {
	switch s {
	case SourceLiveCamera:
		return "live-camera"
	case SourceStillImage:
		return "still-image"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// ParseSource parses "live-camera" or "still-image".
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live-camera", "live", "camera":
		return SourceLiveCamera, nil
	case "still-image", "still", "photo", "image":
		return SourceStillImage, nil
	default:
		return 0, fmt.Errorf("capture: unknown source %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(b []byte) error {
	v, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Event is a single detection as reported by a detector.
type Event struct {
	Payload    string
	RawType    string
	Vocabulary barcode.Vocabulary
}

// CapturedBarcode is an accepted detection with its canonical type.
type CapturedBarcode struct {
	Payload string       `json:"payload" yaml:"payload"`
	Type    barcode.Type `json:"type" yaml:"type"`
	Source  Source       `json:"source" yaml:"source"`
}

// FromEvent normalizes ev. It is pure and may be called any number of times.
func FromEvent(ev Event, src Source) CapturedBarcode {
	return CapturedBarcode{
		Payload: ev.Payload,
		Type:    barcode.Normalize(ev.RawType, ev.Vocabulary),
		Source:  src,
	}
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateScanning
	stateAccepted
	stateStopped
)

// Session accepts the first detection offered while it is scanning and
// ignores the rest. It is safe for concurrent use.
type Session struct {
	source Source

	mu     sync.Mutex
	state  sessionState
	result CapturedBarcode
	done   chan struct{}
}

// NewSession returns an idle session for src.
func NewSession(src Source) *Session {
	return &Session{source: src, done: make(chan struct{})}
}

// Source returns the session's capture source.
func (s *Session) Source() Source { return s.source }

// Start begins scanning. Starting a scanning session is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateIdle:
		s.state = stateScanning
		return nil
	case stateScanning:
		return nil
	default:
		return ErrSessionClosed
	}
}

// Stop ends the session without a result. Stopping twice is harmless.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateIdle || s.state == stateScanning {
		s.state = stateStopped
		close(s.done)
	}
}

// Offer hands a detection to the session. The first detection offered to a
// scanning session is normalized, stored and returned with accepted true;
// later ones return the stored result with accepted false.
func (s *Session) Offer(ev Event) (CapturedBarcode, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateIdle:
		return CapturedBarcode{}, false, ErrSessionNotStarted
	case stateStopped:
		return CapturedBarcode{}, false, ErrSessionClosed
	case stateAccepted:
		return s.result, false, nil
	}

	s.result = FromEvent(ev, s.source)
	s.state = stateAccepted
	close(s.done)
	return s.result, true, nil
}

// Result returns the accepted detection, if any.
func (s *Session) Result() (CapturedBarcode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.state == stateAccepted
}

// Done is closed once the session accepts a detection or is stopped.
func (s *Session) Done() <-chan struct{} { return s.done }
