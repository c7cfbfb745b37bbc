// Package cards stores loyalty card records: a display name, a colour and the
// barcode payload/type pair that gets rendered at display time.
package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/capture"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNotFound is returned when no card has the requested ID.
	ErrNotFound = errors.New("cards: not found")
	// ErrInvalid is returned for records that cannot be stored.
	ErrInvalid = errors.New("cards: invalid record")
)

// Record is a stored card.
type Record struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Payload   string       `json:"payload" yaml:"payload"`
	Type      barcode.Type `json:"type" yaml:"type"`
	Color     Color        `json:"color" yaml:"color"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
}

// RenderRequest returns the request used to draw the card's barcode.
func (r Record) RenderRequest() barcode.RenderRequest {
	return barcode.RenderRequest{Payload: r.Payload, Type: r.Type}
}

// Draft is the caller-supplied part of a new record. An empty Name becomes
// "Card N" and a nil Color becomes DefaultColor.
type Draft struct {
	Name    string
	Payload string
	Type    barcode.Type
	Color   *Color
}

// DraftFromCapture builds a draft from an accepted detection.
func DraftFromCapture(c capture.CapturedBarcode, name string, col *Color) Draft {
	return Draft{Name: name, Payload: c.Payload, Type: c.Type, Color: col}
}

// Store persists card records. Implementations are safe for concurrent use.
type Store interface {
	Create(ctx context.Context, d Draft) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Update(ctx context.Context, r Record) (Record, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// NormalizeName trims and NFC-normalizes a display name.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// DefaultName is the name given to the n-th card when none is supplied.
func DefaultName(n int) string { return fmt.Sprintf("Card %d", n) }

func validate(payload string, t barcode.Type) error {
	if strings.TrimSpace(payload) == "" {
		return fmt.Errorf("%w: empty payload", ErrInvalid)
	}
	if !t.Valid() {
		return fmt.Errorf("%w: type %v", ErrInvalid, t)
	}
	return nil
}

// newRecord fills in defaults for a draft; existing is the current card count.
func newRecord(d Draft, id string, existing int, now time.Time) (Record, error) {
	if err := validate(d.Payload, d.Type); err != nil {
		return Record{}, err
	}
	name := NormalizeName(d.Name)
	if name == "" {
		name = DefaultName(existing + 1)
	}
	col := DefaultColor
	if d.Color != nil {
		col = *d.Color
	}
	return Record{
		ID:        id,
		Name:      name,
		Payload:   d.Payload,
		Type:      d.Type,
		Color:     col,
		CreatedAt: now.UTC(),
	}, nil
}
