package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Item is the outcome for one entry.
type Item struct {
	Source      string            `json:"source"`
	Line        int               `json:"line"`
	Name        string            `json:"name,omitempty"`
	Payload     string            `json:"payload"`
	Requested   barcode.Type      `json:"requested_type"`
	Type        barcode.Type      `json:"type"`
	Algorithm   barcode.Algorithm `json:"algorithm"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Placeholder bool              `json:"placeholder"`
	Output      string            `json:"output,omitempty"`
	CardID      string            `json:"card_id,omitempty"`
}

// renderEntries renders entries with at most workers goroutines. Items keep
// entry order; the first write error cancels the rest.
func renderEntries(ctx context.Context, r *barcode.Renderer, entries []Entry, outDir string, workers int) ([]Item, error) {
	items := make([]Item, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img := r.Render(barcode.RenderRequest{Payload: e.Payload, Type: e.Type})

			item := Item{
				Source:      e.Source,
				Line:        e.Line,
				Name:        e.Name,
				Payload:     e.Payload,
				Requested:   img.Requested,
				Type:        img.Type,
				Algorithm:   img.Algorithm,
				Width:       img.Width(),
				Height:      img.Height(),
				Placeholder: img.Placeholder,
			}
			if outDir != "" {
				item.Output = filepath.Join(outDir, outputName(i, e))
				if err := imaging.Save(img.Image, item.Output); err != nil {
					return fmt.Errorf("failed to write %s: %w", item.Output, err)
				}
			}
			if img.Degraded() {
				slog.Debug("Entry rendered degraded", "source", e.Source, "line", e.Line,
					"requested", img.Requested.String(), "effective", img.Type.String(), "placeholder", img.Placeholder)
			}
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// importEntries creates one card per entry, in order, so default names
// follow the manifest.
func importEntries(ctx context.Context, store cards.Store, entries []Entry, items []Item) error {
	for i, e := range entries {
		rec, err := store.Create(ctx, e.Draft())
		if err != nil {
			return fmt.Errorf("%s:%d: failed to import card: %w", e.Source, e.Line, err)
		}
		items[i].CardID = rec.ID
		if items[i].Name == "" {
			items[i].Name = rec.Name
		}
	}
	return nil
}

// outputName is "NNN-slug.png", numbered from 1.
func outputName(i int, e Entry) string {
	return fmt.Sprintf("%03d-%s.png", i+1, slug(e.Name))
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "card"
	}
	return s
}
