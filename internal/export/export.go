// Package export writes card collections as printable PDF documents, one
// card per page.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DefaultPageSize is the paper format used when none is configured.
const DefaultPageSize = "A4"

// PageSizes lists the accepted paper formats.
var PageSizes = []string{"A4", "A5", "A6", "Letter", "Legal"}

// ErrNothingToExport is returned when the selection matches no cards.
var ErrNothingToExport = errors.New("export: no cards to export")

// Options controls an export.
type Options struct {
	PageSize  string // one of PageSizes; empty means DefaultPageSize
	Selection string // 1-based card numbers in list order, e.g. "1-3,5"; empty means all
	Password  string // encrypts the document with AES-256 when set
}

// Summary describes a finished export.
type Summary struct {
	Pages        int
	Placeholders int
}

// ValidPageSize reports whether s names a supported paper format.
func ValidPageSize(s string) bool {
	_, ok := canonicalPageSize(s)
	return ok
}

func canonicalPageSize(s string) (string, bool) {
	for _, p := range PageSizes {
		if strings.EqualFold(p, s) {
			return p, true
		}
	}
	return "", false
}

// Exporter renders cards and writes them to PDF.
type Exporter struct {
	renderer *barcode.Renderer
}

// New returns an Exporter drawing barcodes with r.
func New(r *barcode.Renderer) *Exporter {
	if r == nil {
		r = barcode.NewRenderer(nil)
	}
	return &Exporter{renderer: r}
}

// Write renders the selected records and writes a PDF to w.
func (e *Exporter) Write(ctx context.Context, w io.Writer, records []cards.Record, opts Options) (Summary, error) {
	picked, err := selectRecords(records, opts.Selection)
	if err != nil {
		return Summary{}, err
	}
	if len(picked) == 0 {
		return Summary{}, ErrNothingToExport
	}

	if opts.PageSize == "" {
		opts.PageSize = DefaultPageSize
	}
	pageSize, ok := canonicalPageSize(opts.PageSize)
	if !ok {
		return Summary{}, fmt.Errorf("export: unsupported page size %q", opts.PageSize)
	}
	imp, err := api.Import(fmt.Sprintf("f:%s, pos:c, sc:0.8 rel", pageSize), types.POINTS)
	if err != nil {
		return Summary{}, fmt.Errorf("export: import config: %w", err)
	}

	var sum Summary
	pages := make([]io.Reader, 0, len(picked))
	for _, rec := range picked {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		code := e.renderer.Render(rec.RenderRequest())
		if code.Placeholder {
			sum.Placeholders++
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, Face(rec, code), imaging.PNG); err != nil {
			return Summary{}, fmt.Errorf("export: encoding card %s: %w", rec.ID, err)
		}
		pages = append(pages, &buf)
	}

	if opts.Password == "" {
		if err := api.ImportImages(nil, w, pages, imp, nil); err != nil {
			return Summary{}, fmt.Errorf("export: building pdf: %w", err)
		}
	} else {
		var plain bytes.Buffer
		if err := api.ImportImages(nil, &plain, pages, imp, nil); err != nil {
			return Summary{}, fmt.Errorf("export: building pdf: %w", err)
		}
		if err := api.Encrypt(bytes.NewReader(plain.Bytes()), w, encryptionConfig(opts.Password)); err != nil {
			return Summary{}, fmt.Errorf("export: encrypting pdf: %w", err)
		}
	}
	sum.Pages = len(pages)
	slog.Debug("Exported cards", "pages", sum.Pages, "placeholders", sum.Placeholders,
		"page_size", pageSize, "encrypted", opts.Password != "")
	return sum, nil
}

// encryptionConfig protects a document with one password for both the user
// and the owner.
func encryptionConfig(password string) *model.Configuration {
	return model.NewAESConfiguration(password, password, 256)
}

// WriteFile exports to path, replacing it only once the PDF is complete.
func (e *Exporter) WriteFile(ctx context.Context, path string, records []cards.Record, opts Options) (Summary, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.pdf")
	if err != nil {
		return Summary{}, fmt.Errorf("export: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	sum, err := e.Write(ctx, tmp, records, opts)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("export: closing temp file: %w", cerr)
	}
	if err != nil {
		return Summary{}, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return Summary{}, fmt.Errorf("export: writing %s: %w", path, err)
	}
	return sum, nil
}

func selectRecords(records []cards.Record, sel string) ([]cards.Record, error) {
	idx, err := parseSelection(sel)
	if err != nil {
		return nil, fmt.Errorf("export: selection %q: %w", sel, err)
	}
	if idx == nil {
		return records, nil
	}
	out := make([]cards.Record, 0, len(idx))
	for _, i := range idx {
		if i > len(records) {
			return nil, fmt.Errorf("export: card %d out of range (have %d)", i, len(records))
		}
		out = append(out, records[i-1])
	}
	return out, nil
}
