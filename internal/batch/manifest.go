package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
)

// Manifest columns. payload is required; type or raw_type picks the
// symbology and a row with neither gets the default type.
const (
	colName       = "name"
	colPayload    = "payload"
	colType       = "type"
	colRawType    = "raw_type"
	colVocabulary = "vocabulary"
	colColor      = "color"
)

var knownColumns = []string{colName, colPayload, colType, colRawType, colVocabulary, colColor}

// Entry is one manifest row.
type Entry struct {
	Source  string
	Line    int
	Name    string
	Payload string
	Type    barcode.Type
	Color   *cards.Color
}

// Draft returns the new-card draft for the entry.
func (e Entry) Draft() cards.Draft {
	return cards.Draft{Name: e.Name, Payload: e.Payload, Type: e.Type, Color: e.Color}
}

// ReadManifestFile reads a manifest from disk.
func ReadManifestFile(path string, vocab barcode.Vocabulary) ([]Entry, error) {
	f, err := os.Open(path) //nolint:gosec // manifest paths come from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadManifest(f, path, vocab)
}

// ReadManifest parses CSV with a header row. Lines starting with # are
// comments. Raw types without a vocabulary column use vocab.
func ReadManifest(r io.Reader, source string, vocab barcode.Vocabulary) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)

		e, err := parseEntry(rec, cols, vocab)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, line, err)
		}
		e.Source = source
		e.Line = line
		entries = append(entries, e)
	}
	return entries, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if !slices.Contains(knownColumns, h) {
			return nil, fmt.Errorf("unknown column %q", h)
		}
		if _, dup := cols[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		cols[h] = i
	}
	if _, ok := cols[colPayload]; !ok {
		return nil, errors.New("missing payload column")
	}
	return cols, nil
}

func parseEntry(rec []string, cols map[string]int, vocab barcode.Vocabulary) (Entry, error) {
	field := func(name string) string {
		if i, ok := cols[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	e := Entry{
		Name:    field(colName),
		Payload: field(colPayload),
		Type:    barcode.DefaultType,
	}

	switch typ, raw := field(colType), field(colRawType); {
	case typ != "" && raw != "":
		return Entry{}, errors.New("type and raw_type are mutually exclusive")
	case typ != "":
		t, err := barcode.ParseType(typ)
		if err != nil {
			return Entry{}, err
		}
		e.Type = t
	case raw != "":
		v := vocab
		if s := field(colVocabulary); s != "" {
			parsed, err := barcode.ParseVocabulary(s)
			if err != nil {
				return Entry{}, err
			}
			v = parsed
		}
		e.Type = barcode.Normalize(raw, v)
	}

	if s := field(colColor); s != "" {
		c, err := cards.ParseColor(s)
		if err != nil {
			return Entry{}, err
		}
		e.Color = &c
	}
	return e, nil
}
