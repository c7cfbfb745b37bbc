package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
)

// Config holds all configuration for manifest processing.
type Config struct {
	// Rendering settings
	Workers    int
	OutputDir  string // PNGs are written here; empty renders without writing
	Vocabulary barcode.Vocabulary

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Store receives one card per entry when set.
	Store cards.Store
}

// DefaultConfig returns a config with one worker per CPU that picks up
// *.csv files.
func DefaultConfig() *Config {
	return &Config{
		Workers:         runtime.NumCPU(),
		Vocabulary:      barcode.VocabularyLiveMetadata,
		IncludePatterns: []string{"*.csv"},
	}
}

// Validate checks the worker count.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d (must be at least 1)", c.Workers)
	}
	return nil
}

// Result holds the outcome of a batch run, in manifest order.
type Result struct {
	Items       []Item
	Files       []string
	Duration    time.Duration
	WorkerCount int
}

// Stats summarises a batch run.
type Stats struct {
	Entries      int
	Files        int
	Substituted  int
	Placeholders int
	Imported     int
}

// Stats counts degraded renders and imported cards.
func (r *Result) Stats() Stats {
	s := Stats{Entries: len(r.Items), Files: len(r.Files)}
	for _, it := range r.Items {
		switch {
		case it.Placeholder:
			s.Placeholders++
		case it.Type != it.Requested:
			s.Substituted++
		}
		if it.CardID != "" {
			s.Imported++
		}
	}
	return s
}

// FormatResults formats the items in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Items, format)
}

// SaveResults writes the formatted results to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile == "" {
		_, err = io.WriteString(w, output)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	s := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Manifests: %d\n", s.Files)
	_, _ = fmt.Fprintf(w, "  Entries: %d\n", s.Entries)
	_, _ = fmt.Fprintf(w, "  Substituted: %d\n", s.Substituted)
	_, _ = fmt.Fprintf(w, "  Placeholders: %d\n", s.Placeholders)
	_, _ = fmt.Fprintf(w, "  Imported: %d\n", s.Imported)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
}

var (
	// ErrNoManifests is returned when discovery finds no files.
	ErrNoManifests = errors.New("batch: no manifest files found")
	// ErrNoEntries is returned when the manifests hold no rows.
	ErrNoEntries = errors.New("batch: no entries found")
)
