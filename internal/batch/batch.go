// Package batch renders barcode manifests: CSV files of payloads and types,
// drawn in parallel to PNG files and optionally imported as cards.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
)

// Process discovers manifests under paths, renders every entry and, when
// config.Store is set, imports the entries as cards.
func Process(ctx context.Context, renderer *barcode.Renderer, paths []string, config *Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	files, err := discoverManifests(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover manifests: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoManifests
	}

	var entries []Entry
	for _, f := range files {
		found, err := ReadManifestFile(f, config.Vocabulary)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	startTime := time.Now()
	items, err := renderEntries(ctx, renderer, entries, config.OutputDir, config.Workers)
	if err != nil {
		return nil, fmt.Errorf("batch rendering failed: %w", err)
	}
	if config.Store != nil {
		if err := importEntries(ctx, config.Store, entries, items); err != nil {
			return nil, err
		}
	}
	duration := time.Since(startTime)

	slog.Debug("Batch finished", "manifests", len(files), "entries", len(entries), "duration", duration)

	return &Result{
		Items:       items,
		Files:       files,
		Duration:    duration,
		WorkerCount: config.Workers,
	}, nil
}
