package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/capture"
	"github.com/MeKo-Tech/cardpanda/internal/config"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
	stdoutPath = "-"
)

func typeNames() string {
	names := make([]string, 0, len(barcode.AllTypes()))
	for _, t := range barcode.AllTypes() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

// addTypeFlags registers --type, --raw-type and --vocabulary.
func addTypeFlags(c *cobra.Command) {
	c.Flags().StringP("type", "t", "", "barcode type ("+typeNames()+")")
	c.Flags().String("raw-type", "", "detector symbology identifier, normalized instead of --type")
	c.Flags().String("vocabulary", "", "vocabulary of --raw-type: live-metadata or classification")
	c.MarkFlagsMutuallyExclusive("type", "raw-type")
	c.MarkFlagsOneRequired("type", "raw-type")
}

// capturedFromFlags resolves payload and its canonical type from --type or
// --raw-type. A raw type from a still image defaults to the classification
// vocabulary, anything else to live metadata.
func capturedFromFlags(cmd *cobra.Command, payload string, src capture.Source) (capture.CapturedBarcode, error) {
	typeName, _ := cmd.Flags().GetString("type")
	rawType, _ := cmd.Flags().GetString("raw-type")

	switch {
	case typeName != "":
		t, err := barcode.ParseType(typeName)
		if err != nil {
			return capture.CapturedBarcode{}, fmt.Errorf("invalid --type: %w", err)
		}
		return capture.CapturedBarcode{Payload: payload, Type: t, Source: src}, nil
	case rawType != "":
		fallback := barcode.VocabularyLiveMetadata
		if src == capture.SourceStillImage {
			fallback = barcode.VocabularyClassification
		}
		vocab, err := vocabularyFlag(cmd, fallback)
		if err != nil {
			return capture.CapturedBarcode{}, err
		}
		ev := capture.Event{Payload: payload, RawType: rawType, Vocabulary: vocab}
		return capture.FromEvent(ev, src), nil
	default:
		return capture.CapturedBarcode{}, errors.New("one of --type or --raw-type is required")
	}
}

func vocabularyFlag(cmd *cobra.Command, fallback barcode.Vocabulary) (barcode.Vocabulary, error) {
	s, _ := cmd.Flags().GetString("vocabulary")
	if s == "" {
		return fallback, nil
	}
	v, err := barcode.ParseVocabulary(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --vocabulary: %w", err)
	}
	return v, nil
}

// reportFormat returns render.format, overridden by --format.
func reportFormat(cmd *cobra.Command, cfg *config.Config) (string, error) {
	format := cfg.Render.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	switch format {
	case formatText, formatJSON:
		return format, nil
	case "":
		return formatText, nil
	default:
		return "", fmt.Errorf("invalid format %q (must be text or json)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportWriter is where human-readable output goes when path may be stdout.
func reportWriter(cmd *cobra.Command, path string) io.Writer {
	if path == stdoutPath {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

// writeImage writes img as PNG to path, or to stdout for "-".
func writeImage(cmd *cobra.Command, img barcode.RenderedImage, path string) error {
	if path == stdoutPath {
		return img.WritePNG(cmd.OutOrStdout())
	}
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return fmt.Errorf("output file must have a .png extension: %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(img.Image, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// renderReport describes a finished render.
type renderReport struct {
	Payload       string            `json:"payload"`
	Encoded       string            `json:"encoded"`
	RequestedType barcode.Type      `json:"requested_type"`
	Type          barcode.Type      `json:"type"`
	Algorithm     barcode.Algorithm `json:"algorithm"`
	Scale         int               `json:"scale"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	Placeholder   bool              `json:"placeholder"`
	Output        string            `json:"output"`
}

func newRenderReport(payload string, img barcode.RenderedImage, output string) renderReport {
	return renderReport{
		Payload:       payload,
		Encoded:       barcode.Sanitize(payload),
		RequestedType: img.Requested,
		Type:          img.Type,
		Algorithm:     img.Algorithm,
		Scale:         img.Scale,
		Width:         img.Width(),
		Height:        img.Height(),
		Placeholder:   img.Placeholder,
		Output:        output,
	}
}

func printRenderReport(w io.Writer, format string, r renderReport) error {
	if format == formatJSON {
		return writeJSON(w, r)
	}

	typeLine := r.Type.String()
	if r.Type != r.RequestedType {
		typeLine += fmt.Sprintf(" (requested %s)", r.RequestedType)
	}
	_, _ = fmt.Fprintf(w, "Type: %s\n", typeLine)
	_, _ = fmt.Fprintf(w, "Algorithm: %s (scale %d)\n", r.Algorithm, r.Scale)
	_, _ = fmt.Fprintf(w, "Encoded: %q\n", r.Encoded)
	_, _ = fmt.Fprintf(w, "Size: %dx%d\n", r.Width, r.Height)
	if r.Placeholder {
		_, _ = fmt.Fprintln(w, "Placeholder: yes (no usable encoder output)")
	}
	if r.Output != stdoutPath {
		_, _ = fmt.Fprintf(w, "Output: %s\n", r.Output)
	}
	return nil
}
