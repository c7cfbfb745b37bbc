package batch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/MeKo-Tech/cardpanda/internal/testutil"
	"github.com/makiuchi-d/gozxing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `name,payload,type
Bakery,4006381333931,ean13
Library,5551234,qr
,777,aztec
`

func quietRenderer(algs ...barcode.Algorithm) *barcode.Renderer {
	reg := barcode.DefaultRegistry().Without(algs...)
	return barcode.NewRenderer(reg, barcode.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func testConfig(out string) *Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.OutputDir = out
	return cfg
}

func TestProcessWritesImages(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "cards.csv", []byte(manifest))
	out := filepath.Join(dir, "out")

	res, err := Process(context.Background(), quietRenderer(), []string{dir}, testConfig(out))
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, []string{filepath.Join(dir, "cards.csv")}, res.Files)
	assert.Equal(t, 2, res.WorkerCount)

	assert.Equal(t, filepath.Join(out, "001-bakery.png"), res.Items[0].Output)
	assert.Equal(t, barcode.TypeCode128, res.Items[0].Type)
	assert.Equal(t, barcode.TypeEAN13, res.Items[0].Requested)
	assert.Equal(t, filepath.Join(out, "003-card.png"), res.Items[2].Output)

	text, err := testutil.ScanFile(res.Items[0].Output, gozxing.BarcodeFormat_CODE_128)
	require.NoError(t, err)
	assert.Equal(t, "4006381333931", text)

	text, err = testutil.ScanFile(res.Items[1].Output, gozxing.BarcodeFormat_QR_CODE)
	require.NoError(t, err)
	assert.Equal(t, "5551234", text)

	for _, it := range res.Items {
		assert.FileExists(t, it.Output)
		assert.Empty(t, it.CardID)
	}
}

func TestProcessWithoutOutputDir(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "cards.csv", []byte(manifest))

	res, err := Process(context.Background(), quietRenderer(), []string{dir}, testConfig(""))
	require.NoError(t, err)
	for _, it := range res.Items {
		assert.Empty(t, it.Output)
		assert.Positive(t, it.Width)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProcessImportsCards(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "cards.csv", []byte(manifest))

	store := cards.NewMemoryStore()
	cfg := testConfig("")
	cfg.Store = store

	res, err := Process(context.Background(), quietRenderer(), []string{dir}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats().Imported)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec, err := store.Get(context.Background(), res.Items[2].CardID)
	require.NoError(t, err)
	assert.Equal(t, "Card 3", rec.Name)
	assert.Equal(t, "Card 3", res.Items[2].Name)
	assert.Equal(t, barcode.TypeAztec, rec.Type)
}

func TestProcessFallbackRenders(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "cards.csv", []byte(manifest))

	res, err := Process(context.Background(), quietRenderer(barcode.AlgorithmQR, barcode.AlgorithmCode128),
		[]string{dir}, testConfig(""))
	require.NoError(t, err)

	assert.True(t, res.Items[0].Placeholder)
	assert.True(t, res.Items[1].Placeholder)
	assert.False(t, res.Items[2].Placeholder, "aztec keeps its own encoder")
	assert.Equal(t, 2, res.Stats().Placeholders)
}

func TestProcessErrors(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "empty.csv", []byte("payload\n"))
	testutil.WriteFile(t, dir, "bad/bad.csv", []byte("payload,type\n1,maxicode\n"))
	emptyDir := t.TempDir()

	_, err := Process(context.Background(), quietRenderer(), []string{emptyDir}, testConfig(""))
	require.ErrorIs(t, err, ErrNoManifests)

	_, err = Process(context.Background(), quietRenderer(), []string{filepath.Join(dir, "empty.csv")}, testConfig(""))
	require.ErrorIs(t, err, ErrNoEntries)

	_, err = Process(context.Background(), quietRenderer(), []string{filepath.Join(dir, "bad")}, testConfig(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.csv:2")

	cfg := testConfig("")
	cfg.Workers = 0
	_, err = Process(context.Background(), quietRenderer(), []string{dir}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid worker count")
}

func TestProcessCancelled(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "cards.csv", []byte(manifest))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Process(ctx, quietRenderer(), []string{dir}, testConfig(""))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Bakery":          "bakery",
		"Café Müller":     "caf-m-ller",
		"  spaced  out  ": "spaced-out",
		"":                "card",
		"!!!":             "card",
		"A1 & B2":         "a1-b2",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), "slug(%q)", in)
	}
}
