package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/cardpanda/internal/testutil"
	"github.com/makiuchi-d/gozxing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchManifest = `name,payload,type,raw_type
Bakery,4006381333931,ean13,
Library,5551234,,org.iso.QRCode
`

func TestBatchCommand(t *testing.T) {
	dir := isolate(t)
	manifest := testutil.WriteFile(t, dir, "cards.csv", []byte(batchManifest))
	outDir := filepath.Join(dir, "out")

	out, _, err := execute(t, "batch", manifest, "-o", outDir, "--format", "json", "--workers", "2")
	require.NoError(t, err)

	var doc struct {
		Items []struct {
			Name      string `json:"name"`
			Requested string `json:"requested_type"`
			Type      string `json:"type"`
			Output    string `json:"output"`
		} `json:"items"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, 2, doc.Count)
	assert.Equal(t, "ean13", doc.Items[0].Requested)
	assert.Equal(t, "code128", doc.Items[0].Type)
	assert.Equal(t, filepath.Join(outDir, "002-library.png"), doc.Items[1].Output)

	text, err := testutil.ScanFile(doc.Items[1].Output, gozxing.BarcodeFormat_QR_CODE)
	require.NoError(t, err)
	assert.Equal(t, "5551234", text)
}

func TestBatchImport(t *testing.T) {
	dir := isolate(t)
	manifest := testutil.WriteFile(t, dir, "cards.csv", []byte(batchManifest))

	_, stderr, err := execute(t, "batch", manifest, "--import", "--no-images", "--stats")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Imported: 2")
	assert.NoDirExists(t, filepath.Join(dir, "barcodes"))

	out, _, err := execute(t, "card", "list", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"count": 2`)
	assert.Contains(t, out, `"name": "Library"`)
}

func TestBatchResultsFile(t *testing.T) {
	dir := isolate(t)
	manifest := testutil.WriteFile(t, dir, "cards.csv", []byte(batchManifest))
	results := filepath.Join(dir, "results.csv")

	out, _, err := execute(t, "batch", manifest, "--no-images", "--format", "csv", "--results", results)
	require.NoError(t, err)
	assert.Contains(t, out, "Results written to "+results)
	assert.FileExists(t, results)
}

func TestBatchCommandErrors(t *testing.T) {
	dir := isolate(t)
	manifest := testutil.WriteFile(t, dir, "cards.csv", []byte(batchManifest))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", []string{"batch"}, "requires at least 1 arg"},
		{"bad format", []string{"batch", manifest, "--format", "xml"}, "invalid format"},
		{"bad workers", []string{"batch", manifest, "--workers", "0"}, "invalid worker count"},
		{"bad vocabulary", []string{"batch", manifest, "--vocabulary", "other"}, "invalid --vocabulary"},
		{"missing file", []string{"batch", filepath.Join(dir, "nope.csv")}, "cannot access"},
		{"empty dir", []string{"batch", t.TempDir()}, "no manifest files found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
