package barcode

import (
	"image"
	"testing"

	"github.com/MeKo-Tech/cardpanda/internal/testutil"
	"github.com/makiuchi-d/gozxing"
	"github.com/stretchr/testify/require"
)

// zxingFormat maps the effective type to the format gozxing reports.
func zxingFormat(ty Type) gozxing.BarcodeFormat {
	switch ty {
	case TypeQR:
		return gozxing.BarcodeFormat_QR_CODE
	case TypeAztec:
		return gozxing.BarcodeFormat_AZTEC
	case TypePDF417:
		return gozxing.BarcodeFormat_PDF_417
	case TypeDataMatrix:
		return gozxing.BarcodeFormat_DATA_MATRIX
	default:
		return gozxing.BarcodeFormat_CODE_128
	}
}

// scan decodes a rendered image and returns its text. Only QR and Code 128
// can be scanned back.
func scan(t *testing.T, img image.Image, res RenderedImage) string {
	t.Helper()
	require.Contains(t, []Algorithm{AlgorithmQR, AlgorithmCode128}, res.Algorithm, "no scanner for %s", res.Algorithm)
	return testutil.RequireScan(t, img, zxingFormat(res.Type))
}
