package testutil

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // decoder for LoadImageFile
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// ErrNoScanner is returned for formats Scan cannot read.
var ErrNoScanner = errors.New("testutil: no scanner for format")

// scanMargin is the white border added before scanning, so symbols drawn
// without a quiet zone still decode.
const scanMargin = 16

// Scan decodes a barcode of the given format from img and returns its text.
// QR codes and Code 128 are supported.
func Scan(img image.Image, format gozxing.BarcodeFormat) (string, error) {
	var reader gozxing.Reader
	switch format {
	case gozxing.BarcodeFormat_QR_CODE:
		reader = qrcode.NewQRCodeReader()
	case gozxing.BarcodeFormat_CODE_128:
		reader = oned.NewCode128Reader()
	default:
		return "", fmt.Errorf("%w: %v", ErrNoScanner, format)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(withMargin(img))
	if err != nil {
		return "", fmt.Errorf("testutil: binarizing image: %w", err)
	}
	result, err := reader.Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("testutil: decoding %v: %w", format, err)
	}
	if got := result.GetBarcodeFormat(); got != format {
		return "", fmt.Errorf("testutil: decoded %v, want %v", got, format)
	}
	return result.GetText(), nil
}

// ScanFile decodes a barcode from an image file.
func ScanFile(path string, format gozxing.BarcodeFormat) (string, error) {
	img, err := LoadImageFile(path)
	if err != nil {
		return "", err
	}
	return Scan(img, format)
}

// RequireScan is Scan for tests.
func RequireScan(t *testing.T, img image.Image, format gozxing.BarcodeFormat) string {
	t.Helper()
	text, err := Scan(img, format)
	require.NoError(t, err)
	return text
}

func withMargin(img image.Image) image.Image {
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+2*scanMargin, b.Dy()+2*scanMargin, image.White.C)
	return imaging.Paste(canvas, img, image.Pt(scanMargin, scanMargin))
}

// LoadImage loads an image file for a test.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()
	img, err := LoadImageFile(path)
	require.NoError(t, err, "Failed to load image %s", path)
	return img
}

// LoadImageFile loads an image from the specified path.
func LoadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: test image path
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
