package barcode

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	bc "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/aztec"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/boombuler/barcode/pdf417"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
)

const (
	// Linear symbols are drawn 32 modules tall with a 7 module quiet zone.
	linearBarHeight = 32
	linearQuietZone = 7

	qrQuietZone     = 4
	matrixQuietZone = 2

	aztecMinECCPercent  = 33
	pdf417SecurityLevel = 2
)

type qrEncoder struct{}

func (qrEncoder) Encode(content []byte, p Params) (image.Image, error) {
	level, err := qrLevel(p.CorrectionLevel)
	if err != nil {
		return nil, err
	}
	code, err := qr.Encode(string(content), level, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	return rasterize(code, qrQuietZone, 0), nil
}

func qrLevel(s string) (qr.ErrorCorrectionLevel, error) {
	switch strings.ToUpper(s) {
	case "L":
		return qr.L, nil
	case "", "M":
		return qr.M, nil
	case "Q":
		return qr.Q, nil
	case "H":
		return qr.H, nil
	default:
		return qr.M, fmt.Errorf("qr: invalid correction level %q", s)
	}
}

type aztecEncoder struct{}

func (aztecEncoder) Encode(content []byte, p Params) (image.Image, error) {
	code, err := aztec.Encode(content, aztecMinECCPercent, p.Layers)
	if err != nil {
		return nil, fmt.Errorf("aztec: %w", err)
	}
	return rasterize(code, matrixQuietZone, 0), nil
}

type pdf417Encoder struct{}

func (pdf417Encoder) Encode(content []byte, _ Params) (image.Image, error) {
	code, err := pdf417.Encode(string(content), pdf417SecurityLevel)
	if err != nil {
		return nil, fmt.Errorf("pdf417: %w", err)
	}
	return rasterize(code, matrixQuietZone, 0), nil
}

type dataMatrixEncoder struct{}

func (dataMatrixEncoder) Encode(content []byte, _ Params) (image.Image, error) {
	code, err := datamatrix.Encode(string(content))
	if err != nil {
		return nil, fmt.Errorf("datamatrix: %w", err)
	}
	return rasterize(code, matrixQuietZone, 0), nil
}

type code128Encoder struct{}

func (code128Encoder) Encode(content []byte, _ Params) (image.Image, error) {
	code, err := code128.Encode(string(content))
	if err != nil {
		return nil, fmt.Errorf("code128: %w", err)
	}
	return rasterize(code, linearQuietZone, linearBarHeight), nil
}

// rasterize copies a symbol onto a white canvas at one pixel per module.
// A non-zero barHeight stretches single-row (linear) symbols vertically.
func rasterize(code bc.Barcode, quiet, barHeight int) image.Image {
	b := code.Bounds()
	w, h := b.Dx(), b.Dy()
	linear := barHeight > 0 && h == 1
	if linear {
		h = barHeight
	}
	if w <= 0 || h <= 0 {
		return nil
	}

	dst := imaging.New(w+2*quiet, h+2*quiet, color.White)
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y
		if linear {
			sy = b.Min.Y
		}
		for x := 0; x < w; x++ {
			if isDark(code.At(b.Min.X+x, sy)) {
				dst.Set(quiet+x, quiet+y, color.Black)
			}
		}
	}
	return dst
}

func isDark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}
