package barcode

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth  = 240
	placeholderHeight = 120
	placeholderLabel  = "barcode unavailable"
)

var (
	placeholderBackground = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	placeholderInk        = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

// Placeholder returns a new copy of the "unavailable" graphic: a grey card
// with stubbed bars, a strike-through and a caption. It is identical on every
// call.
func Placeholder() *image.NRGBA {
	img := imaging.New(placeholderWidth, placeholderHeight, placeholderBackground)

	// border
	for x := 0; x < placeholderWidth; x++ {
		img.Set(x, 0, placeholderInk)
		img.Set(x, placeholderHeight-1, placeholderInk)
	}
	for y := 0; y < placeholderHeight; y++ {
		img.Set(0, y, placeholderInk)
		img.Set(placeholderWidth-1, y, placeholderInk)
	}

	// bars
	bars := image.Rect(40, 20, 200, 80)
	ink := image.NewUniform(placeholderInk)
	for i, x := 0, bars.Min.X; x < bars.Max.X; i, x = i+1, x+6 {
		w := 2 + i%3
		draw.Draw(img, image.Rect(x, bars.Min.Y, x+w, bars.Max.Y), ink, image.Point{}, draw.Src)
	}

	// strike-through from bottom-left to top-right of the bar area
	dx, dy := bars.Dx(), bars.Dy()
	for i := 0; i < dx; i++ {
		y := bars.Max.Y - 1 - i*dy/dx
		for t := -1; t <= 1; t++ {
			img.Set(bars.Min.X+i, y+t, color.Black)
		}
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: face}
	textW := d.MeasureString(placeholderLabel).Round()
	d.Dot = fixed.P((placeholderWidth-textW)/2, 102)
	d.DrawString(placeholderLabel)

	return img
}
