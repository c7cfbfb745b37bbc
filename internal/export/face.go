package export

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	facePadding   = 24
	faceHeaderPx  = 40
	faceMinWidth  = 320
	faceNameLimit = 40
)

// Face composes a printable card: a header band in the card colour carrying
// the name, and the rendered barcode on a white panel below.
func Face(rec cards.Record, code barcode.RenderedImage) *image.NRGBA {
	bw, bh := code.Width(), code.Height()
	w := bw + 2*facePadding
	if w < faceMinWidth {
		w = faceMinWidth
	}
	h := faceHeaderPx + bh + 2*facePadding

	face := imaging.New(w, h, color.White)
	header := image.Rect(0, 0, w, faceHeaderPx)
	draw.Draw(face, header, image.NewUniform(opaque(rec.Color.NRGBA())), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  face,
		Src:  image.NewUniform(textColorOn(rec.Color)),
		Face: basicfont.Face7x13,
	}
	name := truncate(rec.Name, faceNameLimit)
	d.Dot = fixed.P(facePadding/2, (faceHeaderPx+basicfont.Face7x13.Ascent)/2)
	d.DrawString(name)

	return imaging.Paste(face, code.Image, image.Pt((w-bw)/2, faceHeaderPx+facePadding))
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 0xff
	return c
}

// textColorOn picks black or white for legibility on c.
func textColorOn(c cards.Color) color.Color {
	lum := (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
	if lum > 140 {
		return color.Black
	}
	return color.White
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
