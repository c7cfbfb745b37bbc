package cards

import (
	"fmt"
	"image/color"
	"strings"
)

// Color is an 8-bit-per-channel, non-premultiplied RGBA card colour.
type Color struct {
	R, G, B, A uint8
}

// DefaultColor is used for cards created without an explicit colour.
var DefaultColor = Color{R: 0x4a, G: 0x90, B: 0xe2, A: 0xff}

// ParseColor parses "#RRGGBB" or "#RRGGBBAA" (the leading '#' is optional).
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c Color
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return Color{}, fmt.Errorf("cards: invalid colour %q: %w", s, err)
		}
		c.A = 0xff
	case 8:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return Color{}, fmt.Errorf("cards: invalid colour %q: %w", s, err)
		}
	default:
		return Color{}, fmt.Errorf("cards: invalid colour %q: want RRGGBB or RRGGBBAA", s)
	}
	return c, nil
}

// Hex formats the colour as "#rrggbbaa".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) String() string { return c.Hex() }

// NRGBA converts to the standard library colour type.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
