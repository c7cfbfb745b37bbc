package barcode

import "strings"

// Sanitize keeps only the ASCII decimal digits of raw.
//
// It runs before every encoder, including the alphanumeric-capable 2-D ones,
// so "https://x.io/42" renders as "42". Other Unicode digits are dropped too.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
