package barcode

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"mixed", "AB12-34", "1234"},
		{"empty", "", ""},
		{"arabic-indic digits", "٠١٢", ""},
		{"fullwidth digits", "１２３", ""},
		{"whitespace", " 40 12 88 ", "401288"},
		{"letters only", "HELLO", ""},
		{"url payload", "https://example.com/card/42?x=7", "427"},
		{"already clean", "4012888888881881", "4012888888881881"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("output contains only ASCII digits", prop.ForAll(
		func(s string) bool {
			for _, r := range Sanitize(s) {
				if r < '0' || r > '9' {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("sanitize is idempotent", prop.ForAll(
		func(s string) bool {
			once := Sanitize(s)
			return Sanitize(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("digits survive in order", prop.ForAll(
		func(digits, noise string) bool {
			mixed := noise + digits + noise
			return strings.Contains(Sanitize(mixed), digits)
		},
		gen.NumString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
