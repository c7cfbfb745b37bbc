package barcode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when a textual barcode type cannot be parsed.
var ErrUnknownType = errors.New("barcode: unknown type")

// Type is the canonical barcode symbology.
type Type int

const (
	TypeCode128 Type = iota
	TypeCode39
	TypeCode93
	TypeEAN8
	TypeEAN13
	TypeUPCE
	TypePDF417
	TypeAztec
	TypeDataMatrix
	TypeQR
)

// typeNames holds the persisted text form of each type.
var typeNames = [...]string{
	TypeCode128:    "code128",
	TypeCode39:     "code39",
	TypeCode93:     "code93",
	TypeEAN8:       "ean8",
	TypeEAN13:      "ean13",
	TypeUPCE:       "upce",
	TypePDF417:     "pdf417",
	TypeAztec:      "aztec",
	TypeDataMatrix: "dataMatrix",
	TypeQR:         "qr",
}

// AllTypes returns every canonical type in declaration order.
func AllTypes() []Type {
	out := make([]Type, len(typeNames))
	for i := range typeNames {
		out[i] = Type(i)
	}
	return out
}

// Valid reports whether t is one of the canonical types.
func (t Type) Valid() bool { return t >= 0 && int(t) < len(typeNames) }

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Dimensions returns 1 for linear symbologies and 2 for matrix/stacked ones.
func (t Type) Dimensions() int {
	switch t {
	case TypePDF417, TypeAztec, TypeDataMatrix, TypeQR:
		return 2
	default:
		return 1
	}
}

// ParseType parses the text form of a type. Matching is case-insensitive and
// accepts the common dashed spellings ("ean-13", "data-matrix").
func ParseType(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	for i, name := range typeNames {
		if strings.ToLower(name) == key {
			return Type(i), nil
		}
	}
	return TypeCode128, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(typeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
