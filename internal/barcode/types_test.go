package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAllTypes(t *testing.T) {
	types := AllTypes()
	assert.Len(t, types, 10)
	seen := map[string]bool{}
	for _, ty := range types {
		assert.True(t, ty.Valid())
		assert.False(t, seen[ty.String()], "duplicate name %s", ty)
		seen[ty.String()] = true
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"code128", TypeCode128},
		{"Code-128", TypeCode128},
		{"code39", TypeCode39},
		{"code93", TypeCode93},
		{"ean8", TypeEAN8},
		{"EAN-13", TypeEAN13},
		{"upce", TypeUPCE},
		{"upc-e", TypeUPCE},
		{"pdf417", TypePDF417},
		{"aztec", TypeAztec},
		{"dataMatrix", TypeDataMatrix},
		{"data-matrix", TypeDataMatrix},
		{" qr ", TypeQR},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseType("maxicode")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestTypeStringRoundTrip(t *testing.T) {
	for _, ty := range AllTypes() {
		got, err := ParseType(ty.String())
		require.NoError(t, err)
		assert.Equal(t, ty, got)
	}
	assert.Equal(t, "Type(42)", Type(42).String())
	assert.False(t, Type(-1).Valid())
}

func TestTypeDimensions(t *testing.T) {
	assert.Equal(t, 2, TypeQR.Dimensions())
	assert.Equal(t, 2, TypePDF417.Dimensions())
	assert.Equal(t, 1, TypeEAN13.Dimensions())
	assert.Equal(t, 1, TypeCode128.Dimensions())
}

func TestTypeYAML(t *testing.T) {
	type doc struct {
		Type Type `yaml:"type"`
	}

	out, err := yaml.Marshal(doc{Type: TypeDataMatrix})
	require.NoError(t, err)
	assert.Equal(t, "type: dataMatrix\n", string(out))

	var d doc
	require.NoError(t, yaml.Unmarshal([]byte("type: ean13\n"), &d))
	assert.Equal(t, TypeEAN13, d.Type)

	require.Error(t, yaml.Unmarshal([]byte("type: bogus\n"), &d))

	_, err = Type(99).MarshalText()
	require.ErrorIs(t, err, ErrUnknownType)
}
