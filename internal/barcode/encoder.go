package barcode

// Algorithm names a symbol generator.
type Algorithm string

const (
	AlgorithmQR         Algorithm = "qr-encoder"
	AlgorithmAztec      Algorithm = "aztec-encoder"
	AlgorithmPDF417     Algorithm = "pdf417-encoder"
	AlgorithmDataMatrix Algorithm = "datamatrix-encoder"
	AlgorithmCode128    Algorithm = "code128-encoder"
)

// Type returns the symbology an algorithm actually produces.
func (a Algorithm) Type() Type {
	switch a {
	case AlgorithmQR:
		return TypeQR
	case AlgorithmAztec:
		return TypeAztec
	case AlgorithmPDF417:
		return TypePDF417
	case AlgorithmDataMatrix:
		return TypeDataMatrix
	default:
		return TypeCode128
	}
}

// Params carries the type-specific encoder settings. Zero values mean
// "encoder default".
type Params struct {
	// CorrectionLevel is the QR error-correction level: L, M, Q or H.
	CorrectionLevel string
	// Layers forces the Aztec layer count (full-range symbol).
	Layers int
}

// EncoderSpec is the result of selecting an encoder for a type.
type EncoderSpec struct {
	Algorithm Algorithm
	Scale     int
	Params    Params
}

const (
	qrScale      = 10
	defaultScale = 3
	aztecLayers  = 23
)

// fallbackSpec is used when the selected encoder cannot be instantiated.
var fallbackSpec = EncoderSpec{Algorithm: AlgorithmCode128, Scale: defaultScale}

var encoderSpecs = map[Type]EncoderSpec{
	TypeQR:         {Algorithm: AlgorithmQR, Scale: qrScale, Params: Params{CorrectionLevel: "M"}},
	TypeAztec:      {Algorithm: AlgorithmAztec, Scale: defaultScale, Params: Params{Layers: aztecLayers}},
	TypePDF417:     {Algorithm: AlgorithmPDF417, Scale: defaultScale},
	TypeDataMatrix: {Algorithm: AlgorithmDataMatrix, Scale: defaultScale},
	TypeCode128:    {Algorithm: AlgorithmCode128, Scale: defaultScale},
	TypeCode39:     {Algorithm: AlgorithmCode128, Scale: defaultScale},
	TypeCode93:     {Algorithm: AlgorithmCode128, Scale: defaultScale},
	TypeEAN8:       {Algorithm: AlgorithmCode128, Scale: defaultScale},
	TypeEAN13:      {Algorithm: AlgorithmCode128, Scale: defaultScale},
	TypeUPCE:       {Algorithm: AlgorithmCode128, Scale: defaultScale},
}

// Select returns the encoder spec for t. The linear families share the
// Code 128 generator. Out-of-range values get the fallback spec.
func Select(t Type) EncoderSpec {
	if spec, ok := encoderSpecs[t]; ok {
		return spec
	}
	return fallbackSpec
}
