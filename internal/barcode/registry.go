package barcode

import (
	"errors"
	"fmt"
	"image"
	"sort"
)

// ErrEncoderUnavailable is returned by Registry.New for algorithms that are
// not linked.
var ErrEncoderUnavailable = errors.New("barcode: encoder unavailable")

// Encoder produces a symbol at one pixel per module, quiet zone included.
type Encoder interface {
	Encode(content []byte, params Params) (image.Image, error)
}

// Factory instantiates an encoder.
type Factory func() (Encoder, error)

// Registry is an immutable set of encoder factories keyed by algorithm.
type Registry struct {
	factories map[Algorithm]Factory
}

// NewRegistry copies factories into a new registry.
func NewRegistry(factories map[Algorithm]Factory) *Registry {
	r := &Registry{factories: make(map[Algorithm]Factory, len(factories))}
	for a, f := range factories {
		if f != nil {
			r.factories[a] = f
		}
	}
	return r
}

// DefaultRegistry links every built-in encoder.
func DefaultRegistry() *Registry {
	return NewRegistry(map[Algorithm]Factory{
		AlgorithmQR:         func() (Encoder, error) { return qrEncoder{}, nil },
		AlgorithmAztec:      func() (Encoder, error) { return aztecEncoder{}, nil },
		AlgorithmPDF417:     func() (Encoder, error) { return pdf417Encoder{}, nil },
		AlgorithmDataMatrix: func() (Encoder, error) { return dataMatrixEncoder{}, nil },
		AlgorithmCode128:    func() (Encoder, error) { return code128Encoder{}, nil },
	})
}

// Without returns a copy of r with the given algorithms removed.
func (r *Registry) Without(algs ...Algorithm) *Registry {
	out := NewRegistry(r.factories)
	for _, a := range algs {
		delete(out.factories, a)
	}
	return out
}

// New instantiates the encoder for a.
func (r *Registry) New(a Algorithm) (Encoder, error) {
	f, ok := r.factories[a]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEncoderUnavailable, a)
	}
	enc, err := f()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncoderUnavailable, a, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %s: factory returned nil", ErrEncoderUnavailable, a)
	}
	return enc, nil
}

// Algorithms lists the linked algorithms, sorted.
func (r *Registry) Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(r.factories))
	for a := range r.factories {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case AlgorithmQR, AlgorithmAztec, AlgorithmPDF417, AlgorithmDataMatrix, AlgorithmCode128:
		return a, nil
	default:
		return "", fmt.Errorf("barcode: unknown encoder %q", s)
	}
}
