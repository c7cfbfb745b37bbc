package barcode

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
)

// RenderRequest is a stored payload/type pair to draw.
type RenderRequest struct {
	Payload string
	Type    Type
}

// RenderedImage is the output of Render. Type is the symbology actually
// drawn, which differs from Requested whenever the requested type has no
// dedicated encoder or its encoder was unavailable.
type RenderedImage struct {
	Image       *image.NRGBA
	Type        Type
	Requested   Type
	Algorithm   Algorithm
	Scale       int
	Placeholder bool
}

// Width returns the raster width in pixels.
func (r RenderedImage) Width() int { return r.Image.Bounds().Dx() }

// Height returns the raster height in pixels.
func (r RenderedImage) Height() int { return r.Image.Bounds().Dy() }

// Degraded reports whether the image is not a symbol of the requested type.
func (r RenderedImage) Degraded() bool { return r.Placeholder || r.Type != r.Requested }

// WritePNG encodes the raster as PNG.
func (r RenderedImage) WritePNG(w io.Writer) error {
	return png.Encode(w, r.Image)
}

// PNG returns the raster encoded as PNG.
func (r RenderedImage) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WritePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Renderer draws render requests with the encoders of a registry.
type Renderer struct {
	registry *Registry
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer returns a renderer over reg. A nil registry means
// DefaultRegistry.
func NewRenderer(reg *Registry, opts ...Option) *Renderer {
	if reg == nil {
		reg = DefaultRegistry()
	}
	r := &Renderer{registry: reg, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Algorithms lists the encoders the renderer can instantiate.
func (r *Renderer) Algorithms() []Algorithm { return r.registry.Algorithms() }

// Render draws req. It always returns an image: when neither the selected
// encoder nor the Code 128 fallback can be used, or encoding yields nothing,
// the result is the placeholder graphic.
func (r *Renderer) Render(req RenderRequest) RenderedImage {
	clean := Sanitize(req.Payload)
	spec := Select(req.Type)

	enc, err := r.registry.New(spec.Algorithm)
	if err != nil {
		r.logger.Warn("Encoder unavailable, falling back",
			"requested", req.Type.String(), "algorithm", string(spec.Algorithm), "error", err)
		spec = fallbackSpec
		enc, err = r.registry.New(spec.Algorithm)
		if err != nil {
			r.logger.Warn("Fallback encoder unavailable, using placeholder",
				"requested", req.Type.String(), "error", err)
			return placeholderResult(req.Type, spec)
		}
	}

	symbol, err := encodeSafely(enc, []byte(clean), spec.Params)
	if err != nil || symbol == nil || symbol.Bounds().Empty() {
		r.logger.Warn("Encoder produced no output, using placeholder",
			"requested", req.Type.String(), "algorithm", string(spec.Algorithm),
			"payload_len", len(clean), "error", err)
		return placeholderResult(req.Type, spec)
	}

	b := symbol.Bounds()
	scaled := imaging.Resize(symbol, b.Dx()*spec.Scale, b.Dy()*spec.Scale, imaging.NearestNeighbor)

	r.logger.Debug("Rendered barcode",
		"requested", req.Type.String(), "effective", spec.Algorithm.Type().String(),
		"width", scaled.Bounds().Dx(), "height", scaled.Bounds().Dy())

	return RenderedImage{
		Image:     scaled,
		Type:      spec.Algorithm.Type(),
		Requested: req.Type,
		Algorithm: spec.Algorithm,
		Scale:     spec.Scale,
	}
}

// encodeSafely turns an encoder panic into an error.
func encodeSafely(enc Encoder, content []byte, p Params) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("encoder panic: %v", rec)
		}
	}()
	return enc.Encode(content, p)
}

func placeholderResult(requested Type, spec EncoderSpec) RenderedImage {
	return RenderedImage{
		Image:       Placeholder(),
		Type:        spec.Algorithm.Type(),
		Requested:   requested,
		Algorithm:   spec.Algorithm,
		Scale:       spec.Scale,
		Placeholder: true,
	}
}
