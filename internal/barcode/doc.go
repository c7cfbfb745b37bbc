// Package barcode turns detected symbologies into one canonical type system
// and renders stored payloads back into scannable images.
//
// The package is pure: Normalize, Sanitize, Select and Renderer.Render keep
// no state between calls and may be used from any number of goroutines.
// Encoders are linked through a Registry so a build or configuration can
// leave some of them out; rendering then degrades through a fixed fallback
// chain instead of failing.
//
// Example:
//
//	r := barcode.NewRenderer(barcode.DefaultRegistry())
//	img := r.Render(barcode.RenderRequest{Payload: "4012888888881881", Type: barcode.TypeQR})
//	_ = img.WritePNG(w)
package barcode
