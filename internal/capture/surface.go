package capture

import (
	"errors"
	"image"
	"image/draw"
	"sync"
)

// ErrSurfaceUnreadable is returned by surfaces that refuse to be sampled,
// for example when they contain cross-origin content the host embedder will
// not expose. The compositor treats it as a recoverable per-layer failure.
var ErrSurfaceUnreadable = errors.New("surface cannot be sampled")

// Sampleable reads a sub-rectangle of an externally owned raster surface.
// Implementations are responsible for device-pixel-ratio handling: a surface
// backed at 2x returns a buffer twice the requested region size and the
// compositor scales it into the content rectangle like any other sample.
// SampleRegion may fail on any call; the compositor skips that surface's
// contribution for the tick.
type Sampleable interface {
	SampleRegion(r Region) (*image.RGBA, error)
}

// ImageSurface is a Sampleable backed by an in-memory RGBA image, used by
// the CLI harness and tests. The backing image may be swapped between ticks.
type ImageSurface struct {
	mu    sync.RWMutex
	img   *image.RGBA
	scale float64
}

// NewImageSurface wraps img as a surface with the given device pixel ratio.
// A scale of 0 means 1.
func NewImageSurface(img *image.RGBA, scale float64) *ImageSurface {
	if scale <= 0 {
		scale = 1
	}
	return &ImageSurface{img: img, scale: scale}
}

// SetImage replaces the backing image.
func (s *ImageSurface) SetImage(img *image.RGBA) {
	s.mu.Lock()
	s.img = img
	s.mu.Unlock()
}

// SampleRegion copies the requested region (in surface coordinates, scaled
// by the device pixel ratio) out of the backing image.
func (s *ImageSurface) SampleRegion(r Region) (*image.RGBA, error) {
	s.mu.RLock()
	img := s.img
	scale := s.scale
	s.mu.RUnlock()

	if img == nil {
		return nil, ErrSurfaceUnreadable
	}

	src := image.Rect(
		int(float64(r.X)*scale),
		int(float64(r.Y)*scale),
		int(float64(r.X+r.Width)*scale),
		int(float64(r.Y+r.Height)*scale),
	).Intersect(img.Bounds())
	if src.Empty() {
		return nil, ErrSurfaceUnreadable
	}

	out := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(out, out.Bounds(), img, src.Min, draw.Src)
	return out, nil
}

var _ Sampleable = (*ImageSurface)(nil)
