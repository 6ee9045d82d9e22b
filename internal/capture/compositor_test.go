package capture

import (
	"image"
	"image/color"
	"sync/atomic"
	"testing"
)

type errorSurface struct{}

func (errorSurface) SampleRegion(Region) (*image.RGBA, error) {
	return nil, ErrSurfaceUnreadable
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestComposeUnreadableSurfaceYieldsBackground(t *testing.T) {
	bg := color.RGBA{40, 50, 60, 255}
	comp := NewCompositor(CompositorConfig{
		Region:     Region{Width: 100, Height: 100},
		Width:      100,
		Height:     100,
		Background: bg,
		Surfaces:   []Sampleable{errorSurface{}},
	})

	frame := comp.Compose()
	defer composeImagePool.Put(frame)

	got := frame.RGBAAt(50, 50)
	if got != bg {
		t.Fatalf("center pixel = %v, want background %v", got, bg)
	}
	got = frame.RGBAAt(2, 2)
	if got != bg {
		t.Fatalf("corner pixel = %v, want background %v", got, bg)
	}
}

func TestComposeDrawsSurfaceIntoContentRect(t *testing.T) {
	src := solidImage(200, 200, color.RGBA{255, 0, 0, 255})
	comp := NewCompositor(CompositorConfig{
		Region:   Region{Width: 200, Height: 200},
		Width:    200,
		Height:   200,
		Padding:  10,
		Surfaces: []Sampleable{NewImageSurface(src, 1)},
	})

	frame := comp.Compose()
	defer composeImagePool.Put(frame)

	center := frame.RGBAAt(100, 100)
	if center.R < 200 || center.G > 50 {
		t.Fatalf("content pixel = %v, want red surface", center)
	}
	// The padding band stays background.
	edge := frame.RGBAAt(2, 100)
	if edge.R > 200 {
		t.Fatalf("padding pixel = %v, should not be surface content", edge)
	}
}

func TestComposePaddingScalesWithDownscaledRegion(t *testing.T) {
	// Region twice the target size: 40px of source padding shrinks to a
	// 20px inset in the target buffer.
	src := solidImage(400, 400, color.RGBA{255, 0, 0, 255})
	comp := NewCompositor(CompositorConfig{
		Region:   Region{Width: 400, Height: 400},
		Width:    200,
		Height:   200,
		Padding:  40,
		Surfaces: []Sampleable{NewImageSurface(src, 1)},
	})

	frame := comp.Compose()
	defer composeImagePool.Put(frame)

	inside := frame.RGBAAt(30, 100)
	if inside.R < 200 {
		t.Fatalf("pixel inside the scaled inset = %v, want surface content", inside)
	}
	outside := frame.RGBAAt(10, 100)
	if outside.R > 200 {
		t.Fatalf("pixel in the padding band = %v, want background", outside)
	}
}

func TestComposeCaptionDrawsOverCameraBubble(t *testing.T) {
	camFrames := &staticCamera{frame: solidImage(120, 120, color.RGBA{0, 255, 0, 255})}
	sampler := NewCameraSampler(camFrames, 0)
	sampler.mu.Lock()
	sampler.latest = camFrames.frame
	sampler.mu.Unlock()

	captionBG := color.RGBA{10, 20, 30, 255}
	// Caption positioned over the bottom-right corner, where the bubble sits.
	overlays := OverlayFunc(func() OverlaySnapshot {
		return OverlaySnapshot{
			Camera: CameraState{Enabled: true, Size: BubbleLarge},
			Caption: CaptionState{
				Enabled:  true,
				Text:     "hello",
				Position: image.Point{X: 170, Y: 170},
				Style: CaptionStyle{
					Background:   captionBG,
					Foreground:   color.RGBA{255, 255, 255, 255},
					Padding:      12,
					CornerRadius: 4,
				},
			},
		}
	})

	comp := NewCompositor(CompositorConfig{
		Region:   Region{Width: 200, Height: 200},
		Width:    200,
		Height:   200,
		Overlays: overlays,
		Camera:   sampler,
	})

	frame := comp.Compose()
	defer composeImagePool.Put(frame)

	// The caption box center must show the caption background, not the
	// green bubble underneath it.
	found := false
	for y := 160; y < 180 && !found; y++ {
		for x := 140; x < 180 && !found; x++ {
			if frame.RGBAAt(x, y) == captionBG {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("caption background not found above camera bubble")
	}
}

func TestComposeCameraBubbleAnchoredBottomRight(t *testing.T) {
	green := color.RGBA{0, 255, 0, 255}
	cam := &staticCamera{frame: solidImage(120, 120, green)}
	sampler := NewCameraSampler(cam, 0)
	sampler.mu.Lock()
	sampler.latest = cam.frame
	sampler.mu.Unlock()

	overlays := OverlayFunc(func() OverlaySnapshot {
		return OverlaySnapshot{
			Camera: CameraState{Enabled: true, Size: BubbleLarge},
		}
	})

	comp := NewCompositor(CompositorConfig{
		Region:   Region{Width: 200, Height: 200},
		Width:    200,
		Height:   200,
		Overlays: overlays,
		Camera:   sampler,
	})

	frame := comp.Compose()
	defer composeImagePool.Put(frame)

	// BubbleLarge on a 200x200 target: diameter 56, margin 8, so the
	// bubble center sits at (164, 164).
	if got := frame.RGBAAt(164, 164); got != green {
		t.Fatalf("bottom-right bubble center = %v, want camera frame %v", got, green)
	}
	if got := frame.RGBAAt(36, 164); got == green {
		t.Fatal("camera frame found at bottom-left, bubble anchored on wrong side")
	}
}

func TestComposeTakesOneSnapshotPerTick(t *testing.T) {
	var calls atomic.Int64
	overlays := OverlayFunc(func() OverlaySnapshot {
		calls.Add(1)
		return OverlaySnapshot{}
	})

	comp := NewCompositor(CompositorConfig{
		Region:   Region{Width: 64, Height: 64},
		Width:    64,
		Height:   64,
		Overlays: overlays,
	})

	for i := 0; i < 3; i++ {
		frame := comp.Compose()
		composeImagePool.Put(frame)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("snapshot calls = %d, want exactly one per compose", n)
	}
}

func TestComposePanickingOverlayIsIsolated(t *testing.T) {
	overlays := OverlayFunc(func() OverlaySnapshot {
		return OverlaySnapshot{
			Caption: CaptionState{Enabled: true, Text: "x", Position: image.Point{X: -1 << 40, Y: 0}},
		}
	})

	comp := NewCompositor(CompositorConfig{
		Region:   Region{Width: 64, Height: 64},
		Width:    64,
		Height:   64,
		Overlays: overlays,
	})

	// Must not panic even if a layer misbehaves.
	frame := comp.Compose()
	composeImagePool.Put(frame)
}

func TestImageSurfaceDevicePixelRatio(t *testing.T) {
	// Backing image at 2x: 100x100 region needs a 200x200 backing area.
	src := solidImage(200, 200, color.RGBA{0, 0, 255, 255})
	surf := NewImageSurface(src, 2)

	sample, err := surf.SampleRegion(Region{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("SampleRegion: %v", err)
	}
	if sample.Bounds().Dx() != 200 || sample.Bounds().Dy() != 200 {
		t.Fatalf("sample = %v, want 200x200 backing pixels", sample.Bounds())
	}
}

type staticCamera struct {
	frame *image.RGBA
}

func (s *staticCamera) ReadFrame() (*image.RGBA, error) {
	return s.frame, nil
}
