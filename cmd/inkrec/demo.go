package main

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/inkboard/recorder/internal/capture"
)

// demoScene is a procedurally animated surface: a slow horizontal gradient
// with a bouncing square, enough motion to exercise the whole pipeline
// without any platform capture API.
type demoScene struct {
	width  int
	height int
	start  time.Time
}

func newDemoScene(width, height int) *demoScene {
	return &demoScene{width: width, height: height, start: time.Now()}
}

func (s *demoScene) SampleRegion(r capture.Region) (*image.RGBA, error) {
	t := time.Since(s.start).Seconds()

	full := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	phase := uint8(int(t*40) % 256)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			i := full.PixOffset(x, y)
			full.Pix[i] = uint8(x*255/s.width) + phase
			full.Pix[i+1] = uint8(y * 255 / s.height)
			full.Pix[i+2] = 90
			full.Pix[i+3] = 255
		}
	}

	// Bouncing square.
	side := s.height / 6
	bx := int((math.Sin(t*1.3) + 1) / 2 * float64(s.width-side))
	by := int((math.Abs(math.Sin(t*2.1))) * float64(s.height-side))
	box := image.Rect(bx, by, bx+side, by+side)
	draw.Draw(full, box, &image.Uniform{color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	sub := r.Bounds().Intersect(full.Bounds())
	if sub.Empty() {
		return nil, capture.ErrSurfaceUnreadable
	}
	out := image.NewRGBA(image.Rect(0, 0, sub.Dx(), sub.Dy()))
	draw.Draw(out, out.Bounds(), full, sub.Min, draw.Src)
	return out, nil
}

// cursorAt traces a slow circle so the cursor effect has something to follow.
func (s *demoScene) cursorAt(now time.Time) image.Point {
	t := now.Sub(s.start).Seconds()
	cx := float64(s.width) / 2
	cy := float64(s.height) / 2
	r := float64(minDim(s.width, s.height)) / 3
	return image.Point{
		X: int(cx + r*math.Cos(t*0.8)),
		Y: int(cy + r*math.Sin(t*0.8)),
	}
}

func minDim(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var _ capture.Sampleable = (*demoScene)(nil)
