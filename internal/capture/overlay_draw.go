package capture

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// drawCursor renders the pointer emphasis effect at the mapped cursor
// position. The effect is redrawn from the snapshot every tick, so a moving
// spotlight follows the cursor with no persistent state.
func (c *Compositor) drawCursor(dc *gg.Context, cur CursorState) {
	if cur.Effect == CursorEffectNone {
		return
	}

	p := c.mapPoint(cur.Position)
	col := cur.Color
	if col.A == 0 {
		col = color.RGBA{255, 214, 10, 255}
	}

	switch cur.Effect {
	case CursorEffectHighlight:
		// Translucent disc with a solid ring around the pointer.
		r := float64(minInt(c.width, c.height)) * 0.025
		if r < 8 {
			r = 8
		}
		dc.SetRGBA255(int(col.R), int(col.G), int(col.B), 90)
		dc.DrawCircle(float64(p.X), float64(p.Y), r)
		dc.Fill()
		dc.SetRGBA255(int(col.R), int(col.G), int(col.B), 220)
		dc.SetLineWidth(2)
		dc.DrawCircle(float64(p.X), float64(p.Y), r)
		dc.Stroke()

	case CursorEffectSpotlight:
		// Dim everything except a circle around the pointer.
		r := float64(minInt(c.width, c.height)) * 0.18
		grad := gg.NewRadialGradient(float64(p.X), float64(p.Y), r*0.6, float64(p.X), float64(p.Y), r)
		grad.AddColorStop(0, color.RGBA{0, 0, 0, 0})
		grad.AddColorStop(1, color.RGBA{0, 0, 0, 140})
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, float64(c.width), float64(c.height))
		dc.Fill()
	}
}

// drawCamera renders the circular camera bubble near the bottom-right corner
// of the content rectangle, with a fixed margin. A stale frame never appears:
// when the camera is disabled the sampler clears its latest frame, and an
// enabled camera with no frame yet draws nothing.
func (c *Compositor) drawCamera(dc *gg.Context, cam CameraState) {
	if !cam.Enabled || c.camera == nil {
		return
	}
	frame := c.camera.Latest()
	if frame == nil {
		return
	}

	diameter := float64(minInt(c.width, c.height)) * cam.Size.fraction()
	if diameter < 2 {
		return
	}

	content := c.contentRect()
	margin := float64(c.padding)
	if margin < 8 {
		margin = 8
	}
	cx := float64(content.Max.X) - margin - diameter/2
	cy := float64(content.Max.Y) - margin - diameter/2

	// Center-crop the frame square, then scale it to the bubble.
	b := frame.Bounds()
	side := minInt(b.Dx(), b.Dy())
	crop := image.Rect(0, 0, side, side).Add(image.Point{
		X: b.Min.X + (b.Dx()-side)/2,
		Y: b.Min.Y + (b.Dy()-side)/2,
	})
	d := int(diameter)
	scaled := image.NewRGBA(image.Rect(0, 0, d, d))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame, crop, xdraw.Src, nil)

	dc.Push()
	dc.DrawCircle(cx, cy, diameter/2)
	dc.Clip()
	dc.DrawImageAnchored(scaled, int(cx), int(cy), 0.5, 0.5)
	dc.ResetClip()
	dc.Pop()

	ring := cam.RingColor
	if ring.A == 0 {
		ring = color.RGBA{255, 255, 255, 230}
	}
	dc.SetColor(ring)
	dc.SetLineWidth(3)
	dc.DrawCircle(cx, cy, diameter/2)
	dc.Stroke()
}

// drawCaption renders the live caption box anchored at the mapped caption
// position, word-wrapped to at most 80% of the target width and clamped so
// the box stays fully inside the buffer.
func (c *Compositor) drawCaption(dc *gg.Context, ct CaptionState) {
	if !ct.Enabled || ct.Text == "" {
		return
	}

	style := ct.Style
	if style.Background.A == 0 && style.Foreground.A == 0 {
		style = DefaultCaptionStyle()
	}

	maxWidth := float64(c.width) * 0.8
	lines := dc.WordWrap(ct.Text, maxWidth-2*style.Padding)
	if len(lines) == 0 {
		return
	}

	lineHeight := dc.FontHeight() * 1.4
	var textWidth float64
	for _, line := range lines {
		w, _ := dc.MeasureString(line)
		if w > textWidth {
			textWidth = w
		}
	}

	boxW := textWidth + 2*style.Padding
	boxH := float64(len(lines))*lineHeight + 2*style.Padding

	p := c.mapPoint(ct.Position)
	x := float64(p.X) - boxW/2
	y := float64(p.Y) - boxH/2
	x = clampFloat(x, 0, float64(c.width)-boxW)
	y = clampFloat(y, 0, float64(c.height)-boxH)

	dc.SetColor(style.Background)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, style.CornerRadius)
	dc.Fill()

	dc.SetColor(style.Foreground)
	for i, line := range lines {
		lx := x + boxW/2
		ly := y + style.Padding + float64(i)*lineHeight + lineHeight*0.75
		dc.DrawStringAnchored(line, lx, ly, 0.5, 0)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampFloat(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
