package capture

import (
	"image"
	"image/color"
)

// CursorEffect selects how the pointer is emphasized in the composed frame.
type CursorEffect int

const (
	CursorEffectNone CursorEffect = iota
	CursorEffectHighlight
	CursorEffectSpotlight
)

func (e CursorEffect) String() string {
	switch e {
	case CursorEffectHighlight:
		return "highlight"
	case CursorEffectSpotlight:
		return "spotlight"
	default:
		return "none"
	}
}

// BubbleSize is the camera bubble size class. The bubble diameter is the
// class fraction of the shorter target-buffer dimension.
type BubbleSize int

const (
	BubbleSmall BubbleSize = iota
	BubbleMedium
	BubbleLarge
)

func (b BubbleSize) fraction() float64 {
	switch b {
	case BubbleMedium:
		return 0.22
	case BubbleLarge:
		return 0.28
	default:
		return 0.15
	}
}

func (b BubbleSize) String() string {
	switch b {
	case BubbleMedium:
		return "medium"
	case BubbleLarge:
		return "large"
	default:
		return "small"
	}
}

// CursorState describes the pointer overlay for one tick. Position is in
// source-surface coordinates.
type CursorState struct {
	Position image.Point
	Effect   CursorEffect
	Color    color.RGBA
}

// CameraState describes the camera bubble overlay for one tick.
type CameraState struct {
	Enabled   bool
	Size      BubbleSize
	RingColor color.RGBA
}

// CaptionStyle controls the caption box rendering.
type CaptionStyle struct {
	Background   color.RGBA
	Foreground   color.RGBA
	Padding      float64
	CornerRadius float64
}

// DefaultCaptionStyle returns the style used when the UI supplies none.
func DefaultCaptionStyle() CaptionStyle {
	return CaptionStyle{
		Background:   color.RGBA{0, 0, 0, 200},
		Foreground:   color.RGBA{255, 255, 255, 255},
		Padding:      12,
		CornerRadius: 8,
	}
}

// CaptionState describes the live caption overlay for one tick. Position is
// in source-surface coordinates and is mapped with the same region-to-target
// scale as every other overlay.
type CaptionState struct {
	Enabled  bool
	Text     string
	Position image.Point
	Style    CaptionStyle
}

// OverlaySnapshot is one immutable read of all overlay parameters. The
// compositor pulls exactly one snapshot at the top of each tick and never
// holds a live reference across the tick body, so concurrent UI mutation
// cannot tear a frame.
type OverlaySnapshot struct {
	Cursor  CursorState
	Camera  CameraState
	Caption CaptionState
}

// OverlayProvider supplies the per-tick overlay snapshot. Ownership of the
// underlying state stays with the UI layer.
type OverlayProvider interface {
	OverlaySnapshot() OverlaySnapshot
}

// OverlayFunc adapts a function to the OverlayProvider interface.
type OverlayFunc func() OverlaySnapshot

func (f OverlayFunc) OverlaySnapshot() OverlaySnapshot { return f() }
