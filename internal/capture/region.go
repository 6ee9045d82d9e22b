package capture

import (
	"fmt"
	"image"
	"math"
)

// Region is the rectangle of the source surface being recorded, in
// source-surface coordinates. It is confirmed by the selection UI before a
// session starts and is immutable for the duration of that session.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Confirmed reports whether the region has usable dimensions.
func (r Region) Confirmed() bool {
	return r.Width > 0 && r.Height > 0
}

// Bounds returns the region as an image.Rectangle.
func (r Region) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// targetSize fits the region inside maxLongEdge while preserving aspect
// ratio, and rounds both dimensions to the nearest even integer. Codecs
// commonly require even dimensions; the rounding happens once here, when
// the target buffer is sized, not per frame.
func targetSize(r Region, maxLongEdge int) (int, int) {
	w := float64(r.Width)
	h := float64(r.Height)

	long := math.Max(w, h)
	if long > float64(maxLongEdge) {
		scale := float64(maxLongEdge) / long
		w *= scale
		h *= scale
	}

	tw := roundEven(w)
	th := roundEven(h)

	// Rounding up can push a dimension past the cap by one step.
	if tw > maxLongEdge {
		tw -= 2
	}
	if th > maxLongEdge {
		th -= 2
	}
	return tw, th
}

// roundEven rounds to the nearest even integer (not truncation), with a
// floor of 2.
func roundEven(f float64) int {
	n := int(math.Round(f/2)) * 2
	if n < 2 {
		return 2
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
