package capture

import "image"

// bgraToRGBA swaps the blue and red channels in place. Camera devices on
// Windows commonly deliver BGRA buffers; the compositor works in RGBA.
func bgraToRGBA(img *image.RGBA) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
