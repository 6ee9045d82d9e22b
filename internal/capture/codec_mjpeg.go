package capture

import (
	"image"
	"image/jpeg"
)

// mjpegCodec is the baseline video codec: every frame is an independent
// JPEG, so every frame is a keyframe. It has no platform dependencies and
// is always registered.
type mjpegCodec struct {
	quality int
}

type mjpegFactory struct{}

func (mjpegFactory) Supported(cfg codecConfig) bool {
	return cfg.Width > 0 && cfg.Height > 0
}

func (mjpegFactory) NewCodec(cfg codecConfig) (frameCodec, error) {
	return &mjpegCodec{quality: mjpegQuality(cfg)}, nil
}

// mjpegQuality maps the target bitrate to a JPEG quality via bits per pixel
// per frame. MJPEG has no rate control, so this is the only knob.
func mjpegQuality(cfg codecConfig) int {
	pixelsPerSecond := cfg.Width * cfg.Height * cfg.FrameRate
	if pixelsPerSecond <= 0 {
		return 80
	}
	bpp := float64(cfg.Bitrate) / float64(pixelsPerSecond)
	switch {
	case bpp >= 0.5:
		return 90
	case bpp >= 0.25:
		return 80
	case bpp >= 0.1:
		return 70
	default:
		return 60
	}
}

func (c *mjpegCodec) Encode(img *image.RGBA) ([]byte, bool, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, false, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, true, nil
}

func (c *mjpegCodec) Close() {}

func init() {
	RegisterVideoCodec(VideoMJPEG, mjpegFactory{})
}
