package capture

import (
	"image"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/inkboard/recorder/internal/logging"
	"github.com/inkboard/recorder/internal/workerpool"
)

// Compositor renders one output frame per tick: the confirmed region of each
// source surface, scaled into the padded content rectangle of the target
// buffer, with the cursor effect, camera bubble and caption drawn on top in
// that order. The caption is always the topmost layer.
type Compositor struct {
	region  Region
	width   int
	height  int
	padding int

	background color.RGBA
	surfaces   []Sampleable
	overlays   OverlayProvider
	camera     *CameraSampler

	pool    *workerpool.Pool
	differ  *frameDiffer
	metrics *StreamMetrics
	log     *slog.Logger
}

// CompositorConfig collects the immutable per-session compositor inputs.
type CompositorConfig struct {
	Region     Region
	Width      int
	Height     int
	Padding    int
	Background color.RGBA
	Surfaces   []Sampleable
	Overlays   OverlayProvider
	Camera     *CameraSampler
	Pool       *workerpool.Pool
	Metrics    *StreamMetrics
}

// NewCompositor builds a compositor for one session. Pool may be nil; all
// surfaces are then sampled inline.
func NewCompositor(cfg CompositorConfig) *Compositor {
	bg := cfg.Background
	if bg.A == 0 {
		bg = color.RGBA{24, 24, 27, 255}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &StreamMetrics{}
	}
	return &Compositor{
		region:     cfg.Region,
		width:      cfg.Width,
		height:     cfg.Height,
		padding:    cfg.Padding,
		background: bg,
		surfaces:   cfg.Surfaces,
		overlays:   cfg.Overlays,
		camera:     cfg.Camera,
		pool:       cfg.Pool,
		differ:     newFrameDiffer(),
		metrics:    metrics,
		log:        logging.L("compositor"),
	}
}

// contentRect returns the target-buffer rectangle the region is scaled into.
// Padding is given in source coordinates and shrinks with the region, so a
// downscaled recording keeps the same visual proportions.
func (c *Compositor) contentRect() image.Rectangle {
	pad := 0
	if c.region.Width > 0 {
		pad = int(float64(c.padding) * float64(c.width) / float64(c.region.Width))
	}
	if pad*2 >= c.width || pad*2 >= c.height {
		pad = 0
	}
	return image.Rect(pad, pad, c.width-pad, c.height-pad)
}

// mapPoint converts source-surface coordinates to target-buffer coordinates
// using the same region-to-content scale every layer is drawn with.
func (c *Compositor) mapPoint(p image.Point) image.Point {
	content := c.contentRect()
	x := content.Min.X + (p.X-c.region.X)*content.Dx()/c.region.Width
	y := content.Min.Y + (p.Y-c.region.Y)*content.Dy()/c.region.Height
	return image.Point{X: x, Y: y}
}

// Compose renders one frame into a pooled target buffer. The caller owns the
// returned image and returns it to the pool when done. Compose never fails:
// a surface that cannot be sampled or an overlay that panics simply does not
// contribute to this frame.
func (c *Compositor) Compose() *image.RGBA {
	started := time.Now()

	// One overlay snapshot per tick. The UI may mutate overlay state at any
	// time; this frame renders the state as of now.
	var snap OverlaySnapshot
	if c.overlays != nil {
		snap = c.overlays.OverlaySnapshot()
	}

	target := composeImagePool.Get(c.width, c.height)
	dc := gg.NewContextForRGBA(target)
	dc.SetColor(c.background)
	dc.Clear()

	content := c.contentRect()
	for _, sample := range c.sampleSurfaces() {
		if sample == nil {
			continue
		}
		xdraw.ApproxBiLinear.Scale(target, content, sample, sample.Bounds(), xdraw.Over, nil)
	}

	c.safeDraw("cursor", func() { c.drawCursor(dc, snap.Cursor) })
	c.safeDraw("camera", func() { c.drawCamera(dc, snap.Camera) })
	c.safeDraw("caption", func() { c.drawCaption(dc, snap.Caption) })

	if !c.differ.HasChanged(target.Pix) {
		c.metrics.FramesStatic.Add(1)
	}
	c.metrics.RecordCompose(time.Since(started))
	return target
}

// sampleSurfaces reads the region from every surface, concurrently when a
// pool is available. Results keep surface order so layering is stable.
func (c *Compositor) sampleSurfaces() []*image.RGBA {
	results := make([]*image.RGBA, len(c.surfaces))

	var wg sync.WaitGroup
	for i, s := range c.surfaces {
		i, s := i, s
		task := func() {
			defer wg.Done()
			img, err := s.SampleRegion(c.region)
			if err != nil {
				c.log.Debug("surface sample failed", logging.KeyError, err, "surface", i)
				return
			}
			results[i] = img
		}

		wg.Add(1)
		if c.pool == nil || !c.pool.Submit(task) {
			task()
		}
	}
	wg.Wait()
	return results
}

// safeDraw runs one overlay layer with panic isolation so a bad overlay
// costs its own layer for one frame, never the whole pipeline.
func (c *Compositor) safeDraw(layer string, draw func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("overlay draw panicked", "layer", layer, "panic", r)
		}
	}()
	draw()
}

// Differ exposes static-frame stats for the session stats log.
func (c *Compositor) Differ() *frameDiffer {
	return c.differ
}
