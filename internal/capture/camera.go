package capture

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/inkboard/recorder/internal/logging"
)

// CameraSource delivers frames from a camera device. ReadFrame blocks until
// a frame is available or the device fails.
type CameraSource interface {
	ReadFrame() (*image.RGBA, error)
}

// BGRAProvider is implemented by camera sources whose buffers arrive in BGRA
// channel order. The sampler converts them before publishing.
type BGRAProvider interface {
	IsBGRA() bool
}

// CameraSampler polls a CameraSource on its own goroutine and keeps the most
// recent frame. The compositor reads whatever frame is latest at each tick;
// camera delivery rate and the frame clock are fully decoupled.
type CameraSampler struct {
	source   CameraSource
	interval time.Duration
	log      *slog.Logger

	mu      sync.RWMutex
	latest  *image.RGBA
	enabled bool

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewCameraSampler creates a sampler polling source at the given interval.
// An interval of 0 defaults to 33ms.
func NewCameraSampler(source CameraSource, interval time.Duration) *CameraSampler {
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &CameraSampler{
		source:   source,
		interval: interval,
		log:      logging.L("camera"),
		enabled:  true,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling goroutine.
func (s *CameraSampler) Start() {
	go s.loop()
}

// Stop terminates the polling goroutine and waits for it to exit. Safe to
// call more than once.
func (s *CameraSampler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

// SetEnabled toggles sampling. Disabling clears the latest frame immediately
// so a stale camera image never appears in later frames.
func (s *CameraSampler) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	if !enabled {
		s.latest = nil
	}
	s.mu.Unlock()
}

// Latest returns the most recent camera frame, or nil when the camera is
// disabled or no frame has arrived yet.
func (s *CameraSampler) Latest() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *CameraSampler) loop() {
	defer close(s.done)

	bgra := false
	if p, ok := s.source.(BGRAProvider); ok {
		bgra = p.IsBGRA()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
		}

		s.mu.RLock()
		enabled := s.enabled
		s.mu.RUnlock()
		if !enabled {
			continue
		}

		frame, err := s.source.ReadFrame()
		if err != nil {
			failures++
			if failures == 1 || failures%100 == 0 {
				s.log.Warn("camera read failed", logging.KeyError, err, "failures", failures)
			}
			continue
		}
		failures = 0
		if frame == nil {
			continue
		}
		if bgra {
			bgraToRGBA(frame)
		}

		s.mu.Lock()
		if s.enabled {
			s.latest = frame
		}
		s.mu.Unlock()
	}
}
