package capture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/inkboard/recorder/internal/logging"
	"github.com/inkboard/recorder/internal/workerpool"
)

// State is the recording session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// ErrNoRegion is returned by Start when no confirmed region exists. Callers
// treat it as "nothing to do", not a failure.
var ErrNoRegion = errors.New("no confirmed capture region")

// RecorderOptions collects everything a session needs besides tuning knobs.
type RecorderOptions struct {
	Region    Region
	Surfaces  []Sampleable
	Overlays  OverlayProvider
	Camera    *CameraSampler
	Audio     AudioSource
	FrameRate int
	Bitrate   int
	Padding   int
	// MaxLongEdge caps the longer target dimension. 0 means 1920.
	MaxLongEdge int
	// Preferences overrides the negotiation order. Nil means defaults.
	Preferences []Format
}

// Recorder is one capture session: it drives the frame clock, compositor and
// encoder, accounts recording duration, and produces the final artifact.
// A Recorder is single-use; Clear resets it for reuse.
type Recorder struct {
	opts RecorderOptions
	log  *slog.Logger

	mu             sync.Mutex
	state          State
	startedAt      time.Time
	pauseStartedAt time.Time
	pausedAccum    time.Duration

	format     Format
	width      int
	height     int
	clock      *FrameClock
	compositor *Compositor
	pool       *workerpool.Pool
	source     *CombinedSource
	encoder    *encoderSession
	assembler  *chunkAssembler
	metrics    *StreamMetrics

	durationSec atomic.Int64
	loopQuit    chan struct{}
	loopWg      sync.WaitGroup

	stopOnce sync.Once
	done     chan struct{}
	artifact *Artifact
	stopErr  error
}

// NewRecorder creates an idle recorder.
func NewRecorder(opts RecorderOptions) *Recorder {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	if opts.Bitrate <= 0 {
		opts.Bitrate = 4_000_000
	}
	if opts.MaxLongEdge <= 0 {
		opts.MaxLongEdge = 1920
	}
	return &Recorder{
		opts:  opts,
		log:   logging.L("session"),
		state: StateIdle,
		done:  make(chan struct{}),
	}
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Format returns the negotiated output format. Valid after Start succeeds.
func (r *Recorder) Format() Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

// Duration returns the elapsed recording time in whole seconds, excluding
// paused intervals. The value never decreases while a session runs.
func (r *Recorder) Duration() time.Duration {
	return time.Duration(r.durationSec.Load()) * time.Second
}

// Done is closed once the session has stopped and the artifact is final.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

// Metrics returns the session counters, or nil before Start.
func (r *Recorder) Metrics() *StreamMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// Start transitions Idle to Recording: negotiates the output format, sizes
// the target buffer, and launches the clock, compositor and encoder. With no
// confirmed region it returns ErrNoRegion and stays Idle.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return fmt.Errorf("cannot start from state %s", r.state)
	}
	if !r.opts.Region.Confirmed() {
		return ErrNoRegion
	}

	sessionID := newSessionID()
	r.log = logging.WithSession(logging.L("session"), sessionID)

	width, height := targetSize(r.opts.Region, r.opts.MaxLongEdge)
	cfg := codecConfig{
		Width:     width,
		Height:    height,
		FrameRate: r.opts.FrameRate,
		Bitrate:   r.opts.Bitrate,
	}

	prefs := r.opts.Preferences
	if prefs == nil {
		prefs = DefaultPreferences()
	}
	format := NegotiateFormat(prefs, cfg, r.opts.Audio != nil)

	var audio AudioSource
	if format.Audio != AudioNone {
		audio = r.opts.Audio
	}
	source := NewCombinedSource(audio)
	assembler := newChunkAssembler()
	metrics := &StreamMetrics{}

	enc, err := newEncoderSession(format, cfg, source,
		func(s media.Sample) {
			assembler.Append(s)
			metrics.ChunksEmitted.Add(1)
			metrics.BytesEncoded.Add(uint64(len(s.Data)))
		},
		func(err error) {
			r.log.Error("session failed, stopping", logging.KeyError, err)
			go r.Stop()
		},
	)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	var pool *workerpool.Pool
	if len(r.opts.Surfaces) > 1 {
		pool = workerpool.New(len(r.opts.Surfaces), len(r.opts.Surfaces)*2)
	}

	compositor := NewCompositor(CompositorConfig{
		Region:   r.opts.Region,
		Width:    width,
		Height:   height,
		Padding:  r.opts.Padding,
		Surfaces: r.opts.Surfaces,
		Overlays: r.opts.Overlays,
		Camera:   r.opts.Camera,
		Pool:     pool,
		Metrics:  metrics,
	})

	r.format = format
	r.width = width
	r.height = height
	r.source = source
	r.encoder = enc
	r.assembler = assembler
	r.metrics = metrics
	r.compositor = compositor
	r.pool = pool
	r.clock = NewFrameClock(r.opts.FrameRate, r.tick)

	r.startedAt = time.Now()
	r.pausedAccum = 0
	r.durationSec.Store(0)
	r.state = StateRecording

	if r.opts.Camera != nil {
		r.opts.Camera.Start()
	}
	enc.start()
	r.clock.Start()

	r.loopQuit = make(chan struct{})
	r.loopWg.Add(2)
	go r.durationLoop()
	go r.statsLoop()

	r.log.Info("recording started",
		"region", r.opts.Region.String(),
		"target", fmt.Sprintf("%dx%d", width, height),
		"format", format.String(),
		"mime", format.MIME(),
		"frameRate", r.opts.FrameRate,
	)
	return nil
}

// tick runs on the clock goroutine once per frame interval.
func (r *Recorder) tick(now time.Time) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	pts := now.Sub(r.startedAt) - r.pausedAccum
	compositor := r.compositor
	source := r.source
	metrics := r.metrics
	r.mu.Unlock()

	if pts < 0 {
		pts = 0
	}
	frame := compositor.Compose()
	source.PushFrame(videoFrame{img: frame, pts: pts, pooled: true})
	metrics.FramesEncoded.Add(1)
}

// Pause freezes the pipeline: the clock stops, audio is discarded, and the
// duration stops advancing. No-op unless recording.
func (r *Recorder) Pause() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	r.state = StatePaused
	r.pauseStartedAt = time.Now()
	clock := r.clock
	enc := r.encoder
	r.mu.Unlock()

	clock.Stop()
	enc.setPaused(true)
	r.log.Info("recording paused", logging.KeyDurationMs, r.Duration().Milliseconds())
}

// Resume continues a paused session. The paused wall time is added to the
// pause accumulator so it never counts toward the recording duration.
func (r *Recorder) Resume() {
	r.mu.Lock()
	if r.state != StatePaused {
		r.mu.Unlock()
		return
	}
	r.pausedAccum += time.Since(r.pauseStartedAt)
	r.state = StateRecording
	clock := r.clock
	enc := r.encoder
	r.mu.Unlock()

	enc.setPaused(false)
	clock.Start()
	r.log.Info("recording resumed")
}

// Stop ends the session: the clock halts, the encoder drains and finalizes,
// and the artifact is assembled. Stop blocks until finalization completes.
// On an idle recorder Stop is a no-op and the recorder stays startable.
// Safe to call from multiple goroutines; the first call does the work,
// later calls wait for it.
func (r *Recorder) Stop() (*Artifact, error) {
	r.mu.Lock()
	if r.state == StateIdle {
		r.mu.Unlock()
		return nil, nil
	}
	r.mu.Unlock()

	r.stopOnce.Do(func() {
		r.mu.Lock()
		prev := r.state
		if prev == StatePaused {
			r.pausedAccum += time.Since(r.pauseStartedAt)
		}
		r.state = StateStopped
		stoppedAt := time.Now()
		duration := stoppedAt.Sub(r.startedAt) - r.pausedAccum
		if duration < 0 {
			duration = 0
		}
		clock := r.clock
		enc := r.encoder
		r.mu.Unlock()

		clock.Stop()
		close(r.loopQuit)
		r.loopWg.Wait()
		if r.opts.Camera != nil {
			r.opts.Camera.Stop()
		}

		err := enc.stop()
		if r.pool != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			r.pool.Stop(ctx)
			cancel()
		}

		r.updateDuration(duration)

		r.mu.Lock()
		r.artifact = &Artifact{
			Data:      r.assembler.Assemble(),
			MIME:      r.format.MIME(),
			Duration:  duration,
			CreatedAt: time.Now(),
		}
		r.stopErr = err
		r.mu.Unlock()

		r.log.Info("recording stopped",
			logging.KeyDurationMs, duration.Milliseconds(),
			"bytes", len(r.artifact.Data),
			"chunks", r.assembler.Count(),
		)
		close(r.done)
	})

	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artifact, r.stopErr
}

// Artifact returns the finished recording, or nil before Stop completes.
func (r *Recorder) Artifact() *Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artifact
}

// Clear discards the artifact of a stopped recorder and returns it to Idle
// so a new session can start. The caller constructs a new Recorder instead
// when options change.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateStopped {
		return
	}
	r.artifact = nil
	r.assembler = nil
	r.encoder = nil
	r.source = nil
	r.compositor = nil
	r.clock = nil
	r.pool = nil
	r.stopOnce = sync.Once{}
	r.done = make(chan struct{})
	r.durationSec.Store(0)
	r.state = StateIdle
}

// activeDuration computes elapsed recording time as of now, excluding paused
// intervals.
func (r *Recorder) activeDuration(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := now
	if r.state == StatePaused {
		ref = r.pauseStartedAt
	}
	d := ref.Sub(r.startedAt) - r.pausedAccum
	if d < 0 {
		d = 0
	}
	return d
}

// updateDuration publishes the whole-second duration, never decreasing.
func (r *Recorder) updateDuration(d time.Duration) {
	sec := int64(d / time.Second)
	for {
		cur := r.durationSec.Load()
		if sec <= cur {
			return
		}
		if r.durationSec.CompareAndSwap(cur, sec) {
			return
		}
	}
}

// durationLoop recomputes the published duration on a cadence much shorter
// than a second, so the whole-second value flips within 200ms of the true
// boundary regardless of pause timing.
func (r *Recorder) durationLoop() {
	defer r.loopWg.Done()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.loopQuit:
			return
		case now := <-ticker.C:
			r.updateDuration(r.activeDuration(now))
		}
	}
}

// statsLoop logs pipeline counters and process usage every 5 seconds.
func (r *Recorder) statsLoop() {
	defer r.loopWg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.loopQuit:
			return
		case <-ticker.C:
			snap := r.metrics.Snapshot()
			_, static := r.compositor.Differ().Stats()
			cpu, rss := processUsage()
			r.log.Debug("session stats",
				"composed", snap.FramesComposed,
				"dropped", r.source.Dropped(),
				"static", static,
				"chunks", snap.ChunksEmitted,
				"bytes", snap.BytesEncoded,
				"avgComposeMs", fmt.Sprintf("%.2f", snap.AvgComposeMs),
				"cpuPct", fmt.Sprintf("%.1f", cpu),
				"rssMB", rss/(1024*1024),
			)
		}
	}
}
