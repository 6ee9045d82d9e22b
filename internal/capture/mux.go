package capture

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// videoFrame is one composed frame with its presentation timestamp relative
// to the start of active recording. Frames taken from the compose pool are
// returned to it by whoever consumes (or drops) them.
type videoFrame struct {
	img    *image.RGBA
	pts    time.Duration
	pooled bool
}

// CombinedSource joins the video frame stream and an optional audio source
// into the single input the encoder session consumes. Video frames flow
// through a small bounded channel; when the encoder falls behind, the oldest
// queued frame is dropped so the stream stays near-live rather than
// accumulating latency.
type CombinedSource struct {
	mu      sync.Mutex
	frames  chan videoFrame
	audio   AudioSource
	closed  bool
	dropped atomic.Uint64
}

const frameQueueDepth = 4

// NewCombinedSource creates a source carrying video frames and, when audio
// is non-nil, PCM audio.
func NewCombinedSource(audio AudioSource) *CombinedSource {
	return &CombinedSource{
		frames: make(chan videoFrame, frameQueueDepth),
		audio:  audio,
	}
}

// PushFrame enqueues a composed frame. If the queue is full the oldest frame
// is discarded to make room. Pushing after Close is a silent no-op.
func (s *CombinedSource) PushFrame(f videoFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		releaseFrame(f)
		return
	}

	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case old := <-s.frames:
			s.dropped.Add(1)
			releaseFrame(old)
		default:
		}
	}
}

// Frames returns the video frame channel. It is closed by Close.
func (s *CombinedSource) Frames() <-chan videoFrame {
	return s.frames
}

// Audio returns the audio source, or nil for a video-only session.
func (s *CombinedSource) Audio() AudioSource {
	return s.audio
}

// HasAudio reports whether the session carries an audio track.
func (s *CombinedSource) HasAudio() bool {
	return s.audio != nil
}

// Dropped returns the number of frames discarded due to encoder backlog.
func (s *CombinedSource) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops accepting frames and closes the frame channel. Frames already
// queued stay queued; the encoder drains them before finalizing. Safe to
// call more than once.
func (s *CombinedSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.frames)
}

func releaseFrame(f videoFrame) {
	if f.pooled {
		composeImagePool.Put(f.img)
	}
}
