package capture

import (
	"image"
	"testing"
	"time"
)

func testFrame(pts time.Duration) videoFrame {
	return videoFrame{img: image.NewRGBA(image.Rect(0, 0, 4, 4)), pts: pts}
}

func TestCombinedSourceDropsOldestWhenFull(t *testing.T) {
	src := NewCombinedSource(nil)

	for i := 0; i < frameQueueDepth+3; i++ {
		src.PushFrame(testFrame(time.Duration(i) * time.Millisecond))
	}

	if got := src.Dropped(); got != 3 {
		t.Fatalf("dropped = %d, want 3", got)
	}

	// The survivors are the newest frames, in order.
	src.Close()
	var pts []time.Duration
	for f := range src.Frames() {
		pts = append(pts, f.pts)
	}
	if len(pts) != frameQueueDepth {
		t.Fatalf("remaining frames = %d, want %d", len(pts), frameQueueDepth)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i] <= pts[i-1] {
			t.Fatalf("frames out of order: %v", pts)
		}
	}
	if pts[0] != 3*time.Millisecond {
		t.Fatalf("oldest surviving frame = %v, want 3ms (oldest dropped first)", pts[0])
	}
}

func TestCombinedSourceVideoOnly(t *testing.T) {
	src := NewCombinedSource(nil)
	if src.HasAudio() {
		t.Fatal("nil audio source should report no audio")
	}
	if src.Audio() != nil {
		t.Fatal("Audio() should be nil")
	}
	src.Close()
}

func TestCombinedSourceCloseIsIdempotent(t *testing.T) {
	src := NewCombinedSource(nil)
	src.PushFrame(testFrame(0))
	src.Close()
	src.Close()

	// Push after close is a no-op, not a panic.
	src.PushFrame(testFrame(time.Millisecond))

	n := 0
	for range src.Frames() {
		n++
	}
	if n != 1 {
		t.Fatalf("frames after close = %d, want the 1 queued before close", n)
	}
}
