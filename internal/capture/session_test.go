package capture

import (
	"bytes"
	"errors"
	"image/color"
	"testing"
	"time"
)

func testRecorder() *Recorder {
	src := solidImage(320, 240, color.RGBA{120, 30, 30, 255})
	return NewRecorder(RecorderOptions{
		Region:    Region{Width: 320, Height: 240},
		Surfaces:  []Sampleable{NewImageSurface(src, 1)},
		FrameRate: 30,
	})
}

func TestRecorderStartWithoutRegion(t *testing.T) {
	r := NewRecorder(RecorderOptions{})
	err := r.Start()
	if !errors.Is(err, ErrNoRegion) {
		t.Fatalf("err = %v, want ErrNoRegion", err)
	}
	if r.State() != StateIdle {
		t.Fatalf("state = %s, want idle", r.State())
	}
}

func TestRecorderStartTwice(t *testing.T) {
	r := testRecorder()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(); err == nil {
		t.Fatal("second Start must fail")
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRecorderDurationExcludesPause(t *testing.T) {
	r := testRecorder()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	r.Pause()
	if r.State() != StatePaused {
		t.Fatalf("state = %s, want paused", r.State())
	}

	frozen := r.Duration()
	time.Sleep(600 * time.Millisecond)
	if got := r.Duration(); got != frozen {
		t.Fatalf("duration advanced during pause: %v -> %v", frozen, got)
	}

	r.Resume()
	if r.State() != StateRecording {
		t.Fatalf("state = %s, want recording", r.State())
	}
	time.Sleep(1100 * time.Millisecond)

	artifact, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Active time is roughly 2.2s; the paused 600ms must not count.
	if got := r.Duration(); got != 2*time.Second {
		t.Fatalf("duration = %v, want 2s", got)
	}
	if artifact.Duration < 2*time.Second || artifact.Duration > 2700*time.Millisecond {
		t.Fatalf("artifact duration = %v, want about 2.2s", artifact.Duration)
	}
}

func TestRecorderDurationNeverDecreases(t *testing.T) {
	r := testRecorder()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	last := time.Duration(0)
	deadline := time.Now().Add(1500 * time.Millisecond)
	for time.Now().Before(deadline) {
		got := r.Duration()
		if got < last {
			t.Fatalf("duration decreased: %v -> %v", last, got)
		}
		last = got
		time.Sleep(50 * time.Millisecond)
	}
}

func TestRecorderStopProducesArtifact(t *testing.T) {
	r := testRecorder()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(500 * time.Millisecond)
	artifact, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", r.State())
	}

	select {
	case <-r.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}

	if len(artifact.Data) == 0 {
		t.Fatal("artifact is empty")
	}
	if !bytes.HasPrefix(artifact.Data, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		t.Fatal("artifact does not start with EBML magic")
	}
	if artifact.MIME != "video/x-matroska;codecs=mjpeg" {
		t.Fatalf("MIME = %q", artifact.MIME)
	}
}

func TestRecorderStopIsIdempotent(t *testing.T) {
	r := testRecorder()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	first, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	second, err := r.Stop()
	if err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if first != second {
		t.Fatal("second Stop returned a different artifact")
	}
}

func TestRecorderStopFromIdleIsNoOp(t *testing.T) {
	r := testRecorder()
	artifact, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if artifact != nil {
		t.Fatal("idle recorder must not produce an artifact")
	}
	if r.State() != StateIdle {
		t.Fatalf("state = %s, want idle after stray Stop", r.State())
	}

	// A stray Stop must not poison the recorder: it still starts,
	// records and stops normally afterwards.
	if err := r.Start(); err != nil {
		t.Fatalf("Start after stray Stop: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	artifact, err = r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if artifact == nil || len(artifact.Data) == 0 {
		t.Fatal("no artifact after recording")
	}
	if r.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", r.State())
	}
}

func TestRecorderClearResetsToIdle(t *testing.T) {
	r := testRecorder()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	r.Clear()
	if r.State() != StateIdle {
		t.Fatalf("state = %s, want idle", r.State())
	}
	if r.Artifact() != nil {
		t.Fatal("artifact must be discarded by Clear")
	}

	// A cleared recorder records again.
	if err := r.Start(); err != nil {
		t.Fatalf("Start after Clear: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	artifact, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop after Clear: %v", err)
	}
	if len(artifact.Data) == 0 {
		t.Fatal("second session produced no artifact")
	}
}

func TestRecorderPauseResumeNoOpsInWrongStates(t *testing.T) {
	r := testRecorder()
	r.Pause()  // idle: no-op
	r.Resume() // idle: no-op
	if r.State() != StateIdle {
		t.Fatalf("state = %s, want idle", r.State())
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Resume() // recording: no-op
	if r.State() != StateRecording {
		t.Fatalf("state = %s, want recording", r.State())
	}
	r.Stop()
}

func TestRecorderEncodesWhilePaused(t *testing.T) {
	r := testRecorder()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	r.Pause()

	composed := r.Metrics().FramesComposed.Load()
	time.Sleep(300 * time.Millisecond)
	if got := r.Metrics().FramesComposed.Load(); got != composed {
		t.Fatalf("frames composed during pause: %d -> %d", composed, got)
	}
	r.Stop()
}
