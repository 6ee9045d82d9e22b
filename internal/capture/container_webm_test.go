package capture

import (
	"bytes"
	"testing"
)

type silentAudio struct{}

func (silentAudio) SampleRate() int { return 8000 }
func (silentAudio) Channels() int   { return 1 }

func (silentAudio) ReadPCM(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}

func TestMatroskaWriterVideoOnly(t *testing.T) {
	w, err := newMatroskaWriter(BaselineFormat(), 64, 64, nil)
	if err != nil {
		t.Fatalf("newMatroskaWriter: %v", err)
	}

	if err := w.WriteVideo(0, true, []byte{0xFF, 0xD8, 0xFF, 0xD9}); err != nil {
		t.Fatalf("WriteVideo: %v", err)
	}
	// Audio writes on a video-only mux are silently dropped.
	if err := w.WriteAudio(0, []byte{0, 0}); err != nil {
		t.Fatalf("WriteAudio on video-only mux: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := w.TakeChunk()
	if len(data) == 0 {
		t.Fatal("no container bytes produced")
	}
	if !bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		t.Fatalf("stream does not start with EBML magic, got % x", data[:4])
	}
}

func TestMatroskaWriterWithPCMTrack(t *testing.T) {
	format := Format{ContainerMatroska, VideoMJPEG, AudioPCM}
	w, err := newMatroskaWriter(format, 64, 64, silentAudio{})
	if err != nil {
		t.Fatalf("newMatroskaWriter: %v", err)
	}
	if w.audio == nil {
		t.Fatal("pcm format must open an audio track")
	}

	if err := w.WriteVideo(0, true, []byte{0xFF, 0xD8, 0xFF, 0xD9}); err != nil {
		t.Fatalf("WriteVideo: %v", err)
	}
	if err := w.WriteAudio(0, make([]byte, 1600)); err != nil {
		t.Fatalf("WriteAudio: %v", err)
	}
	if err := w.WriteAudio(100, make([]byte, 1600)); err != nil {
		t.Fatalf("WriteAudio: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	data := w.TakeChunk()
	if len(data) == 0 {
		t.Fatal("no container bytes produced")
	}
	if !bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		t.Fatalf("stream does not start with EBML magic, got % x", data[:4])
	}
	// The PCM codec identifier must appear in the track headers.
	if !bytes.Contains(data, []byte("A_PCM/INT/LIT")) {
		t.Fatal("audio track codec ID missing from container")
	}
}
