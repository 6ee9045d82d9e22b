package capture

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/at-wat/ebml-go/mkvcore"
	"github.com/at-wat/ebml-go/webm"
)

// chunkBuffer is the io.WriteCloser the container muxer writes into. The
// emit loop periodically takes whatever bytes have accumulated, so the
// recording streams out in chunks instead of holding one giant buffer.
type chunkBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *chunkBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *chunkBuffer) Close() error { return nil }

// TakeChunk returns the accumulated bytes and resets the buffer. Returns nil
// when nothing has accumulated since the last take.
func (b *chunkBuffer) TakeChunk() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		return nil
	}
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	b.buf.Reset()
	return out
}

// matroskaWriter muxes encoded video (and optionally PCM audio) into a
// Matroska stream using ebml-go's simple block writer.
type matroskaWriter struct {
	out   *chunkBuffer
	video webm.BlockWriteCloser
	audio webm.BlockWriteCloser

	closeOnce sync.Once
	closeErr  error
}

func codecID(c VideoCodec) string {
	switch c {
	case VideoH264:
		return "V_MPEG4/ISO/AVC"
	default:
		return "V_MJPEG"
	}
}

// newMatroskaWriter opens a Matroska mux for one video track at the given
// dimensions plus an optional s16le PCM audio track.
func newMatroskaWriter(format Format, width, height int, audio AudioSource) (*matroskaWriter, error) {
	out := &chunkBuffer{}

	tracks := []webm.TrackEntry{
		{
			Name:        "Video",
			TrackNumber: 1,
			TrackUID:    1,
			CodecID:     codecID(format.Video),
			TrackType:   1,
			Video: &webm.Video{
				PixelWidth:  uint64(width),
				PixelHeight: uint64(height),
			},
		},
	}
	if format.Audio == AudioPCM && audio != nil {
		tracks = append(tracks, webm.TrackEntry{
			Name:        "Audio",
			TrackNumber: 2,
			TrackUID:    2,
			CodecID:     "A_PCM/INT/LIT",
			TrackType:   2,
			Audio: &webm.Audio{
				SamplingFrequency: float64(audio.SampleRate()),
				Channels:          uint64(audio.Channels()),
			},
		})
	}

	header := &webm.EBMLHeader{
		EBMLVersion:        1,
		EBMLReadVersion:    1,
		EBMLMaxIDLength:    4,
		EBMLMaxSizeLength:  8,
		DocType:            "matroska",
		DocTypeVersion:     4,
		DocTypeReadVersion: 2,
	}
	info := &webm.Info{
		TimecodeScale: 1_000_000, // 1ms timecodes
		MuxingApp:     "inkrec",
		WritingApp:    "inkrec",
	}

	writers, err := webm.NewSimpleBlockWriter(out, tracks,
		mkvcore.WithEBMLHeader(header),
		mkvcore.WithSegmentInfo(info),
	)
	if err != nil {
		return nil, fmt.Errorf("open matroska mux: %w", err)
	}

	w := &matroskaWriter{out: out, video: writers[0]}
	if len(writers) > 1 {
		w.audio = writers[1]
	}
	return w, nil
}

// WriteVideo appends one encoded frame at the given presentation timestamp
// in milliseconds.
func (w *matroskaWriter) WriteVideo(ptsMs int64, keyframe bool, data []byte) error {
	_, err := w.video.Write(keyframe, ptsMs, data)
	return err
}

// WriteAudio appends one PCM block at the given presentation timestamp in
// milliseconds. No-op when the mux has no audio track.
func (w *matroskaWriter) WriteAudio(ptsMs int64, data []byte) error {
	if w.audio == nil {
		return nil
	}
	_, err := w.audio.Write(true, ptsMs, data)
	return err
}

// TakeChunk drains bytes the muxer has flushed so far.
func (w *matroskaWriter) TakeChunk() []byte {
	return w.out.TakeChunk()
}

// Close finalizes the container. Remaining bytes are available through one
// last TakeChunk. Safe to call more than once.
func (w *matroskaWriter) Close() error {
	w.closeOnce.Do(func() {
		if w.audio != nil {
			if err := w.audio.Close(); err != nil {
				w.closeErr = err
			}
		}
		if err := w.video.Close(); err != nil && w.closeErr == nil {
			w.closeErr = err
		}
	})
	return w.closeErr
}
