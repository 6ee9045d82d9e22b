package capture

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/inkboard/recorder/internal/logging"
)

// Container identifies the output container format.
type Container string

// VideoCodec identifies the compressed video stream format.
type VideoCodec string

// AudioCodec identifies the audio stream format, or absence of one.
type AudioCodec string

const (
	ContainerMatroska Container = "matroska"

	VideoH264  VideoCodec = "h264"
	VideoMJPEG VideoCodec = "mjpeg"

	AudioPCM  AudioCodec = "pcm"
	AudioNone AudioCodec = ""
)

// Format is one container/codec combination the session can produce.
type Format struct {
	Container Container
	Video     VideoCodec
	Audio     AudioCodec
}

// MIME returns the full MIME type of the output, including codec parameters.
func (f Format) MIME() string {
	codecs := []string{string(f.Video)}
	if f.Audio != AudioNone {
		codecs = append(codecs, string(f.Audio))
	}
	return fmt.Sprintf("video/x-matroska;codecs=%s", strings.Join(codecs, ","))
}

func (f Format) String() string {
	if f.Audio == AudioNone {
		return fmt.Sprintf("%s/%s", f.Container, f.Video)
	}
	return fmt.Sprintf("%s/%s+%s", f.Container, f.Video, f.Audio)
}

// DefaultPreferences is the descending-preference format list tried during
// negotiation. Entries requiring audio are skipped for video-only sessions.
func DefaultPreferences() []Format {
	return []Format{
		{ContainerMatroska, VideoH264, AudioPCM},
		{ContainerMatroska, VideoH264, AudioNone},
		{ContainerMatroska, VideoMJPEG, AudioPCM},
		{ContainerMatroska, VideoMJPEG, AudioNone},
	}
}

// BaselineFormat is guaranteed to be supported on every build. Negotiation
// falls back to it when no preferred entry is available.
func BaselineFormat() Format {
	return Format{ContainerMatroska, VideoMJPEG, AudioNone}
}

// codecConfig parameterizes a video codec instance.
type codecConfig struct {
	Width     int
	Height    int
	FrameRate int
	Bitrate   int
}

// frameCodec compresses RGBA frames into the codec's bitstream.
type frameCodec interface {
	Encode(img *image.RGBA) (data []byte, keyframe bool, err error)
	Close()
}

// codecFactory probes availability and opens codec instances. NewCodec is
// only called after Supported returned true for the same config.
type codecFactory interface {
	Supported(cfg codecConfig) bool
	NewCodec(cfg codecConfig) (frameCodec, error)
}

var (
	codecRegistryMu sync.RWMutex
	codecRegistry   = map[VideoCodec]codecFactory{}
)

// RegisterVideoCodec installs a factory for the given codec, replacing any
// previous registration. Hardware-accelerated builds register their encoders
// from init functions.
func RegisterVideoCodec(c VideoCodec, f codecFactory) {
	codecRegistryMu.Lock()
	codecRegistry[c] = f
	codecRegistryMu.Unlock()
}

func lookupCodec(c VideoCodec) (codecFactory, bool) {
	codecRegistryMu.RLock()
	defer codecRegistryMu.RUnlock()
	f, ok := codecRegistry[c]
	return f, ok
}

// NegotiateFormat walks prefs in order and returns the first entry whose
// video codec has a factory reporting support for cfg, skipping entries that
// require audio when hasAudio is false. When nothing matches it returns the
// baseline format, which is always available.
func NegotiateFormat(prefs []Format, cfg codecConfig, hasAudio bool) Format {
	log := logging.L("encoder")
	for _, f := range prefs {
		if f.Audio != AudioNone && !hasAudio {
			continue
		}
		factory, ok := lookupCodec(f.Video)
		if !ok {
			continue
		}
		if !factory.Supported(cfg) {
			log.Debug("codec probe failed", "format", f.String())
			continue
		}
		return f
	}
	base := BaselineFormat()
	log.Debug("negotiation fell through to baseline", "format", base.String())
	return base
}

// encoderSession consumes the combined source, compresses video frames,
// muxes them with audio, and emits container chunks roughly once a second
// through the onChunk callback. A session is single-use.
type encoderSession struct {
	format Format
	cfg    codecConfig
	source *CombinedSource
	codec  frameCodec
	writer *matroskaWriter
	log    *slog.Logger

	onChunk func(media.Sample)
	onFatal func(error)

	paused    atomic.Bool
	fatalOnce sync.Once

	audioQuit chan struct{}
	emitQuit  chan struct{}
	wg        sync.WaitGroup
	emitWg    sync.WaitGroup

	stopOnce  sync.Once
	finalized chan struct{}
	finalErr  error
}

// newEncoderSession negotiates nothing; the caller passes the already
// negotiated format. onChunk receives container chunks in order; onFatal is
// called at most once if encoding fails mid-session.
func newEncoderSession(format Format, cfg codecConfig, source *CombinedSource, onChunk func(media.Sample), onFatal func(error)) (*encoderSession, error) {
	factory, ok := lookupCodec(format.Video)
	if !ok {
		return nil, fmt.Errorf("no codec registered for %q", format.Video)
	}
	codec, err := factory.NewCodec(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s codec: %w", format.Video, err)
	}

	writer, err := newMatroskaWriter(format, cfg.Width, cfg.Height, source.Audio())
	if err != nil {
		codec.Close()
		return nil, err
	}

	return &encoderSession{
		format:    format,
		cfg:       cfg,
		source:    source,
		codec:     codec,
		writer:    writer,
		log:       logging.L("encoder"),
		onChunk:   onChunk,
		onFatal:   onFatal,
		audioQuit: make(chan struct{}),
		emitQuit:  make(chan struct{}),
		finalized: make(chan struct{}),
	}, nil
}

// start launches the consume, audio and emit goroutines.
func (e *encoderSession) start() {
	e.wg.Add(1)
	go e.consumeLoop()

	if e.format.Audio != AudioNone && e.source.HasAudio() {
		e.wg.Add(1)
		go e.audioLoop()
	}

	e.emitWg.Add(1)
	go e.emitLoop()
}

func (e *encoderSession) setPaused(p bool) {
	e.paused.Store(p)
}

func (e *encoderSession) fatal(err error) {
	e.fatalOnce.Do(func() {
		e.log.Error("encoder failure", logging.KeyError, err)
		if e.onFatal != nil {
			e.onFatal(err)
		}
	})
}

func (e *encoderSession) consumeLoop() {
	defer e.wg.Done()

	for f := range e.source.Frames() {
		data, keyframe, err := e.codec.Encode(f.img)
		releaseFrame(f)
		if err != nil {
			e.fatal(fmt.Errorf("encode frame: %w", err))
			return
		}
		if err := e.writer.WriteVideo(f.pts.Milliseconds(), keyframe, data); err != nil {
			e.fatal(fmt.Errorf("mux frame: %w", err))
			return
		}
	}
}

// audioLoop pulls PCM from the audio source on a fixed cadence. While the
// session is paused the pulled samples are discarded, so paused wall time
// contributes no audio and the tracks stay aligned.
func (e *encoderSession) audioLoop() {
	defer e.wg.Done()

	src := e.source.Audio()
	// 100ms of s16le PCM per pull.
	bufLen := src.SampleRate() / 10 * src.Channels() * 2
	buf := make([]byte, bufLen)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var pts time.Duration
	for {
		select {
		case <-e.audioQuit:
			return
		case <-ticker.C:
		}

		n, err := src.ReadPCM(buf)
		if err != nil {
			e.log.Warn("audio read failed", logging.KeyError, err)
			return
		}
		if n == 0 || e.paused.Load() {
			continue
		}

		block := make([]byte, n)
		copy(block, buf[:n])
		if err := e.writer.WriteAudio(pts.Milliseconds(), block); err != nil {
			e.fatal(fmt.Errorf("mux audio: %w", err))
			return
		}
		bytesPerSecond := src.SampleRate() * src.Channels() * 2
		pts += time.Duration(n) * time.Second / time.Duration(bytesPerSecond)
	}
}

// emitLoop snapshots the mux buffer roughly once a second and hands each
// chunk to the session in emission order.
func (e *encoderSession) emitLoop() {
	defer e.emitWg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.emitQuit:
			return
		case now := <-ticker.C:
			if chunk := e.writer.TakeChunk(); chunk != nil {
				e.onChunk(media.Sample{Data: chunk, Timestamp: now})
			}
		}
	}
}

// stop drains and finalizes the session: the source is closed, the consume
// loop finishes the backlog, the container is closed and the final chunk is
// emitted. Blocks until finalization completes. Safe to call more than once;
// later calls wait for the first.
func (e *encoderSession) stop() error {
	e.stopOnce.Do(func() {
		close(e.audioQuit)
		e.source.Close()
		e.wg.Wait()

		close(e.emitQuit)
		e.emitWg.Wait()

		if err := e.writer.Close(); err != nil {
			e.finalErr = fmt.Errorf("finalize container: %w", err)
		}
		if chunk := e.writer.TakeChunk(); chunk != nil {
			e.onChunk(media.Sample{Data: chunk, Timestamp: time.Now()})
		}
		e.codec.Close()
		close(e.finalized)
	})
	<-e.finalized
	return e.finalErr
}

// Finalized is closed once the final container chunk has been emitted.
func (e *encoderSession) Finalized() <-chan struct{} {
	return e.finalized
}
