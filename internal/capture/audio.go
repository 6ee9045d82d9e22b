package capture

// AudioSource delivers raw signed 16-bit little-endian interleaved PCM.
// ReadPCM fills buf with up to len(buf) bytes and returns the number of
// bytes written, blocking until at least one full sample frame is available.
type AudioSource interface {
	SampleRate() int
	Channels() int
	ReadPCM(buf []byte) (int, error)
}
