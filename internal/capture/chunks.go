package capture

import (
	"sync"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
)

// chunkAssembler accumulates the container byte chunks the encoder session
// emits during recording. Chunks are appended in emission order; Assemble
// concatenates them once, after finalization, into the output artifact.
type chunkAssembler struct {
	mu     sync.Mutex
	chunks []media.Sample
	bytes  int
}

func newChunkAssembler() *chunkAssembler {
	return &chunkAssembler{}
}

func (a *chunkAssembler) Append(s media.Sample) {
	a.mu.Lock()
	a.chunks = append(a.chunks, s)
	a.bytes += len(s.Data)
	a.mu.Unlock()
}

func (a *chunkAssembler) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.chunks)
}

func (a *chunkAssembler) Bytes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bytes
}

// Assemble concatenates all chunks into one byte slice. Call only after the
// encoder session has finalized.
func (a *chunkAssembler) Assemble() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]byte, 0, a.bytes)
	for _, c := range a.chunks {
		out = append(out, c.Data...)
	}
	return out
}

// Artifact is the finished recording.
type Artifact struct {
	Data      []byte
	MIME      string
	Duration  time.Duration
	CreatedAt time.Time
}
