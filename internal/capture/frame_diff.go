package capture

import (
	"hash/crc32"
	"sync"
	"sync/atomic"
)

// frameDiffer detects frames identical to the previous one via CRC32 of the
// raw pixel data. The pipeline encodes every tick regardless (the output
// duration depends on it); the differ only feeds the static-frame counter in
// the session stats.
type frameDiffer struct {
	mu          sync.Mutex
	lastHash    uint32
	hasLastHash bool
	static      atomic.Uint64
	total       atomic.Uint64
}

func newFrameDiffer() *frameDiffer {
	return &frameDiffer{}
}

// HasChanged computes CRC32 of the Pix slice and returns true if it differs
// from the previous frame. Returns true on the first frame.
func (d *frameDiffer) HasChanged(pix []byte) bool {
	d.total.Add(1)
	h := crc32.ChecksumIEEE(pix)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasLastHash && h == d.lastHash {
		d.static.Add(1)
		return false
	}
	d.lastHash = h
	d.hasLastHash = true
	return true
}

// Reset clears the stored hash (e.g. when a new session starts).
func (d *frameDiffer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasLastHash = false
}

// Stats returns (total frames checked, frames unchanged).
func (d *frameDiffer) Stats() (total, static uint64) {
	return d.total.Load(), d.static.Load()
}
