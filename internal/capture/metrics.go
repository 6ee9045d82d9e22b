package capture

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// StreamMetrics tracks pipeline counters for the periodic stats log. All
// fields are updated atomically from the clock, compositor and encoder
// goroutines.
type StreamMetrics struct {
	FramesComposed atomic.Uint64
	FramesEncoded  atomic.Uint64
	FramesDropped  atomic.Uint64
	FramesStatic   atomic.Uint64
	ChunksEmitted  atomic.Uint64
	BytesEncoded   atomic.Uint64

	composeNanos atomic.Uint64
}

// RecordCompose accumulates one compose pass.
func (m *StreamMetrics) RecordCompose(d time.Duration) {
	m.FramesComposed.Add(1)
	m.composeNanos.Add(uint64(d.Nanoseconds()))
}

// MetricsSnapshot is one point-in-time read of the counters.
type MetricsSnapshot struct {
	FramesComposed uint64
	FramesEncoded  uint64
	FramesDropped  uint64
	FramesStatic   uint64
	ChunksEmitted  uint64
	BytesEncoded   uint64
	AvgComposeMs   float64
}

// Snapshot reads all counters.
func (m *StreamMetrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		FramesComposed: m.FramesComposed.Load(),
		FramesEncoded:  m.FramesEncoded.Load(),
		FramesDropped:  m.FramesDropped.Load(),
		FramesStatic:   m.FramesStatic.Load(),
		ChunksEmitted:  m.ChunksEmitted.Load(),
		BytesEncoded:   m.BytesEncoded.Load(),
	}
	if s.FramesComposed > 0 {
		s.AvgComposeMs = float64(m.composeNanos.Load()) / float64(s.FramesComposed) / 1e6
	}
	return s
}

// processUsage returns the recorder's own CPU percentage and RSS bytes for
// the stats log. Errors are swallowed; zeros mean "unavailable".
func processUsage() (cpuPercent float64, rssBytes uint64) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0
	}
	if pct, err := p.CPUPercent(); err == nil {
		cpuPercent = pct
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		rssBytes = mem.RSS
	}
	return cpuPercent, rssBytes
}
