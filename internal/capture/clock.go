package capture

import (
	"sync"
	"time"

	"github.com/inkboard/recorder/internal/logging"
)

// FrameClock drives the capture pipeline at a fixed frame rate. Each tick
// invokes the callback synchronously on the clock goroutine; if a tick
// callback overruns its interval the intervening ticker fires are dropped
// rather than queued, so the pipeline degrades to a lower effective frame
// rate under load instead of building a backlog.
//
// The clock keeps no notion of elapsed recording time. Duration accounting
// lives entirely in the session, so pausing the clock can never skew the
// reported duration.
type FrameClock struct {
	rate int
	tick func(now time.Time)

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewFrameClock creates a clock firing rate times per second. The callback
// runs on the clock's goroutine.
func NewFrameClock(rate int, tick func(now time.Time)) *FrameClock {
	if rate <= 0 {
		rate = 30
	}
	return &FrameClock{rate: rate, tick: tick}
}

// Interval returns the nominal spacing between ticks.
func (c *FrameClock) Interval() time.Duration {
	return time.Second / time.Duration(c.rate)
}

// Start begins ticking. Starting a running clock is a no-op. A stopped
// clock may be started again (pause/resume restarts the same clock).
func (c *FrameClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.wg.Add(1)
	go c.run(c.stop)
}

// Stop halts ticking and waits for any in-flight tick callback to return.
// After Stop no further callbacks fire until Start is called again. Stopping
// a stopped clock is a no-op.
func (c *FrameClock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stop)
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *FrameClock) run(stop chan struct{}) {
	defer c.wg.Done()

	log := logging.L("clock")
	interval := c.Interval()
	log.Debug("frame clock started", "rate", c.rate, "intervalMs", interval.Milliseconds())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.tick(now)
			// Discard any fire that accumulated while the callback ran.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}
