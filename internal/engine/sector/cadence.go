package sector

import (
	"context"
	"time"
)

// Cadence turns a variable frame delta into fixed-interval ticks.
type Cadence struct {
	Interval time.Duration
	elapsed  time.Duration
}

// Advance accumulates dt and reports whether a tick is due. At most one
// tick is reported per call; a long frame does not queue extra ticks.
func (c *Cadence) Advance(dt time.Duration) bool {
	if c.Interval <= 0 {
		return true
	}
	c.elapsed += dt
	if c.elapsed < c.Interval {
		return false
	}
	c.elapsed %= c.Interval
	return true
}

// Run ticks the streamer at interval until ctx is done.
func (s *Streamer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}
