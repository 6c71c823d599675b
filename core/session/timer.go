package session

import (
	"context"
	"time"
)

// Countdown counts a fixed duration down in interval steps. Run invokes
// tick with the time remaining after every elapsed interval and expire
// exactly once when the duration runs out; cancelling ctx stops the
// countdown without expiring. Callbacks run sequentially on the countdown
// goroutine, so no tick follows expire.
type Countdown struct {
	duration time.Duration
	interval time.Duration
}

func NewCountdown(duration, interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{duration: duration, interval: interval}
}

func (c *Countdown) Run(ctx context.Context, tick func(remaining time.Duration), expire func()) {
	remaining := c.duration
	t := time.NewTicker(c.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			remaining -= c.interval
			if remaining <= 0 {
				if expire != nil {
					expire()
				}
				return
			}
			if tick != nil {
				tick(remaining)
			}
		}
	}
}
