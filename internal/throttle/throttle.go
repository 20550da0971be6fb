// Package throttle enforces the fixed minimum delay between successive
// SEC EDGAR requests. It is a plain pacer, not a backoff: the delay is a
// configuration constant and never adapts to responses.
package throttle

import (
	"context"
	"time"
)

// Pacer spaces out calls to a rate-limited source.
type Pacer struct {
	delay time.Duration
	last  time.Time
}

// NewPacer constructs a pacer with the given minimum inter-call delay.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks until at least the configured delay has elapsed since the
// previous Wait, or until ctx is cancelled. The first call never blocks.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	if !p.last.IsZero() {
		remaining := p.delay - time.Since(p.last)
		if remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.last = time.Now()
	return nil
}
