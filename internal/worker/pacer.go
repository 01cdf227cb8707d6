package worker

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer inserts jittered delays between platform calls. Every delay is drawn
// from [base, 2*base) so that no two waits share a fixed interval.
type Pacer struct {
	base   time.Duration
	int64N func(n int64) int64
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer with the given base interval
func NewPacer(base time.Duration) *Pacer {
	return &Pacer{
		base:   base,
		int64N: rand.Int64N,
		sleep:  sleepContext,
	}
}

// NewPacerWith creates a pacer with injected jitter and sleep functions
func NewPacerWith(base time.Duration, int64N func(n int64) int64, sleep func(ctx context.Context, d time.Duration) error) *Pacer {
	p := NewPacer(base)
	if int64N != nil {
		p.int64N = int64N
	}
	if sleep != nil {
		p.sleep = sleep
	}
	return p
}

// Base returns the pacing interval
func (p *Pacer) Base() time.Duration {
	return p.base
}

// Jitter returns base plus a uniform random share of base
func (p *Pacer) Jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return base + time.Duration(p.int64N(int64(base)))
}

// Pause sleeps for one jittered pacing interval
func (p *Pacer) Pause(ctx context.Context) error {
	return p.Wait(ctx, p.base)
}

// Wait sleeps for a jittered delay around base
func (p *Pacer) Wait(ctx context.Context, base time.Duration) error {
	d := p.Jitter(base)
	if d <= 0 {
		return nil
	}
	return p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
