package core

import (
	"context"
	"time"
)

// FixedStep paces generations at a steady ticks-per-second rate. A FixedStep
// with a non-positive rate never waits.
type FixedStep struct {
	step time.Duration
	next time.Time
	now  func() time.Time
}

// NewFixedStep constructs a FixedStep controller targeting the given TPS.
func NewFixedStep(tps int) *FixedStep {
	fs := &FixedStep{now: time.Now}
	fs.SetTPS(tps)
	return fs
}

// SetTPS changes the tick rate. Zero or negative disables pacing.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		f.step = 0
		return
	}
	f.step = time.Second / time.Duration(tps)
}

// Interval returns the duration of one tick, or zero when unpaced.
func (f *FixedStep) Interval() time.Duration { return f.step }

// Wait blocks until the next tick is due or ctx is done. Ticks missed while
// the caller was busy are dropped rather than replayed in a burst.
func (f *FixedStep) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.step <= 0 {
		return nil
	}
	now := f.now()
	if f.next.IsZero() || f.next.Before(now) {
		f.next = now
	}
	delay := f.next.Sub(now)
	f.next = f.next.Add(f.step)
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
