package engine

import (
	"context"
	"time"

	"github.com/wippyai/wrx-engine/config"
)

// Pacer spaces frames at a fixed rate.
type Pacer struct {
	interval time.Duration
	next     time.Time
	last     time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewPacer creates a pacer for fps frames per second, clamped to
// [config.MinFPS, config.MaxFPS].
func NewPacer(fps int) *Pacer {
	return &Pacer{
		interval: time.Second / time.Duration(config.ClampFPS(fps)),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Interval returns the frame duration.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Frame waits until the next frame is due and returns the time since the
// previous frame. The first call returns immediately with zero.
func (p *Pacer) Frame(ctx context.Context) (time.Duration, error) {
	now := p.now()
	if p.last.IsZero() {
		p.last = now
		p.next = now.Add(p.interval)
		return 0, nil
	}
	if wait := p.next.Sub(now); wait > 0 {
		if err := p.sleep(ctx, wait); err != nil {
			return 0, err
		}
		now = p.now()
	}
	dt := now.Sub(p.last)
	p.last = now
	p.next = now.Add(p.interval)
	return dt, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
