package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wrx-engine/share"
)

// pool runs the worker goroutines that drain shared objects. Registries
// are assigned to workers round-robin in creation order.
type pool struct {
	e      *Engine
	n      int
	sleep  time.Duration
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func startPool(ctx context.Context, e *Engine, n int, sleep time.Duration) *pool {
	ctx, cancel := context.WithCancel(ctx)
	p := &pool{e: e, n: n, sleep: sleep, cancel: cancel}
	for w := 0; w < n; w++ {
		p.wg.Add(1)
		go p.run(ctx, w)
	}
	e.log.Debug("workers started",
		zap.Int("threads", n),
		zap.Duration("sleep", sleep))
	return p
}

func (p *pool) run(ctx context.Context, w int) {
	defer p.wg.Done()
	t := time.NewTicker(p.sleep)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.e.drain(p.e.assigned(w, p.n))
		}
	}
}

func (p *pool) stop() {
	p.cancel()
	p.wg.Wait()
	p.e.log.Debug("workers stopped", zap.Int("threads", p.n))
}

// DrainAll drains every shared object on the calling goroutine and
// returns the number of values moved.
func (e *Engine) DrainAll() int {
	return e.drain(e.assigned(0, 1))
}

func (e *Engine) drain(regs []*share.Registry) int {
	total := 0
	for _, r := range regs {
		changes, err := r.Drain()
		if err != nil {
			e.log.Warn("drain failed",
				zap.String("share", r.Name().MustStr()),
				zap.Stringer("id", r.ID()),
				zap.Error(err))
		}
		if len(changes) == 0 {
			continue
		}
		total += len(changes)
		e.deliver(r.Name().MustStr(), changes)
	}
	return total
}

func (e *Engine) deliver(name string, changes []share.Change) {
	if e.opts.OnChange != nil {
		e.opts.OnChange(name, changes)
		return
	}
	for _, c := range changes {
		e.log.Debug("shared value",
			zap.String("share", name),
			zap.String("key", c.Key),
			zap.Stringer("value", c.Value))
		c.Value.Release()
	}
}
