package engine

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wrx-engine/archive"
	"github.com/wippyai/wrx-engine/config"
	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/resource"
	"github.com/wippyai/wrx-engine/script"
	"github.com/wippyai/wrx-engine/store"
	"github.com/wippyai/wrx-engine/value"
)

// Start mounts the application at appPath and boots it. An empty path
// selects archive.DefaultName.
func (e *Engine) Start(ctx context.Context, appPath string) error {
	arc, err := archive.Open(appPath)
	if err != nil {
		return err
	}
	if err := e.StartArchive(ctx, arc); err != nil {
		_ = arc.Close()
		return err
	}
	return nil
}

// StartArchive boots an already mounted application: it reads the
// configuration, preloads files into the object table, loads the script,
// calls its conf and start exports and starts the workers. The engine
// closes arc on Close.
func (e *Engine) StartArchive(ctx context.Context, arc *archive.Archive) error {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return errClosed()
	case e.arc != nil:
		e.mu.Unlock()
		return errors.New(errors.PhaseEngine, errors.KindInvalidInput).
			Detail("engine already started with %s", e.arc.Path()).
			Build()
	}
	e.mu.Unlock()

	cfg := e.Config()
	if e.opts.Config == nil {
		loaded, err := config.Load(arc.FS())
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := e.resizeObjects(cfg.Bits()); err != nil {
		return err
	}

	log := e.log.With(zap.String("app", arc.Path()))
	log.Info("starting",
		zap.String("title", cfg.Title),
		zap.Int("idBits", cfg.IDBits),
		zap.Int("fps", cfg.FPS),
		zap.Int("threads", cfg.Threads))

	if _, err := arc.LoadInto(e, cfg.Preload...); err != nil {
		return err
	}

	var sc *script.Script
	wasm, err := arc.ReadFile(cfg.Main)
	switch {
	case stderrors.Is(err, errors.ErrNotFound):
		log.Warn("no script, running without one", zap.String("main", cfg.Main))
	case err != nil:
		return err
	default:
		sc, err = script.Load(ctx, e, wasm, &script.Config{MemoryLimitPages: e.opts.MemoryLimitPages})
		if err != nil {
			return err
		}
		for _, entry := range []string{script.EntryConf, script.EntryStart} {
			if _, err := sc.Call(ctx, entry); err != nil {
				_ = sc.Close(ctx)
				return err
			}
		}
	}

	e.mu.Lock()
	e.cfg = cfg
	e.arc = arc
	e.script = sc
	e.pacer = NewPacer(cfg.FPS)
	if cfg.Threads > 0 {
		e.pool = startPool(context.WithoutCancel(ctx), e, cfg.Threads, cfg.Sleep)
	}
	e.mu.Unlock()
	return nil
}

// resizeObjects replaces the handle table when the configured width
// differs from the current one. Existing objects are released.
func (e *Engine) resizeObjects(bits resource.IDBits) error {
	var current resource.IDBits
	_ = e.objects.Do(func(t *resource.Trie[value.Value]) error {
		current = t.Bits()
		return nil
	})
	if current == bits {
		return nil
	}
	t, err := e.newTrie(bits)
	if err != nil {
		return err
	}
	releaseObjects(e.objects.Swap(t))
	return nil
}

func releaseObjects(t *resource.Trie[value.Value]) {
	t.Each(func(_ resource.Handle, v value.Value) bool {
		v.Release()
		return true
	})
	t.Clear()
}

// Update runs one frame: it waits for the frame deadline, drains shared
// objects when no workers are configured and calls the script's update.
func (e *Engine) Update(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errClosed()
	}
	pacer, sc, workers := e.pacer, e.script, e.pool != nil
	e.mu.Unlock()

	dt, err := pacer.Frame(ctx)
	if err != nil {
		return err
	}
	if !workers {
		e.DrainAll()
	}
	if sc == nil {
		return nil
	}
	if _, err := sc.Call(ctx, script.EntryUpdate); err != nil {
		return err
	}
	if dt > 2*pacer.Interval() {
		e.log.Debug("slow frame", zap.Duration("dt", dt), zap.Duration("interval", pacer.Interval()))
	}
	return nil
}

// Run calls Update until Stop is called or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errClosed()
	}
	if e.running {
		e.mu.Unlock()
		return errors.New(errors.PhaseEngine, errors.KindInvalidInput).
			Detail("engine already running").
			Build()
	}
	e.running = true
	e.stop = cancel
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.stop = nil
		e.mu.Unlock()
	}()

	start := time.Now()
	frames := 0
	for {
		if err := e.Update(ctx); err != nil {
			if ctx.Err() != nil {
				e.log.Debug("run loop stopped",
					zap.Int("frames", frames),
					zap.Duration("elapsed", time.Since(start)))
				return nil
			}
			return err
		}
		frames++
	}
}

// Stop ends a running Run loop. It does not wait for it to return.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		e.stop()
	}
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Close stops the engine and frees everything it owns.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.stop != nil {
		e.stop()
	}
	p, sc, arc := e.pool, e.script, e.arc
	e.pool, e.script = nil, nil
	e.mu.Unlock()

	if p != nil {
		p.stop()
	}
	var errs []error
	if sc != nil {
		errs = append(errs, sc.Close(ctx))
	}
	if arc != nil {
		errs = append(errs, arc.Close())
	}
	e.closeShares()
	errs = append(errs, e.values.Do(func(s *store.Values) error {
		return s.Close()
	}))
	_ = e.objects.Do(func(t *resource.Trie[value.Value]) error {
		e.objectsClosed = true
		releaseObjects(t)
		return nil
	})
	e.log.Debug("engine closed")
	return stderrors.Join(errs...)
}
