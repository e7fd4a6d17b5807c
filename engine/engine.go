package engine

import (
	"context"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wrx-engine/archive"
	"github.com/wippyai/wrx-engine/config"
	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/resource"
	"github.com/wippyai/wrx-engine/script"
	"github.com/wippyai/wrx-engine/share"
	"github.com/wippyai/wrx-engine/store"
	"github.com/wippyai/wrx-engine/value"
)

// Options configures a new Engine.
type Options struct {
	// Config replaces the configuration read from the application.
	Config *config.Config

	// Logger overrides the package logger for this engine.
	Logger *zap.Logger

	// StoreOptions tune the named object table.
	StoreOptions []store.Option

	// MemoryLimitPages caps script memory in 64KiB pages.
	MemoryLimitPages uint32

	// OnChange receives values drained by workers. The receiver owns the
	// values. When nil they are logged and released.
	OnChange func(shareName string, changes []share.Change)

	// OnEmit receives script output lines.
	OnEmit func(msg string)
}

// Engine owns the object tables, shared objects, workers and script of one
// running application. Engines are independent; any number may coexist.
type Engine struct {
	opts Options
	log  *zap.Logger
	cfg  config.Config

	values  *Guard[*store.Values]
	objects *Guard[*resource.Trie[value.Value]]
	// objectsClosed is guarded by objects.
	objectsClosed bool

	sharesMu sync.Mutex
	shares   map[string]*share.Registry
	order    []string

	arc    *archive.Archive
	script *script.Script
	pacer  *Pacer
	pool   *pool

	mu      sync.Mutex
	running bool
	stop    context.CancelFunc
	closed  bool
}

var _ script.Env = (*Engine)(nil)

// New creates an engine. Nothing is loaded until Start.
func New(opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	e := &Engine{
		opts:   opts,
		log:    log,
		cfg:    cfg,
		values: NewGuard(store.NewValues(opts.StoreOptions...)),
		shares: make(map[string]*share.Registry),
		pacer:  NewPacer(cfg.FPS),
	}
	trie, err := e.newTrie(cfg.Bits())
	if err != nil {
		return nil, err
	}
	e.objects = NewGuard(trie)
	return e, nil
}

func (e *Engine) newTrie(bits resource.IDBits) (*resource.Trie[value.Value], error) {
	t, err := resource.NewTrie[value.Value](bits)
	if err != nil {
		return nil, err
	}
	if e.log.Core().Enabled(zap.DebugLevel) {
		t.Subscribe(resource.ObserverFunc(func(ev resource.Event) {
			e.log.Debug("object handle",
				zap.Uint32("handle", uint32(ev.Handle)),
				zap.Stringer("event", ev.Type))
		}))
	}
	return t, nil
}

// Config returns the active configuration.
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func errClosed() error {
	return errors.Closed(errors.PhaseEngine, "engine")
}

// Put stores a copy of v under key in the named object table.
func (e *Engine) Put(key string, v value.Value) error {
	if e.isClosed() {
		return errClosed()
	}
	return e.values.Do(func(s *store.Values) error {
		return s.Put(key, v)
	})
}

// Get returns a copy of the value under key. The caller owns the copy.
func (e *Engine) Get(key string) (value.Value, bool, error) {
	if e.isClosed() {
		return value.Value{}, false, errClosed()
	}
	var (
		out   value.Value
		found bool
	)
	err := e.values.Do(func(s *store.Values) error {
		v, ok := s.Get(key)
		if !ok {
			return nil
		}
		c, err := v.Clone()
		if err != nil {
			return err
		}
		out, found = c, true
		return nil
	})
	return out, found, err
}

// Delete frees the value under key and reports whether it existed.
func (e *Engine) Delete(key string) (bool, error) {
	if e.isClosed() {
		return false, errClosed()
	}
	var found bool
	err := e.values.Do(func(s *store.Values) error {
		var v value.Value
		v, found = s.Take(key)
		if found {
			v.Release()
		}
		return nil
	})
	return found, err
}

// Len returns the number of named objects.
func (e *Engine) Len() int {
	var n int
	_ = e.values.Do(func(s *store.Values) error {
		n = s.Len()
		return nil
	})
	return n
}

// Keys returns the named object keys in sorted order.
func (e *Engine) Keys() []string {
	var keys []string
	_ = e.values.Do(func(s *store.Values) error {
		keys = s.Keys()
		return nil
	})
	return keys
}

// Describe writes the named object table in a stable text form.
func (e *Engine) Describe(w io.Writer) error {
	return e.values.Do(func(s *store.Values) error {
		return s.Describe(w)
	})
}

// NewObject stores a copy of v under a fresh handle. The handle counter
// advances under the same lock as the trie.
func (e *Engine) NewObject(v value.Value) (resource.Handle, error) {
	if e.isClosed() {
		return 0, errClosed()
	}
	owned, err := v.Clone()
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEngine, errors.KindAllocation, err, "copy object")
	}
	var h resource.Handle
	err = e.objects.Do(func(t *resource.Trie[value.Value]) error {
		if e.objectsClosed {
			return errClosed()
		}
		var err error
		if h, err = t.Allocate(); err != nil {
			return err
		}
		return t.Insert(h, owned)
	})
	if err != nil {
		owned.Release()
		return 0, err
	}
	return h, nil
}

// Object returns a copy of the object at h.
func (e *Engine) Object(h resource.Handle) (value.Value, bool, error) {
	if e.isClosed() {
		return value.Value{}, false, errClosed()
	}
	var (
		out   value.Value
		found bool
	)
	err := e.objects.Do(func(t *resource.Trie[value.Value]) error {
		v, ok := t.Lookup(h)
		if !ok {
			return nil
		}
		c, err := v.Clone()
		if err != nil {
			return err
		}
		out, found = c, true
		return nil
	})
	return out, found, err
}

// ReleaseObject removes h and frees its value.
func (e *Engine) ReleaseObject(h resource.Handle) (bool, error) {
	if e.isClosed() {
		return false, errClosed()
	}
	var found bool
	err := e.objects.Do(func(t *resource.Trie[value.Value]) error {
		var v value.Value
		v, found = t.Remove(h)
		if found {
			v.Release()
		}
		return nil
	})
	return found, err
}

// Objects returns the number of live handles.
func (e *Engine) Objects() int {
	var n int
	_ = e.objects.Do(func(t *resource.Trie[value.Value]) error {
		n = t.Len()
		return nil
	})
	return n
}

// Share returns the shared object registered under name, creating it on
// first use.
func (e *Engine) Share(name string) (*share.Registry, error) {
	if e.isClosed() {
		return nil, errClosed()
	}
	e.sharesMu.Lock()
	defer e.sharesMu.Unlock()
	if r, ok := e.shares[name]; ok {
		return r, nil
	}
	r := share.New(name, e.opts.StoreOptions...)
	e.shares[name] = r
	e.order = append(e.order, name)
	e.log.Debug("shared object created",
		zap.String("name", name),
		zap.Stringer("id", r.ID()))
	return r, nil
}

// Shares returns the shared object names in creation order.
func (e *Engine) Shares() []string {
	e.sharesMu.Lock()
	defer e.sharesMu.Unlock()
	return append([]string(nil), e.order...)
}

// Publish queues v under key on the named shared object, creating the
// object on first publish.
func (e *Engine) Publish(name, key string, v value.Value) error {
	r, err := e.Share(name)
	if err != nil {
		return err
	}
	return r.Publish(key, v)
}

// Read returns the drained value under key on the named shared object.
// An unknown name reads as missing and does not create the object.
func (e *Engine) Read(name, key string) (value.Value, bool, error) {
	if e.isClosed() {
		return value.Value{}, false, errClosed()
	}
	e.sharesMu.Lock()
	r, ok := e.shares[name]
	e.sharesMu.Unlock()
	if !ok {
		return value.Value{}, false, nil
	}
	return r.Read(key)
}

// Emit logs a line of script output and forwards it to Options.OnEmit.
func (e *Engine) Emit(msg string) {
	e.log.Info("script", zap.String("msg", msg))
	if e.opts.OnEmit != nil {
		e.opts.OnEmit(msg)
	}
}

// assigned returns the registries owned by worker w of n.
func (e *Engine) assigned(w, n int) []*share.Registry {
	e.sharesMu.Lock()
	defer e.sharesMu.Unlock()
	var regs []*share.Registry
	for i, name := range e.order {
		if i%n == w {
			regs = append(regs, e.shares[name])
		}
	}
	return regs
}

func (e *Engine) closeShares() {
	e.sharesMu.Lock()
	defer e.sharesMu.Unlock()
	names := make([]string, 0, len(e.shares))
	for name := range e.shares {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_ = e.shares[name].Close()
	}
}
