package share

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/store"
	"github.com/wippyai/wrx-engine/value"
)

// Change is one entry moved from pending to current by Drain.
// Value is a copy owned by the receiver.
type Change struct {
	Key   string
	Value value.Value
}

// Registry carries values published by one goroutine to readers on
// others. Published values stay pending until Drain merges them into the
// current table; Read only sees the current table.
//
// Every method takes the registry's own lock. Values are copied on the way
// in and on the way out, so no buffer is shared across goroutines.
type Registry struct {
	mu      sync.Mutex
	id      uuid.UUID
	name    value.Value
	current *store.Values
	pending *store.Values
	closed  bool
}

// New creates an empty registry labeled name.
func New(name string, opts ...store.Option) *Registry {
	return &Registry{
		id:      uuid.New(),
		name:    value.NewString("name", name),
		current: store.NewValues(opts...),
		pending: store.NewValues(opts...),
	}
}

// Name returns the registry label.
func (r *Registry) Name() value.Value { return r.name }

// ID identifies this registry instance in logs.
func (r *Registry) ID() uuid.UUID { return r.id }

// Publish queues a copy of v under key. A later Publish of the same key
// before the next Drain replaces it.
func (r *Registry) Publish(key string, v value.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.closedErr()
	}
	if err := r.pending.Put(key, v); err != nil {
		return errors.Wrap(errors.PhaseShare, errors.KindAllocation, err, "publish "+key)
	}
	return nil
}

// Drain moves every pending entry into the current table and returns the
// moved entries sorted by key.
func (r *Registry) Drain() ([]Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, r.closedErr()
	}
	if r.pending.Len() == 0 {
		return nil, nil
	}

	keys := r.pending.Keys()
	changes := make([]Change, 0, len(keys))
	for _, k := range keys {
		v, _ := r.pending.Take(k)
		out, err := v.Clone()
		if err != nil {
			// Put the entry back so the next Drain retries it.
			_ = r.pending.Adopt(k, v)
			return changes, errors.Wrap(errors.PhaseShare, errors.KindAllocation, err, "drain "+k)
		}
		if err := r.current.Adopt(k, v); err != nil {
			out.Release()
			_ = r.pending.Adopt(k, v)
			return changes, errors.Wrap(errors.PhaseShare, errors.KindAllocation, err, "drain "+k)
		}
		changes = append(changes, Change{Key: k, Value: out})
	}
	return changes, nil
}

// Read returns a copy of the current value under key. Pending values are
// not visible until drained.
func (r *Registry) Read(key string) (value.Value, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return value.Value{}, false, r.closedErr()
	}
	v, ok := r.current.Get(key)
	if !ok {
		return value.Value{}, false, nil
	}
	out, err := v.Clone()
	if err != nil {
		return value.Value{}, false, errors.Wrap(errors.PhaseShare, errors.KindAllocation, err, "read "+key)
	}
	return out, true, nil
}

// Pending returns the number of entries waiting for Drain.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending.Len()
}

// Len returns the number of entries in the current table.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Len()
}

// Keys returns the current keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Keys()
}

// Close frees both tables. Later calls report a closed error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	_ = r.pending.Close()
	_ = r.current.Close()
	return nil
}

func (r *Registry) closedErr() error {
	return errors.Closed(errors.PhaseShare, "registry "+r.name.MustStr())
}
