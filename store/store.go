package store

import (
	"math/bits"
	"sort"

	"github.com/wippyai/wrx-engine/errors"
)

const (
	// DefaultCapacity is the initial bucket count.
	DefaultCapacity = 1 << 8
	// DefaultMaxCapacity bounds growth; growing past it is an allocation failure.
	DefaultMaxCapacity = 1 << 30

	minCapacity  = 8
	loadFactor   = 0.75
	growthFactor = 4
)

// ValueOps tells the store how to copy a value in and free it on the way out.
type ValueOps[V any] struct {
	// Clone returns an owned copy of v. Nil means values are stored as given.
	Clone func(v V) (V, error)
	// Release frees an owned value. Nil means nothing to free.
	Release func(v V)
}

type slotState uint8

const (
	slotEmpty slotState = iota
	slotTombstone
	slotOccupied
)

type slot[V any] struct {
	value V
	key   string
	hash  uint32
	state slotState
}

// Store is an open-addressing hash table from string keys to owned values,
// probed linearly.
//
// Store is not safe for concurrent use; the owner must serialize access.
type Store[V any] struct {
	ops        ValueOps[V]
	hasher     func(string) uint32
	slots      []slot[V]
	size       int
	tombstones int
	maxCap     int
	closed     bool
}

// Option configures a Store.
type Option func(*config)

type config struct {
	hasher   func(string) uint32
	capacity int
	maxCap   int
}

// WithCapacity sets the initial bucket count, rounded up to a power of two.
func WithCapacity(n int) Option {
	return func(c *config) { c.capacity = n }
}

// WithMaxCapacity caps the bucket count growth may reach.
func WithMaxCapacity(n int) Option {
	return func(c *config) { c.maxCap = n }
}

// WithHasher replaces the key hash function.
func WithHasher(h func(string) uint32) Option {
	return func(c *config) { c.hasher = h }
}

// New creates a store using ops for value ownership.
func New[V any](ops ValueOps[V], opts ...Option) *Store[V] {
	cfg := config{
		hasher:   Hash,
		capacity: DefaultCapacity,
		maxCap:   DefaultMaxCapacity,
	}
	for _, o := range opts {
		o(&cfg)
	}

	capacity := roundPow2(cfg.capacity)
	maxCap := roundPow2(cfg.maxCap)
	if maxCap < capacity {
		maxCap = capacity
	}

	return &Store[V]{
		ops:    ops,
		hasher: cfg.hasher,
		slots:  make([]slot[V], capacity),
		maxCap: maxCap,
	}
}

func roundPow2(n int) int {
	if n < minCapacity {
		return minCapacity
	}
	if n > 1<<(bits.UintSize-2) {
		return 1 << (bits.UintSize - 2)
	}
	return 1 << bits.Len(uint(n-1))
}

// Len returns the number of live entries.
func (s *Store[V]) Len() int { return s.size }

// Cap returns the bucket count.
func (s *Store[V]) Cap() int { return len(s.slots) }

// Tombstones returns the number of deleted slots not yet purged by a rehash.
func (s *Store[V]) Tombstones() int { return s.tombstones }

// LoadFactor returns live entries over capacity.
func (s *Store[V]) LoadFactor() float64 {
	return float64(s.size) / float64(len(s.slots))
}

// Put stores an owned copy of v under key, replacing any existing value.
func (s *Store[V]) Put(key string, v V) error {
	if s.closed {
		return errors.Closed(errors.PhaseStore, "store")
	}
	owned, err := s.clone(key, v)
	if err != nil {
		return err
	}
	if err := s.insert(key, owned); err != nil {
		s.release(owned)
		return err
	}
	return nil
}

// Adopt stores v under key without copying it; the store takes ownership.
// On error ownership stays with the caller.
func (s *Store[V]) Adopt(key string, v V) error {
	if s.closed {
		return errors.Closed(errors.PhaseStore, "store")
	}
	return s.insert(key, v)
}

func (s *Store[V]) insert(key string, v V) error {
	h := s.hasher(key)
	idx, found := s.probe(key, h, true)
	if found {
		sl := &s.slots[idx]
		s.release(sl.value)
		sl.value = v
		return nil
	}

	// Only a new entry can trigger growth.
	capacity, tombstones := len(s.slots), s.tombstones
	if err := s.reserve(); err != nil {
		return err
	}
	if len(s.slots) != capacity || s.tombstones != tombstones {
		idx, _ = s.probe(key, h, true)
	}
	sl := &s.slots[idx]

	if sl.state == slotTombstone {
		s.tombstones--
	}
	*sl = slot[V]{value: v, key: key, hash: h, state: slotOccupied}
	s.size++
	return nil
}

// Get returns the stored value for key. The value is the store's own copy.
func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	if s.closed || s.size == 0 {
		return zero, false
	}
	idx, found := s.probe(key, s.hasher(key), false)
	if !found {
		return zero, false
	}
	return s.slots[idx].value, true
}

// Has reports whether key is present.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete frees the value under key and tombstones its slot.
// Deleting a missing key is a no-op.
func (s *Store[V]) Delete(key string) {
	if v, ok := s.Take(key); ok {
		s.release(v)
	}
}

// Take removes key and hands its value to the caller without freeing it.
func (s *Store[V]) Take(key string) (V, bool) {
	var zero V
	if s.closed || s.size == 0 {
		return zero, false
	}
	idx, found := s.probe(key, s.hasher(key), false)
	if !found {
		return zero, false
	}
	sl := &s.slots[idx]
	v := sl.value
	*sl = slot[V]{state: slotTombstone}
	s.size--
	s.tombstones++
	return v, true
}

// probe walks the linear probe sequence for key. It returns the matching
// slot and true, or, when forInsert is set, the slot a new entry belongs in:
// the first tombstone passed, else the empty slot that ended the walk.
// The walk visits each slot at most once.
func (s *Store[V]) probe(key string, h uint32, forInsert bool) (int, bool) {
	capacity := len(s.slots)
	mask := capacity - 1
	idx := int(h) & mask
	firstFree := -1

	for range capacity {
		sl := &s.slots[idx]
		switch sl.state {
		case slotEmpty:
			if firstFree < 0 {
				firstFree = idx
			}
			return firstFree, false
		case slotTombstone:
			if firstFree < 0 {
				firstFree = idx
			}
		case slotOccupied:
			if sl.hash == h && sl.key == key {
				return idx, true
			}
		}
		idx = (idx + 1) & mask
	}

	if forInsert && firstFree < 0 {
		// reserve guarantees a free slot before any insert walk
		panic("store: no free slot after reserve")
	}
	return firstFree, false
}

// reserve runs before every insert. Live load above the threshold grows
// the table; tombstone pressure alone rehashes at the same capacity so an
// empty slot always ends the probe walk.
func (s *Store[V]) reserve() error {
	capacity := float64(len(s.slots))
	switch {
	case float64(s.size)/capacity > loadFactor:
		return s.Grow()
	case float64(s.size+s.tombstones)/capacity > loadFactor:
		return s.rehash(len(s.slots))
	}
	return nil
}

// Grow rehashes into a table growthFactor times larger, dropping tombstones.
func (s *Store[V]) Grow() error {
	capacity := len(s.slots)
	if capacity > s.maxCap/growthFactor {
		return errors.AllocationFailed(errors.PhaseStore, "bucket array", uint64(capacity)*growthFactor)
	}
	return s.rehash(capacity * growthFactor)
}

func (s *Store[V]) rehash(capacity int) (err error) {
	defer func() {
		// make panics on lengths the runtime cannot satisfy
		if r := recover(); r != nil {
			err = errors.AllocationFailed(errors.PhaseStore, "bucket array", uint64(capacity))
		}
	}()

	old := s.slots
	s.slots = make([]slot[V], capacity)
	s.tombstones = 0
	mask := capacity - 1

	for i := range old {
		sl := &old[i]
		if sl.state != slotOccupied {
			continue
		}
		idx := int(sl.hash) & mask
		for s.slots[idx].state != slotEmpty {
			idx = (idx + 1) & mask
		}
		s.slots[idx] = *sl
	}
	return nil
}

// Keys returns the live keys in sorted order.
func (s *Store[V]) Keys() []string {
	keys := make([]string, 0, s.size)
	for i := range s.slots {
		if s.slots[i].state == slotOccupied {
			keys = append(keys, s.slots[i].key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for each live entry in bucket order until fn returns false.
// fn must not modify the store.
func (s *Store[V]) Range(fn func(key string, v V) bool) {
	for i := range s.slots {
		sl := &s.slots[i]
		if sl.state == slotOccupied && !fn(sl.key, sl.value) {
			return
		}
	}
}

// Clear frees every value and resets the table to its current capacity.
func (s *Store[V]) Clear() {
	for i := range s.slots {
		if s.slots[i].state == slotOccupied {
			s.release(s.slots[i].value)
		}
	}
	clear(s.slots)
	s.size = 0
	s.tombstones = 0
}

// Close frees every value. Later writes fail and reads miss.
func (s *Store[V]) Close() error {
	if s.closed {
		return nil
	}
	s.Clear()
	s.closed = true
	return nil
}

func (s *Store[V]) clone(key string, v V) (V, error) {
	if s.ops.Clone == nil {
		return v, nil
	}
	owned, err := s.ops.Clone(v)
	if err != nil {
		var zero V
		return zero, errors.New(errors.PhaseStore, errors.KindAllocation).
			Path(key).
			Detail("copy value").
			Cause(err).
			Build()
	}
	return owned, nil
}

func (s *Store[V]) release(v V) {
	if s.ops.Release != nil {
		s.ops.Release(v)
	}
}
