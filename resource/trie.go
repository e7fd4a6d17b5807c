package resource

import (
	"github.com/wippyai/wrx-engine/errors"
)

type node[T any] struct {
	children [Fanout]*node[T]
	values   [Fanout]T
	present  uint16
}

// Trie maps handles to references through a radix trie of fixed depth.
// Each level consumes BitsPerLevel bits of the handle, most significant
// group first. Nodes are allocated on first insert along a path and are
// never moved or compacted.
//
// A Trie never owns its values. It is not safe for concurrent use; the
// handle counter must be advanced under the same lock that guards the trie.
type Trie[T any] struct {
	root      *node[T]
	bits      IDBits
	depth     int
	next      uint64
	count     int
	observers []subscription
	seq       int
}

type subscription struct {
	id int
	o  Observer
}

// NewTrie creates an empty trie for the given id width.
func NewTrie[T any](bits IDBits) (*Trie[T], error) {
	if _, err := ParseIDBits(int(bits)); err != nil {
		return nil, err
	}
	return &Trie[T]{bits: bits, depth: bits.Depth()}, nil
}

// Bits returns the configured id width.
func (t *Trie[T]) Bits() IDBits { return t.bits }

// Depth returns the number of levels between the root and a leaf.
func (t *Trie[T]) Depth() int { return t.depth }

// Len returns the number of handles currently holding a reference.
func (t *Trie[T]) Len() int { return t.count }

// Next returns the handle the next Allocate call will return.
func (t *Trie[T]) Next() uint64 { return t.next }

// Allocate reserves the next handle. Handles are never reused.
func (t *Trie[T]) Allocate() (Handle, error) {
	if t.next > uint64(t.bits.Max()) {
		return 0, errors.IDExhausted(int(t.bits), t.next)
	}
	h := Handle(t.next)
	t.next++
	return h, nil
}

func (t *Trie[T]) digit(h Handle, level int) int {
	shift := (t.depth - 1 - level) * BitsPerLevel
	return int(h>>shift) & (Fanout - 1)
}

func (t *Trie[T]) check(h Handle) error {
	if h > t.bits.Max() {
		return errors.New(errors.PhaseTrie, errors.KindInvalidInput).
			Value(h).
			Detail("handle %d exceeds %d-bit identity space", h, t.bits).
			Build()
	}
	return nil
}

// leaf walks to the node holding h. With create set, missing nodes on the
// path are allocated; otherwise a missing node ends the walk with nil.
func (t *Trie[T]) leaf(h Handle, create bool) *node[T] {
	if t.root == nil {
		if !create {
			return nil
		}
		t.root = &node[T]{}
	}
	n := t.root
	for level := 0; level < t.depth-1; level++ {
		d := t.digit(h, level)
		next := n.children[d]
		if next == nil {
			if !create {
				return nil
			}
			next = &node[T]{}
			n.children[d] = next
		}
		n = next
	}
	return n
}

// Insert stores ref at h, replacing any previous reference.
func (t *Trie[T]) Insert(h Handle, ref T) error {
	if err := t.check(h); err != nil {
		return err
	}
	n := t.leaf(h, true)
	d := t.digit(h, t.depth-1)
	bit := uint16(1) << d
	typ := EventInserted
	if n.present&bit != 0 {
		typ = EventReplaced
	} else {
		n.present |= bit
		t.count++
	}
	n.values[d] = ref
	t.notify(Event{Handle: h, Type: typ})
	return nil
}

// Lookup returns the reference stored at h.
func (t *Trie[T]) Lookup(h Handle) (T, bool) {
	var zero T
	if h > t.bits.Max() {
		return zero, false
	}
	n := t.leaf(h, false)
	if n == nil {
		return zero, false
	}
	d := t.digit(h, t.depth-1)
	if n.present&(1<<d) == 0 {
		return zero, false
	}
	return n.values[d], true
}

// Remove clears h and returns the reference it held.
func (t *Trie[T]) Remove(h Handle) (T, bool) {
	var zero T
	if h > t.bits.Max() {
		return zero, false
	}
	n := t.leaf(h, false)
	if n == nil {
		return zero, false
	}
	d := t.digit(h, t.depth-1)
	bit := uint16(1) << d
	if n.present&bit == 0 {
		return zero, false
	}
	ref := n.values[d]
	n.values[d] = zero
	n.present &^= bit
	t.count--
	t.notify(Event{Handle: h, Type: EventRemoved})
	return ref, true
}

// Each visits every stored handle in ascending order until fn returns false.
func (t *Trie[T]) Each(fn func(Handle, T) bool) {
	if t.root == nil {
		return
	}
	t.walk(t.root, 0, 0, fn)
}

func (t *Trie[T]) walk(n *node[T], level int, prefix Handle, fn func(Handle, T) bool) bool {
	if level == t.depth-1 {
		for d := 0; d < Fanout; d++ {
			if n.present&(1<<d) == 0 {
				continue
			}
			if !fn(prefix<<BitsPerLevel|Handle(d), n.values[d]) {
				return false
			}
		}
		return true
	}
	for d, c := range n.children {
		if c == nil {
			continue
		}
		if !t.walk(c, level+1, prefix<<BitsPerLevel|Handle(d), fn) {
			return false
		}
	}
	return true
}

// Clear drops every node. The handle counter is kept so cleared handles
// are not handed out again.
func (t *Trie[T]) Clear() {
	t.Each(func(h Handle, _ T) bool {
		t.notify(Event{Handle: h, Type: EventRemoved})
		return true
	})
	t.root = nil
	t.count = 0
}

// Subscribe registers an observer for lifecycle events and returns an id
// for Unsubscribe.
func (t *Trie[T]) Subscribe(o Observer) int {
	t.seq++
	t.observers = append(t.observers, subscription{id: t.seq, o: o})
	return t.seq
}

// Unsubscribe removes the observer registered under id.
func (t *Trie[T]) Unsubscribe(id int) bool {
	for i, s := range t.observers {
		if s.id == id {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Trie[T]) notify(e Event) {
	for _, s := range t.observers {
		s.o.OnHandleEvent(e)
	}
}
