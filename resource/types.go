package resource

import (
	"github.com/wippyai/wrx-engine/errors"
)

// Handle is a dense integer identifier indexing an object in a Trie.
// Handles are allocated from 0 upward.
type Handle uint32

// BitsPerLevel is the number of handle bits consumed per trie level.
// Every node has 1<<BitsPerLevel child slots.
const BitsPerLevel = 4

// Fanout is the number of child slots per node.
const Fanout = 1 << BitsPerLevel

// IDBits is the width of the handle space.
type IDBits uint8

const (
	IDBits16 IDBits = 16
	IDBits20 IDBits = 20
	IDBits24 IDBits = 24
)

// ParseIDBits validates a configured id width.
func ParseIDBits(n int) (IDBits, error) {
	switch IDBits(n) {
	case IDBits16, IDBits20, IDBits24:
		return IDBits(n), nil
	}
	return 0, errors.New(errors.PhaseTrie, errors.KindInvalidInput).
		Value(n).
		Detail("unsupported id width %d, want 16, 20 or 24", n).
		Build()
}

// Depth returns the number of trie levels for this width.
func (b IDBits) Depth() int { return int(b) / BitsPerLevel }

// Max returns the largest handle in this width.
func (b IDBits) Max() Handle { return Handle(1)<<b - 1 }

// EventType identifies a trie lifecycle event.
type EventType uint8

const (
	EventInserted EventType = iota
	EventReplaced
	EventRemoved
)

func (e EventType) String() string {
	switch e {
	case EventInserted:
		return "inserted"
	case EventReplaced:
		return "replaced"
	case EventRemoved:
		return "removed"
	}
	return "unknown"
}

// Event describes a change to one handle.
type Event struct {
	Handle Handle
	Type   EventType
}

// Observer receives trie lifecycle events. Observers run synchronously on
// the goroutine that changed the trie, inside the owner's lock.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnHandleEvent calls f(e).
func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }
