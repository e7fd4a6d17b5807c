// Package resource maps integer handles to object references.
//
// A Trie is a radix trie of fixed depth. Every node has 16 child slots and
// each level consumes 4 bits of the handle, most significant group first,
// so the configured id width fixes both the depth and the largest handle:
//
//	IDBits16  depth 4  handles 0 .. 0xFFFF
//	IDBits20  depth 5  handles 0 .. 0xFFFFF
//	IDBits24  depth 6  handles 0 .. 0xFFFFFF
//
// Handles come from a monotonic counter:
//
//	t, _ := resource.NewTrie[*value.Value](resource.IDBits16)
//	h, err := t.Allocate()
//	_ = t.Insert(h, &v)
//	ref, ok := t.Lookup(h)
//	t.Remove(h)
//
// The trie indexes references and never owns them. Removing a handle does
// not release the referenced value or reclaim empty nodes.
//
// # Observers
//
// Subscribe registers an Observer notified on insert, replace and remove:
//
//	t.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("handle %d %s", e.Handle, e.Type)
//	}))
//
// A Trie is not synchronized. Callers allocating and inserting from several
// goroutines must hold one lock around both.
package resource
