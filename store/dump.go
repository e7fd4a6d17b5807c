package store

import (
	"fmt"
	"io"
)

// Dump writes every bucket, including empty slots and tombstones.
// Intended for debugging probe sequences.
func (s *Store[V]) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "capacity: %d\nsize: %d\ntombstones: %d\n", len(s.slots), s.size, s.tombstones); err != nil {
		return err
	}
	for i := range s.slots {
		sl := &s.slots[i]
		var err error
		switch sl.state {
		case slotEmpty:
			_, err = fmt.Fprintf(w, "bucket[%d]:\n", i)
		case slotTombstone:
			_, err = fmt.Fprintf(w, "bucket[%d]: TOMBSTONE\n", i)
		case slotOccupied:
			_, err = fmt.Fprintf(w, "bucket[%d]: hash=%08X key=%q value=%v\n", i, sl.hash, sl.key, sl.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Describe writes a stable summary: counts, then live entries sorted by key.
// Unlike Dump it does not depend on the hash function or bucket layout.
func (s *Store[V]) Describe(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "entries: %d\n", s.size); err != nil {
		return err
	}
	for _, k := range s.Keys() {
		v, _ := s.Get(k)
		if _, err := fmt.Fprintf(w, "%s = %v\n", k, v); err != nil {
			return err
		}
	}
	return nil
}
