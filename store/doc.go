// Package store provides the engine's keyed object table: an open-addressing
// hash table from string keys to owned values.
//
// # Layout
//
// Buckets are a flat slice of slots. Each slot is empty, a tombstone, or
// occupied by {hash, key, value}. Lookups start at hash(key) mod capacity
// and probe linearly, wrapping at the end. A tombstone keeps the walk going;
// only an empty slot ends it.
//
//	s := store.NewValues()
//	_ = s.Put("hero.png", value.NewBinary("hero.png", data))
//	v, ok := s.Get("hero.png")
//	s.Delete("hero.png")
//
// # Growth
//
// Before each insert, if live entries exceed 75% of capacity the table is
// rehashed into four times the capacity, dropping tombstones. When live
// entries are below the threshold but live entries plus tombstones are not,
// the table is rehashed at the same capacity. Growth past the configured
// maximum capacity reports an allocation error instead of crashing.
//
// # Ownership
//
// Put stores a copy made by ValueOps.Clone; Delete, Clear and Close free
// values with ValueOps.Release. Adopt and Take move ownership in and out
// without copying.
//
// # Concurrency
//
// A Store is not synchronized. The engine serializes all access to an
// instance behind one lock.
package store
