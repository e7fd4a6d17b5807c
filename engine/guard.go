package engine

import "sync"

// Guard serializes access to a value that is not safe for concurrent use.
type Guard[T any] struct {
	mu sync.Mutex
	v  T
}

// NewGuard wraps v.
func NewGuard[T any](v T) *Guard[T] {
	return &Guard[T]{v: v}
}

// Do runs fn with the guarded value while holding the lock.
// fn must not retain the value after returning.
func (g *Guard[T]) Do(fn func(T) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.v)
}

// Swap replaces the guarded value and returns the previous one.
func (g *Guard[T]) Swap(v T) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.v
	g.v = v
	return old
}
