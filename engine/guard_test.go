package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardSerializes(t *testing.T) {
	counter := 0
	g := NewGuard(&counter)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = g.Do(func(c *int) error {
					*c++
					return nil
				})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 16000, counter)
}

func TestGuardDoError(t *testing.T) {
	g := NewGuard(1)
	want := errors.New("boom")
	err := g.Do(func(int) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestGuardSwap(t *testing.T) {
	g := NewGuard("a")
	assert.Equal(t, "a", g.Swap("b"))
	require.NoError(t, g.Do(func(s string) error {
		assert.Equal(t, "b", s)
		return nil
	}))
}
