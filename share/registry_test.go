package share

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/value"
)

func pos(x, y byte) value.Value {
	return value.NewBinary("pos", []byte{x, y})
}

func TestRegistryPendingInvisible(t *testing.T) {
	r := New("player")
	defer r.Close()

	require.NoError(t, r.Publish("pos", pos(1, 2)))

	_, ok, err := r.Read("pos")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Pending())
	assert.Equal(t, 0, r.Len())

	changes, err := r.Drain()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "pos", changes[0].Key)
	assert.Equal(t, []byte{1, 2}, changes[0].Value.MustBinary())

	v, ok, err := r.Read("pos")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2}, v.MustBinary())
	assert.Equal(t, 0, r.Pending())
	assert.Equal(t, 1, r.Len())
}

func TestRegistryNameAndID(t *testing.T) {
	a := New("alpha")
	b := New("alpha")
	defer a.Close()
	defer b.Close()

	assert.Equal(t, value.KindString, a.Name().Kind())
	assert.Equal(t, "alpha", a.Name().MustStr())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRegistryPublishCopies(t *testing.T) {
	r := New("copy")
	defer r.Close()

	buf := []byte{9, 9}
	v := value.NewBinary("blob", buf)
	require.NoError(t, r.Publish("blob", v))
	v.Release()

	changes, err := r.Drain()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, []byte{9, 9}, changes[0].Value.MustBinary())

	// The caller's change and a later read are independent copies.
	changes[0].Value.Release()
	got, ok, err := r.Read("blob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{9, 9}, got.MustBinary())

	b := got.MustBinary()
	b[0] = 0
	again, _, err := r.Read("blob")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, again.MustBinary())
}

func TestRegistryDrainOrderAndOverwrite(t *testing.T) {
	r := New("order")
	defer r.Close()

	require.NoError(t, r.Publish("b", value.NewInteger("b", 1)))
	require.NoError(t, r.Publish("a", value.NewInteger("a", 1)))
	require.NoError(t, r.Publish("b", value.NewInteger("b", 2)))
	assert.Equal(t, 2, r.Pending())

	changes, err := r.Drain()
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "a", changes[0].Key)
	assert.Equal(t, "b", changes[1].Key)
	assert.Equal(t, int64(2), changes[1].Value.MustInteger())

	require.NoError(t, r.Publish("a", value.NewInteger("a", 5)))
	_, err = r.Drain()
	require.NoError(t, err)

	v, ok, err := r.Read("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), v.MustInteger())
	assert.Equal(t, []string{"a", "b"}, r.Keys())
}

func TestRegistryDrainEmpty(t *testing.T) {
	r := New("empty")
	defer r.Close()

	changes, err := r.Drain()
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestRegistryConcurrentPublish(t *testing.T) {
	r := New("race")
	defer r.Close()

	const writers = 8
	const rounds = 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				assert.NoError(t, r.Publish("k", value.NewBinary("k", []byte{byte(w), byte(w), byte(w), byte(w)})))
				assert.NoError(t, r.Publish(fmt.Sprintf("w%d", w), value.NewInteger("n", int64(i))))
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			_, err := r.Drain()
			assert.NoError(t, err)
			v, ok, err := r.Read("k")
			assert.NoError(t, err)
			if ok {
				b := v.MustBinary()
				// Never torn: all four bytes come from one publish.
				assert.Equal(t, []byte{b[0], b[0], b[0], b[0]}, b)
			}
		}
	}()

	wg.Wait()
	<-done
	_, err := r.Drain()
	require.NoError(t, err)

	for w := 0; w < writers; w++ {
		v, ok, err := r.Read(fmt.Sprintf("w%d", w))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(rounds-1), v.MustInteger())
	}
	assert.Equal(t, writers+1, r.Len())
}

func TestRegistryClosed(t *testing.T) {
	r := New("gone")
	require.NoError(t, r.Publish("x", value.NewInteger("x", 1)))
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.ErrorIs(t, r.Publish("x", value.NewInteger("x", 1)), errors.ErrClosed)
	_, err := r.Drain()
	assert.ErrorIs(t, err, errors.ErrClosed)
	_, _, err = r.Read("x")
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.Equal(t, 0, r.Pending())
	assert.Equal(t, 0, r.Len())
}
