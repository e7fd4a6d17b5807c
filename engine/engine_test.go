package engine

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wippyai/wrx-engine/archive"
	"github.com/wippyai/wrx-engine/config"
	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/resource"
	"github.com/wippyai/wrx-engine/share"
	"github.com/wippyai/wrx-engine/value"
)

// lenModule exports update, returning wrx.store_len, and an empty start.
var lenModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x08, 0x02, 0x60, 0x00, 0x01, 0x7f, 0x60, 0x00, 0x00,
	0x02, 0x11, 0x01, 0x03, 'w', 'r', 'x', 0x09, 's', 't', 'o', 'r', 'e', '_', 'l', 'e', 'n', 0x00, 0x00,
	0x03, 0x03, 0x02, 0x00, 0x01,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x1b, 0x03,
	0x06, 'u', 'p', 'd', 'a', 't', 'e', 0x00, 0x01,
	0x05, 's', 't', 'a', 'r', 't', 0x00, 0x02,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x0a, 0x09, 0x02, 0x04, 0x00, 0x10, 0x00, 0x0b, 0x02, 0x00, 0x0b,
}

// emitModule exports start, which emits "hi".
var emitModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x09, 0x02, 0x60, 0x02, 0x7f, 0x7f, 0x00, 0x60, 0x00, 0x00,
	0x02, 0x0c, 0x01, 0x03, 'w', 'r', 'x', 0x04, 'e', 'm', 'i', 't', 0x00, 0x00,
	0x03, 0x02, 0x01, 0x01,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x09, 0x01, 0x05, 's', 't', 'a', 'r', 't', 0x00, 0x01,
	0x0a, 0x0a, 0x01, 0x08, 0x00, 0x41, 0x00, 0x41, 0x02, 0x10, 0x00, 0x0b,
	0x0b, 0x08, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x02, 'h', 'i',
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	e, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func TestEngineNamedObjects(t *testing.T) {
	e := newEngine(t, Options{})

	for c := 'a'; c <= 'z'; c++ {
		require.NoError(t, e.Put(string(c), value.NewInteger(string(c), int64(c))))
	}
	found, err := e.Delete("m")
	require.NoError(t, err)
	assert.True(t, found)

	_, ok, err := e.Get("m")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := e.Get("z")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64('z'), v.MustInteger())
	assert.Equal(t, 25, e.Len())

	found, err = e.Delete("m")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Len(t, e.Keys(), 25)
}

func TestEngineGetReturnsCopy(t *testing.T) {
	e := newEngine(t, Options{})
	require.NoError(t, e.Put("blob", value.NewBinary("blob", []byte{1, 2, 3})))

	v, _, err := e.Get("blob")
	require.NoError(t, err)
	v.MustBinary()[0] = 9
	v.Release()

	again, _, err := e.Get("blob")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again.MustBinary())
}

func TestEngineHandles(t *testing.T) {
	e := newEngine(t, Options{})

	h0, err := e.NewObject(value.NewString("x", "X"))
	require.NoError(t, err)
	h1, err := e.NewObject(value.NewString("y", "Y"))
	require.NoError(t, err)
	assert.Equal(t, resource.Handle(0), h0)
	assert.Equal(t, resource.Handle(1), h1)

	v, ok, err := e.Object(h1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Y", v.MustStr())

	_, ok, err = e.Object(2)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := e.ReleaseObject(h0)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, e.Objects())
}

func TestEngineConcurrentHandles(t *testing.T) {
	e := newEngine(t, Options{})

	const goroutines = 8
	const each = 100
	var (
		mu   sync.Mutex
		seen = map[resource.Handle]bool{}
		wg   sync.WaitGroup
	)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				h, err := e.NewObject(value.NewInteger("n", int64(i)))
				assert.NoError(t, err)
				mu.Lock()
				assert.False(t, seen[h])
				seen[h] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, goroutines*each)
	assert.Equal(t, goroutines*each, e.Objects())
}

func TestEngineShares(t *testing.T) {
	e := newEngine(t, Options{})

	a, err := e.Share("player")
	require.NoError(t, err)
	b, err := e.Share("player")
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, e.Publish("player", "pos", value.NewBinary("pos", []byte{1, 2})))
	_, ok, err := e.Read("player", "pos")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, e.DrainAll())
	v, ok, err := e.Read("player", "pos")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2}, v.MustBinary())
	assert.Equal(t, []string{"player"}, e.Shares())
}

func appFS(files map[string]string) *archive.Archive {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return archive.FromFS(fsys, "test-app")
}

func TestEngineStartArchive(t *testing.T) {
	ctx := context.Background()
	var lines []string
	e := newEngine(t, Options{OnEmit: func(msg string) { lines = append(lines, msg) }})

	arc := appFS(map[string]string{
		"conf.yaml":     "title: test\nidBits: 20\nthreads: 0\nfps: 1000\npreload: [\"assets/*\"]\n",
		"main.wasm":     string(emitModule),
		"assets/a.bin":  "AAA",
		"assets/b.bin":  "BB",
		"other/skip.me": "x",
	})
	require.NoError(t, e.StartArchive(ctx, arc))

	cfg := e.Config()
	assert.Equal(t, "test", cfg.Title)
	assert.Equal(t, resource.IDBits20, cfg.Bits())
	assert.Equal(t, []string{"hi"}, lines)
	assert.Equal(t, []string{"assets/a.bin", "assets/b.bin"}, e.Keys())

	var buf bytes.Buffer
	require.NoError(t, e.Describe(&buf))
	assert.Equal(t, "entries: 2\nassets/a.bin = binary[3]\nassets/b.bin = binary[2]\n", buf.String())

	err := e.StartArchive(ctx, arc)
	assert.Error(t, err)
}

func TestEngineStartWithoutScript(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, Options{})
	require.NoError(t, e.StartArchive(ctx, appFS(map[string]string{})))
	assert.Equal(t, config.Default().Title, e.Config().Title)
	require.NoError(t, e.Update(ctx))
}

func TestEngineStartBadConfig(t *testing.T) {
	e := newEngine(t, Options{})
	err := e.StartArchive(context.Background(), appFS(map[string]string{
		"conf.yaml": "idBits: 12\n",
	}))
	assert.ErrorIs(t, err, errors.New(errors.PhaseConfig, errors.KindInvalidInput).Build())
}

func TestEngineRunStop(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.FPS = 1000
	cfg.Threads = 0
	e := newEngine(t, Options{Config: &cfg})
	require.NoError(t, e.StartArchive(ctx, appFS(map[string]string{"main.wasm": string(lenModule)})))

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, e.Running, time.Second, time.Millisecond)
	assert.Error(t, e.Run(ctx))

	e.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not stop")
	}
	assert.False(t, e.Running())
}

func TestEngineWorkers(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Threads = 2
	cfg.Sleep = time.Millisecond

	var (
		mu  sync.Mutex
		got = map[string]int64{}
	)
	e := newEngine(t, Options{
		Config: &cfg,
		OnChange: func(name string, changes []share.Change) {
			mu.Lock()
			defer mu.Unlock()
			for _, c := range changes {
				got[name+"/"+c.Key] = c.Value.MustInteger()
				c.Value.Release()
			}
		},
	})
	require.NoError(t, e.StartArchive(ctx, appFS(map[string]string{})))

	for i, name := range []string{"a", "b", "c"} {
		require.NoError(t, e.Publish(name, "n", value.NewInteger("n", int64(i))))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, 2*time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, map[string]int64{"a/n": 0, "b/n": 1, "c/n": 2}, got)
	mu.Unlock()

	v, ok, err := e.Read("c", "n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.MustInteger())
}

func TestEngineAssignedRoundRobin(t *testing.T) {
	e := newEngine(t, Options{})
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := e.Share(name)
		require.NoError(t, err)
	}
	names := func(w, n int) []string {
		var out []string
		for _, r := range e.assigned(w, n) {
			out = append(out, r.Name().MustStr())
		}
		return out
	}
	assert.Equal(t, []string{"a", "c", "e"}, names(0, 2))
	assert.Equal(t, []string{"b", "d"}, names(1, 2))
	assert.Len(t, names(0, 1), 5)
}

func TestEngineClosed(t *testing.T) {
	ctx := context.Background()
	e, err := New(Options{})
	require.NoError(t, err)
	require.NoError(t, e.Put("k", value.NewInteger("k", 1)))
	_, err = e.NewObject(value.NewInteger("o", 1))
	require.NoError(t, err)

	require.NoError(t, e.Close(ctx))
	require.NoError(t, e.Close(ctx))

	assert.ErrorIs(t, e.Put("k", value.NewInteger("k", 1)), errors.ErrClosed)
	_, _, err = e.Get("k")
	assert.ErrorIs(t, err, errors.ErrClosed)
	_, err = e.NewObject(value.NewInteger("o", 1))
	assert.ErrorIs(t, err, errors.ErrClosed)
	_, err = e.Share("x")
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.ErrorIs(t, e.Update(ctx), errors.ErrClosed)
	assert.ErrorIs(t, e.Run(ctx), errors.ErrClosed)
	assert.Equal(t, 0, e.Objects())
}

func TestEngineReadUnknownShare(t *testing.T) {
	e := newEngine(t, Options{})

	_, ok, err := e.Read("missing", "pos")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, e.Shares())
}

func TestEngineNewObjectAfterObjectsReleased(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.objects.Do(func(tr *resource.Trie[value.Value]) error {
		e.objectsClosed = true
		releaseObjects(tr)
		return nil
	})

	_, err := e.NewObject(value.NewInteger("o", 1))
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.Zero(t, e.Objects())
}

func TestEngineNewObjectRacingClose(t *testing.T) {
	e, err := New(Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, err := e.NewObject(value.NewInteger("o", int64(j))); err != nil {
					assert.ErrorIs(t, err, errors.ErrClosed)
					return
				}
			}
		}()
	}
	require.NoError(t, e.Close(context.Background()))
	wg.Wait()
	assert.Zero(t, e.Objects())
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.IDBits = 8
	_, err := New(Options{Config: &cfg})
	assert.Error(t, err)
}
