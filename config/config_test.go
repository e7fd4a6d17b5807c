package config

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/resource"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "go.wrx.zip", c.Name)
	assert.Equal(t, 16, c.IDBits)
	assert.Equal(t, 30, c.FPS)
	assert.Equal(t, 2, c.Threads)
	assert.Equal(t, "main.wasm", c.Main)
	require.NoError(t, c.Validate())
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
title: Demo
name: demo.zip
width: 320
height: 240
idBits: 24
fps: 60
threads: 4
sleep: 10ms
main: game.wasm
preload:
  - "*.png"
  - data/*.bin
`))
	require.NoError(t, err)
	assert.Equal(t, "Demo", c.Title)
	assert.Equal(t, "demo.zip", c.Name)
	assert.Equal(t, 320, c.Width)
	assert.Equal(t, 240, c.Height)
	assert.Equal(t, resource.IDBits24, c.Bits())
	assert.Equal(t, 60, c.FPS)
	assert.Equal(t, 4, c.Threads)
	assert.Equal(t, 10*time.Millisecond, c.Sleep)
	assert.Equal(t, "game.wasm", c.Main)
	assert.Equal(t, []string{"*.png", "data/*.bin"}, c.Preload)
}

func TestParseKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte("title: only\n"))
	require.NoError(t, err)
	assert.Equal(t, "only", c.Title)
	assert.Equal(t, Default().FPS, c.FPS)
	assert.Equal(t, Default().Sleep, c.Sleep)

	c, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		kind errors.Kind
	}{
		{"unknown field", "titel: typo\n", errors.KindInvalidData},
		{"bad yaml", "fps: [\n", errors.KindInvalidData},
		{"id bits", "idBits: 12\n", errors.KindInvalidInput},
		{"threads", "threads: 17\n", errors.KindInvalidInput},
		{"negative threads", "threads: -1\n", errors.KindInvalidInput},
		{"empty main", "main: \"\"\n", errors.KindInvalidInput},
		{"bad pattern", "preload: [\"[\"]\n", errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, errors.PhaseConfig, e.Phase)
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestClampFPS(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 30},
		{1, 15},
		{15, 15},
		{60, 60},
		{1000, 1000},
		{5000, 1000},
		{-3, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampFPS(tt.in), "fps %d", tt.in)
	}

	c, err := Parse([]byte("fps: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 15, c.FPS)
	assert.Equal(t, time.Second/15, c.FrameInterval())
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"conf.yml": {Data: []byte("title: yml\n")},
	}
	c, err := Load(fsys)
	require.NoError(t, err)
	assert.Equal(t, "yml", c.Title)

	fsys["conf.yaml"] = &fstest.MapFile{Data: []byte("title: yaml\n")}
	c, err = Load(fsys)
	require.NoError(t, err)
	assert.Equal(t, "yaml", c.Title)

	c, err = Load(fstest.MapFS{})
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
