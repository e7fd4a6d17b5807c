// Package config reads the application configuration from conf.yaml.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"io/fs"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/resource"
)

// File names probed by Load, in order.
var Files = []string{"conf.yaml", "conf.yml"}

const (
	MinFPS     = 15
	MaxFPS     = 1000
	MaxThreads = 16
)

// Config is the decoded application configuration.
type Config struct {
	// Title is the window title shown by front ends.
	Title string `yaml:"title"`

	// Name identifies the application and its archive.
	Name string `yaml:"name"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// IDBits is the handle width of the object trie: 16, 20 or 24.
	IDBits int `yaml:"idBits"`

	// FPS is the target frame rate, clamped to [MinFPS, MaxFPS].
	FPS int `yaml:"fps"`

	// Threads is the number of worker goroutines draining shared objects.
	Threads int `yaml:"threads"`

	// Sleep is the worker idle interval between drains.
	Sleep time.Duration `yaml:"sleep"`

	// Main is the script module inside the archive.
	Main string `yaml:"main"`

	// Preload lists glob patterns of archive files copied into the object
	// table at startup.
	Preload []string `yaml:"preload,omitempty"`
}

// Default returns the configuration used for absent fields.
func Default() Config {
	return Config{
		Title:   "wrx",
		Name:    "go.wrx.zip",
		Width:   800,
		Height:  600,
		IDBits:  int(resource.IDBits16),
		FPS:     30,
		Threads: 2,
		Sleep:   5 * time.Millisecond,
		Main:    "main.wasm",
	}
}

// Parse decodes YAML over the defaults. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return Config{}, errors.ParseFailed("conf.yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the first configuration file found in fsys. An application
// without one runs on defaults.
func Load(fsys fs.FS) (Config, error) {
	for _, name := range Files {
		data, err := fs.ReadFile(fsys, name)
		if stderrors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "read "+name)
		}
		return Parse(data)
	}
	return Default(), nil
}

// Validate checks field ranges and clamps FPS into range.
func (c *Config) Validate() error {
	if _, err := resource.ParseIDBits(c.IDBits); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("idBits").
			Value(c.IDBits).
			Detail("unsupported id width %d", c.IDBits).
			Cause(err).
			Build()
	}
	c.FPS = ClampFPS(c.FPS)
	if c.Threads < 0 || c.Threads > MaxThreads {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("threads").
			Value(c.Threads).
			Detail("threads must be between 0 and %d", MaxThreads).
			Build()
	}
	if c.Width < 0 || c.Height < 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("width").
			Detail("negative window size %dx%d", c.Width, c.Height).
			Build()
	}
	if c.Sleep <= 0 {
		c.Sleep = Default().Sleep
	}
	if c.Main == "" {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("main").
			Detail("script entry is empty").
			Build()
	}
	for _, p := range c.Preload {
		if _, err := path.Match(p, ""); err != nil {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path("preload").
				Value(p).
				Detail("bad pattern %q", p).
				Cause(err).
				Build()
		}
	}
	return nil
}

// Bits returns the validated id width.
func (c Config) Bits() resource.IDBits {
	b, err := resource.ParseIDBits(c.IDBits)
	if err != nil {
		return resource.IDBits16
	}
	return b
}

// FrameInterval returns the duration of one frame.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(ClampFPS(c.FPS))
}

// ClampFPS bounds a frame rate to [MinFPS, MaxFPS]. Zero selects the default.
func ClampFPS(fps int) int {
	switch {
	case fps == 0:
		return Default().FPS
	case fps < MinFPS:
		return MinFPS
	case fps > MaxFPS:
		return MaxFPS
	}
	return fps
}
