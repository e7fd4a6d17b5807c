package script

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wrx-engine/errors"
)

// Entry points a script may export. Missing exports are skipped.
const (
	EntryConf   = "conf"
	EntryStart  = "start"
	EntryUpdate = "update"
)

// Config holds runtime limits for a script.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KiB pages. 0 keeps the
	// wazero default.
	MemoryLimitPages uint32
}

// Script is one instantiated guest module with the wrx host bound.
// Calls are serialized.
type Script struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	module  api.Module
	closed  bool
}

// Load compiles and instantiates wasm against env. The guest may import
// any subset of the wrx host functions.
func Load(ctx context.Context, env Env, wasm []byte, cfg *Config) (*Script, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if _, err := NewHost(env).Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidData, err, "instantiate host module")
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidData, err, "compile script")
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("main").WithStartFunctions())
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidData, err, "instantiate script")
	}

	Logger().Debug("script loaded",
		zap.Int("size", len(wasm)),
		zap.Int("exports", len(compiled.ExportedFunctions())))
	return &Script{runtime: rt, module: mod}, nil
}

// Has reports whether the script exports name.
func (s *Script) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.module.ExportedFunction(name) != nil
}

// Call invokes an exported function. A missing export returns (nil, nil).
func (s *Script) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.Closed(errors.PhaseScript, "script")
	}
	fn := s.module.ExportedFunction(name)
	if fn == nil {
		return nil, nil
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.New(errors.PhaseScript, errors.KindInvalidData).
			Path(name).
			Detail("call %s", name).
			Cause(err).
			Build()
	}
	return results, nil
}

// Close tears down the guest and its runtime.
func (s *Script) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.runtime.Close(ctx)
}
