// Package engine is the runtime shell around the object tables.
//
// An Engine is constructed explicitly and owns everything an application
// touches:
//
//	named objects   store.Values behind a Guard
//	handle objects  resource.Trie behind a Guard; the handle counter
//	                advances under the same lock
//	shared objects  share.Registry per name, each with its own lock
//	workers         goroutines draining shared objects every cfg.Sleep
//	script          the application's wasm module, bound through script.Env
//
// # Lifecycle
//
//	e, err := engine.New(engine.Options{Logger: log})
//	err = e.Start(ctx, "go.wrx.zip") // mount, conf.yaml, preload, conf(), start()
//	go e.Run(ctx)                    // update() once per frame
//	e.Stop()
//	err = e.Close(ctx)
//
// Start reads the configuration from the archive unless Options.Config is
// set. With threads set to zero no workers run and Update drains shared
// objects on the frame loop instead.
//
// The store and trie are not synchronized themselves. Every access goes
// through Guard.Do, so the Engine methods are safe for concurrent use.
package engine
