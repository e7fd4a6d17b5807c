// Package wrxengine is the core of the wrx scripted application engine.
//
// An application is a zip archive or directory holding a conf.yaml, a
// WebAssembly script and assets. The engine mounts it, loads the
// configuration, boots the script and runs a fixed-rate frame loop while
// worker goroutines move shared values between threads.
//
// # Architecture Overview
//
//	wrxengine/         Root package with version information
//	├── value/         Tagged values: binary, stream, string, number, pointer
//	├── store/         Open-addressing hash table of named values
//	├── resource/      Fixed-depth radix trie from handles to values
//	├── share/         Publish/drain registry for cross-goroutine values
//	├── archive/       Zip and directory application mounting
//	├── config/        conf.yaml decoding and validation
//	├── script/        wazero host module exposing the engine to scripts
//	├── engine/        Engine shell: guards, workers, frame pacing
//	├── z85/           Z85 binary-to-text codec
//	├── errors/        Structured error types
//	└── cmd/wrx/       Command line front end
//
// # Ownership
//
// The store copies values on Put and frees them on Delete. The trie only
// indexes references; the engine owns the values behind handles. Shared
// registries copy values in on Publish and out on Read and Drain, so no
// buffer is visible to two goroutines.
//
// # Concurrency
//
// store.Store and resource.Trie are single-owner. The engine wraps each in
// a Guard and advances the handle counter under the trie's lock.
// share.Registry locks internally.
package wrxengine
