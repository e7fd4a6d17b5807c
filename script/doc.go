// Package script runs the application's WebAssembly module on wazero and
// exposes the engine to it through the "wrx" host module.
//
// Host functions take i32 pointers and lengths into guest memory:
//
//	emit(ptr, len)
//	store_put(key, keyLen, val, valLen) -> status
//	store_get(key, keyLen, out, outCap) -> length | status
//	store_len() -> count
//	store_delete(key, keyLen) -> status
//	id_alloc(val, valLen) -> handle | status
//	id_lookup(handle, out, outCap) -> length | status
//	id_release(handle) -> status
//	share_publish(name, nameLen, key, keyLen, val, valLen) -> status
//	share_read(name, nameLen, key, keyLen, out, outCap) -> length | status
//
// Status is 0 on success, -1 when the key or handle is absent and -2 on
// any other failure. Values written by the guest are stored as Binary.
// Functions that return a value copy it only when it fits in outCap and
// always return its length.
//
// A script exports any of conf, start and update; the engine calls them
// in that order during startup and once per frame respectively.
package script
