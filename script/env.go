package script

import (
	"github.com/wippyai/wrx-engine/resource"
	"github.com/wippyai/wrx-engine/value"
)

// Env is the engine surface a script can reach. Implementations must be
// safe for concurrent use; host calls arrive on the goroutine running the
// script.
type Env interface {
	// Put stores a copy of v under key in the object table.
	Put(key string, v value.Value) error
	// Get returns a copy of the value under key.
	Get(key string) (value.Value, bool, error)
	// Delete removes key and reports whether it was present.
	Delete(key string) (bool, error)
	// Len returns the number of named objects.
	Len() int

	NewObject(v value.Value) (resource.Handle, error)
	Object(h resource.Handle) (value.Value, bool, error)
	ReleaseObject(h resource.Handle) (bool, error)

	// Publish queues v on the named shared object.
	Publish(share, key string, v value.Value) error
	// Read returns the drained value of key on the named shared object. A
	// name that was never published reads as missing.
	Read(share, key string) (value.Value, bool, error)

	// Emit receives a line of script output.
	Emit(msg string)
}
