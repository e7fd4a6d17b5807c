package store

import "github.com/wippyai/wrx-engine/value"

// Values is the store the engine uses for named objects.
type Values = Store[value.Value]

// ValueOpsTagged copies tagged values in deeply and releases their buffers
// on delete.
var ValueOpsTagged = ValueOps[value.Value]{
	Clone:   value.Clone,
	Release: value.Release,
}

// NewValues creates a store of tagged values.
func NewValues(opts ...Option) *Values {
	return New(ValueOpsTagged, opts...)
}
