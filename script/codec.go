package script

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/value"
)

// encode flattens a value into the bytes a guest receives. Binary,
// String and MemoryStream pass their contents; numbers are 8 bytes little
// endian. Pointers have no guest representation.
func encode(v value.Value) ([]byte, error) {
	switch v.Kind() {
	case value.KindBinary:
		return v.Binary()
	case value.KindString:
		s, err := v.Str()
		return []byte(s), err
	case value.KindMemoryStream:
		s, err := v.Stream()
		if err != nil {
			return nil, err
		}
		return s.Bytes(), nil
	case value.KindInteger:
		n, err := v.Integer()
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint64(nil, uint64(n)), nil
	case value.KindDouble:
		f, err := v.Double()
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(f)), nil
	}
	return nil, errors.Unsupported(errors.PhaseScript, "pass "+v.Kind().String()+" value to script")
}

func errOutOfRange(ptr, n uint32) error {
	return errors.New(errors.PhaseScript, errors.KindOutOfBounds).
		Value(ptr).
		Detail("guest range [%d, %d) outside memory", ptr, uint64(ptr)+uint64(n)).
		Build()
}
