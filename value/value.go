package value

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/wippyai/wrx-engine/errors"
)

// Kind is the discriminant of a tagged value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBinary
	KindMemoryStream
	KindString
	KindDouble
	KindInteger
	KindPointer
	// KindTable is reserved for nested keyed values and has no constructor.
	KindTable
)

var kindNames = [...]string{
	KindInvalid:      "invalid",
	KindBinary:       "binary",
	KindMemoryStream: "memory-stream",
	KindString:       "string",
	KindDouble:       "double",
	KindInteger:      "integer",
	KindPointer:      "pointer",
	KindTable:        "table",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// payload is the sealed set of variant arms. Exactly one is active per Value.
type payload interface {
	kind() Kind
}

type binaryData struct {
	buf      []byte
	released bool
}

func (*binaryData) kind() Kind { return KindBinary }

type streamData struct {
	s        *MemoryStream
	released bool
}

func (*streamData) kind() Kind { return KindMemoryStream }

type stringData string

func (stringData) kind() Kind { return KindString }

type doubleData float64

func (doubleData) kind() Kind { return KindDouble }

type integerData int64

func (integerData) kind() Kind { return KindInteger }

// pointerData refers to something owned outside the store.
type pointerData struct {
	ref any
}

func (pointerData) kind() Kind { return KindPointer }

// Value is a named tagged value. Binary and MemoryStream arms own their
// buffers; Pointer arms never do.
//
// Copies of a Value struct share the owned buffer. Use Clone for an
// independent copy and Release to drop the buffer.
type Value struct {
	data payload
	name string
}

// NewBinary creates a Binary value holding a copy of b.
func NewBinary(name string, b []byte) Value {
	return Value{name: name, data: &binaryData{buf: bytes.Clone(nonNil(b))}}
}

// NewStream creates a MemoryStream value holding a copy of s.
func NewStream(name string, s *MemoryStream) Value {
	if s == nil {
		s = &MemoryStream{width: 1}
	}
	return Value{name: name, data: &streamData{s: s.Clone()}}
}

// NewString creates a String value.
func NewString(name, s string) Value {
	return Value{name: name, data: stringData(s)}
}

// NewDouble creates a Double value.
func NewDouble(name string, f float64) Value {
	return Value{name: name, data: doubleData(f)}
}

// NewInteger creates an Integer value.
func NewInteger(name string, n int64) Value {
	return Value{name: name, data: integerData(n)}
}

// NewPointer creates a non-owning Pointer value.
func NewPointer(name string, ref any) Value {
	return Value{name: name, data: pointerData{ref: ref}}
}

// Name returns the value's label.
func (v Value) Name() string { return v.name }

// WithName returns v relabeled. The payload is shared, not copied.
func (v Value) WithName(name string) Value {
	v.name = name
	return v
}

// Kind returns the active arm.
func (v Value) Kind() Kind {
	if v.data == nil {
		return KindInvalid
	}
	return v.data.kind()
}

// IsValid reports whether v holds any arm.
func (v Value) IsValid() bool { return v.data != nil }

// Released reports whether the owned buffer of v was released.
func (v Value) Released() bool {
	switch d := v.data.(type) {
	case *binaryData:
		return d.released
	case *streamData:
		return d.released
	}
	return false
}

func (v Value) mismatch(want Kind) error {
	return errors.InvalidVariant(v.name, want.String(), v.Kind().String())
}

// Binary returns the owned buffer of a Binary value.
func (v Value) Binary() ([]byte, error) {
	d, ok := v.data.(*binaryData)
	if !ok {
		return nil, v.mismatch(KindBinary)
	}
	if d.released {
		return nil, errors.Released(v.name, KindBinary.String())
	}
	return d.buf, nil
}

// Stream returns the owned stream of a MemoryStream value.
func (v Value) Stream() (*MemoryStream, error) {
	d, ok := v.data.(*streamData)
	if !ok {
		return nil, v.mismatch(KindMemoryStream)
	}
	if d.released {
		return nil, errors.Released(v.name, KindMemoryStream.String())
	}
	return d.s, nil
}

// Str returns the payload of a String value.
func (v Value) Str() (string, error) {
	d, ok := v.data.(stringData)
	if !ok {
		return "", v.mismatch(KindString)
	}
	return string(d), nil
}

// Double returns the payload of a Double value.
func (v Value) Double() (float64, error) {
	d, ok := v.data.(doubleData)
	if !ok {
		return 0, v.mismatch(KindDouble)
	}
	return float64(d), nil
}

// Integer returns the payload of an Integer value.
func (v Value) Integer() (int64, error) {
	d, ok := v.data.(integerData)
	if !ok {
		return 0, v.mismatch(KindInteger)
	}
	return int64(d), nil
}

// Pointer returns the external reference of a Pointer value.
func (v Value) Pointer() (any, error) {
	d, ok := v.data.(pointerData)
	if !ok {
		return nil, v.mismatch(KindPointer)
	}
	return d.ref, nil
}

// MustBinary is Binary for callers that already checked the kind.
func (v Value) MustBinary() []byte {
	b, err := v.Binary()
	if err != nil {
		panic(err)
	}
	return b
}

// MustStr is Str for callers that already checked the kind.
func (v Value) MustStr() string {
	s, err := v.Str()
	if err != nil {
		panic(err)
	}
	return s
}

// MustInteger is Integer for callers that already checked the kind.
func (v Value) MustInteger() int64 {
	n, err := v.Integer()
	if err != nil {
		panic(err)
	}
	return n
}

// Clone returns an independent copy. Binary and MemoryStream buffers are
// deep-copied; Pointer references are shared.
func (v Value) Clone() (Value, error) {
	switch d := v.data.(type) {
	case nil:
		return Value{}, errors.InvalidInput(errors.PhaseValue, "clone of invalid value")
	case *binaryData:
		if d.released {
			return Value{}, errors.Released(v.name, KindBinary.String())
		}
		return Value{name: v.name, data: &binaryData{buf: bytes.Clone(nonNil(d.buf))}}, nil
	case *streamData:
		if d.released {
			return Value{}, errors.Released(v.name, KindMemoryStream.String())
		}
		return Value{name: v.name, data: &streamData{s: d.s.Clone()}}, nil
	default:
		return v, nil
	}
}

// Release drops the owned buffer. Releasing twice is a no-op and
// Pointer referents are never touched.
func (v Value) Release() {
	switch d := v.data.(type) {
	case *binaryData:
		d.buf = nil
		d.released = true
	case *streamData:
		d.s = nil
		d.released = true
	}
}

// Equal reports whether a and b have the same name, kind and payload.
// Buffers are compared byte for byte.
func Equal(a, b Value) bool {
	if a.name != b.name || a.Kind() != b.Kind() {
		return false
	}
	switch da := a.data.(type) {
	case nil:
		return true
	case *binaryData:
		db := b.data.(*binaryData)
		return da.released == db.released && bytes.Equal(da.buf, db.buf)
	case *streamData:
		db := b.data.(*streamData)
		if da.released || db.released {
			return da.released == db.released
		}
		return da.s.equal(db.s)
	case pointerData:
		return da.ref == b.data.(pointerData).ref
	default:
		return a.data == b.data
	}
}

// String renders v for logs and inspectors.
func (v Value) String() string {
	switch d := v.data.(type) {
	case nil:
		return "invalid"
	case *binaryData:
		if d.released {
			return "binary(released)"
		}
		return fmt.Sprintf("binary[%d]", len(d.buf))
	case *streamData:
		if d.released {
			return "memory-stream(released)"
		}
		return fmt.Sprintf("memory-stream[len=%d pos=%d width=%d]", d.s.Len(), d.s.Pos(), d.s.Width())
	case stringData:
		return strconv.Quote(string(d))
	case doubleData:
		return strconv.FormatFloat(float64(d), 'g', -1, 64)
	case integerData:
		return strconv.FormatInt(int64(d), 10)
	case pointerData:
		return fmt.Sprintf("pointer(%T)", d.ref)
	}
	return v.Kind().String()
}

// Clone is v.Clone in the shape store value ops expect.
func Clone(v Value) (Value, error) { return v.Clone() }

// Release drops v's owned buffer.
func Release(v Value) { v.Release() }

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
