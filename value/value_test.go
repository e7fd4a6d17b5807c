package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wrx-engine/errors"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "binary", KindBinary.String())
	assert.Equal(t, "memory-stream", KindMemoryStream.String())
	assert.Equal(t, "table", KindTable.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestValue_Accessors(t *testing.T) {
	ptr := &struct{ n int }{n: 7}

	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"binary", NewBinary("b", []byte{1, 2}), KindBinary},
		{"stream", NewStream("s", nil), KindMemoryStream},
		{"string", NewString("str", "hello"), KindString},
		{"double", NewDouble("d", 1.5), KindDouble},
		{"integer", NewInteger("i", -3), KindInteger},
		{"pointer", NewPointer("p", ptr), KindPointer},
		{"zero", Value{}, KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.Equal(t, tt.kind != KindInvalid, tt.v.IsValid())
		})
	}

	b, err := NewBinary("b", []byte{1, 2}).Binary()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	s, err := NewString("str", "hello").Str()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	f, err := NewDouble("d", 1.5).Double()
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	n, err := NewInteger("i", -3).Integer()
	require.NoError(t, err)
	assert.Equal(t, int64(-3), n)

	p, err := NewPointer("p", ptr).Pointer()
	require.NoError(t, err)
	assert.Same(t, ptr, p)
}

func TestValue_InvalidVariantAccess(t *testing.T) {
	v := NewString("title", "wrx")

	_, err := v.Binary()
	require.ErrorIs(t, err, errors.ErrInvalidVariant)
	assert.Contains(t, err.Error(), "title")

	_, err = v.Stream()
	assert.ErrorIs(t, err, errors.ErrInvalidVariant)
	_, err = v.Double()
	assert.ErrorIs(t, err, errors.ErrInvalidVariant)
	_, err = v.Integer()
	assert.ErrorIs(t, err, errors.ErrInvalidVariant)
	_, err = v.Pointer()
	assert.ErrorIs(t, err, errors.ErrInvalidVariant)
	_, err = NewInteger("n", 1).Str()
	assert.ErrorIs(t, err, errors.ErrInvalidVariant)

	assert.Panics(t, func() { v.MustBinary() })
	assert.Panics(t, func() { v.MustInteger() })
	assert.NotPanics(t, func() { v.MustStr() })
}

func TestValue_NewBinaryCopiesInput(t *testing.T) {
	src := []byte("abc")
	v := NewBinary("x", src)
	src[0] = 'z'
	assert.Equal(t, []byte("abc"), v.MustBinary())
}

func TestValue_CloneIsDeep(t *testing.T) {
	t.Run("binary", func(t *testing.T) {
		v := NewBinary("blob", []byte{1, 2, 3})
		c, err := v.Clone()
		require.NoError(t, err)

		assert.True(t, Equal(v, c))
		orig := v.MustBinary()
		cp := c.MustBinary()
		assert.NotSame(t, &orig[0], &cp[0])

		cp[0] = 9
		assert.Equal(t, byte(1), v.MustBinary()[0])
	})

	t.Run("stream", func(t *testing.T) {
		s, err := StreamFrom([]byte{1, 2, 3, 4}, 2)
		require.NoError(t, err)
		v := NewStream("io", s)
		c, err := v.Clone()
		require.NoError(t, err)
		assert.True(t, Equal(v, c))

		cs, err := c.Stream()
		require.NoError(t, err)
		require.NoError(t, cs.PutWord(0xffff))

		vs, err := v.Stream()
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4}, vs.Bytes())
		assert.False(t, Equal(v, c))
	})

	t.Run("pointer shares referent", func(t *testing.T) {
		ref := &struct{}{}
		c, err := NewPointer("p", ref).Clone()
		require.NoError(t, err)
		got, _ := c.Pointer()
		assert.Same(t, ref, got)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Value{}.Clone()
		assert.Error(t, err)
	})
}

func TestValue_ReleaseOnce(t *testing.T) {
	v := NewBinary("blob", []byte{1})
	c, err := v.Clone()
	require.NoError(t, err)

	v.Release()
	assert.True(t, v.Released())
	_, err = v.Binary()
	assert.ErrorIs(t, err, errors.ErrReleased)
	_, err = v.Clone()
	assert.ErrorIs(t, err, errors.ErrReleased)

	assert.NotPanics(t, v.Release)
	assert.Equal(t, []byte{1}, c.MustBinary(), "clone keeps its own buffer")

	s := NewStream("s", nil)
	s.Release()
	_, err = s.Stream()
	assert.ErrorIs(t, err, errors.ErrReleased)
	assert.Equal(t, "memory-stream(released)", s.String())
}

func TestValue_ReleasePointerLeavesReferent(t *testing.T) {
	ref := &[]byte{1, 2, 3}
	v := NewPointer("ext", ref)
	v.Release()
	assert.False(t, v.Released())
	got, err := v.Pointer()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, *(got.(*[]byte)))
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Equal(NewInteger("a", 1), NewInteger("a", 1)))
	assert.False(t, Equal(NewInteger("a", 1), NewInteger("b", 1)), "name differs")
	assert.False(t, Equal(NewInteger("a", 1), NewDouble("a", 1)), "kind differs")
	assert.False(t, Equal(NewString("a", "x"), NewString("a", "y")))
	assert.True(t, Equal(Value{}, Value{}))
	assert.True(t, Equal(NewBinary("a", nil), NewBinary("a", []byte{})))
}

func TestValue_WithName(t *testing.T) {
	v := NewString("a", "x").WithName("b")
	assert.Equal(t, "b", v.Name())
	assert.Equal(t, "x", v.MustStr())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "binary[3]", NewBinary("b", []byte{1, 2, 3}).String())
	assert.Equal(t, `"hi"`, NewString("s", "hi").String())
	assert.Equal(t, "2.5", NewDouble("d", 2.5).String())
	assert.Equal(t, "-4", NewInteger("i", -4).String())
	assert.Equal(t, "pointer(*int)", NewPointer("p", new(int)).String())
	assert.Equal(t, "invalid", Value{}.String())
	assert.Equal(t, "memory-stream[len=0 pos=0 width=1]", NewStream("m", nil).String())
}
