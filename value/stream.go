package value

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/wippyai/wrx-engine/errors"
)

// MemoryStream is a growable byte buffer with a cursor, read and written
// sequentially in bytes, lines, or integer words of a fixed width.
// Words are little endian.
type MemoryStream struct {
	buf   []byte
	pos   int
	width int
}

// NewMemoryStream returns an empty stream with the given word width.
func NewMemoryStream(width int) (*MemoryStream, error) {
	if !validWidth(width) {
		return nil, invalidWidth(width)
	}
	return &MemoryStream{width: width}, nil
}

// StreamFrom returns a stream over a copy of data, cursor at the start.
func StreamFrom(data []byte, width int) (*MemoryStream, error) {
	if !validWidth(width) {
		return nil, invalidWidth(width)
	}
	return &MemoryStream{buf: bytes.Clone(data), width: width}, nil
}

func validWidth(w int) bool {
	return w == 1 || w == 2 || w == 4 || w == 8
}

func invalidWidth(w int) error {
	return errors.New(errors.PhaseValue, errors.KindInvalidInput).
		Value(w).
		Detail("word width %d, want 1, 2, 4 or 8", w).
		Build()
}

// Len returns the number of bytes in the stream.
func (m *MemoryStream) Len() int { return len(m.buf) }

// Pos returns the cursor offset.
func (m *MemoryStream) Pos() int { return m.pos }

// Width returns the word width in bytes.
func (m *MemoryStream) Width() int { return m.width }

// SetWidth changes the word width used by PutWord and GetWord.
func (m *MemoryStream) SetWidth(width int) error {
	if !validWidth(width) {
		return invalidWidth(width)
	}
	m.width = width
	return nil
}

// Bytes returns a copy of the stream contents.
func (m *MemoryStream) Bytes() []byte {
	return bytes.Clone(nonNil(m.buf))
}

// Rewind moves the cursor to the start.
func (m *MemoryStream) Rewind() { m.pos = 0 }

// Truncate drops everything after the cursor. With the cursor at or past
// the end there is nothing to drop.
func (m *MemoryStream) Truncate() {
	if m.pos < len(m.buf) {
		m.buf = m.buf[:m.pos]
	}
}

// Write writes p at the cursor, overwriting and extending as needed.
func (m *MemoryStream) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		old := len(m.buf)
		if end > cap(m.buf) {
			grown := make([]byte, old, growCap(cap(m.buf), end))
			copy(grown, m.buf)
			m.buf = grown
		}
		m.buf = m.buf[:end]
		if m.pos > old {
			clear(m.buf[old:m.pos])
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func growCap(have, need int) int {
	c := have * 2
	if c < 64 {
		c = 64
	}
	for c < need {
		c *= 2
	}
	return c
}

// Read reads from the cursor. It returns io.EOF at the end of the stream.
func (m *MemoryStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if m.pos >= len(m.buf) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += n
	return n, nil
}

// Seek implements io.Seeker. Seeking past the end is allowed; a later
// Write zero-fills the gap.
func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(m.pos)
	case io.SeekEnd:
		base = int64(len(m.buf))
	default:
		return 0, errors.InvalidInput(errors.PhaseValue, "invalid seek whence")
	}
	next := base + offset
	if next < 0 {
		return 0, errors.OutOfBounds(errors.PhaseValue, []string{"stream"}, int(next), len(m.buf))
	}
	m.pos = int(next)
	return next, nil
}

// PutWord writes the low Width bytes of v at the cursor.
func (m *MemoryStream) PutWord(v uint64) error {
	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], v)
	_, err := m.Write(word[:m.width])
	return err
}

// GetWord reads one word at the cursor. A partial trailing word is
// io.ErrUnexpectedEOF and leaves the cursor unchanged.
func (m *MemoryStream) GetWord() (uint64, error) {
	if m.pos >= len(m.buf) {
		return 0, io.EOF
	}
	if m.pos+m.width > len(m.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	var word [8]byte
	copy(word[:], m.buf[m.pos:m.pos+m.width])
	m.pos += m.width
	return binary.LittleEndian.Uint64(word[:]), nil
}

// WriteLine writes s followed by a newline.
func (m *MemoryStream) WriteLine(s string) error {
	if _, err := m.Write([]byte(s)); err != nil {
		return err
	}
	_, err := m.Write([]byte{'\n'})
	return err
}

// ReadLine reads up to the next newline, which is consumed but not
// returned. The last line may lack a newline.
func (m *MemoryStream) ReadLine() (string, error) {
	if m.pos >= len(m.buf) {
		return "", io.EOF
	}
	rest := m.buf[m.pos:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		m.pos += i + 1
		return string(rest[:i]), nil
	}
	m.pos = len(m.buf)
	return string(rest), nil
}

// Clone returns an independent copy including cursor and width.
func (m *MemoryStream) Clone() *MemoryStream {
	return &MemoryStream{buf: bytes.Clone(m.buf), pos: m.pos, width: m.width}
}

func (m *MemoryStream) equal(o *MemoryStream) bool {
	return m.pos == o.pos && m.width == o.width && bytes.Equal(m.buf, o.buf)
}
