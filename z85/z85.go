// Package z85 implements the Z85 binary-to-text encoding from ZeroMQ RFC 32.
//
// Z85 packs every 4 input bytes into 5 printable characters. Input to
// Encode must be a multiple of 4 bytes and input to Decode a multiple of
// 5 characters; callers pad as needed.
package z85

import (
	"strings"

	"github.com/wippyai/wrx-engine/errors"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ.-:+=^!/*?&<>()[]{}@%$#"

// decodeMap maps a character to its digit plus one; zero marks characters
// outside the alphabet.
var decodeMap = func() [256]byte {
	var m [256]byte
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = byte(i + 1)
	}
	return m
}()

// EncodedLen returns the encoded length of n input bytes.
func EncodedLen(n int) int { return n / 4 * 5 }

// DecodedLen returns the decoded length of n input characters.
func DecodedLen(n int) int { return n / 5 * 4 }

// Encode returns the Z85 text for data.
func Encode(data []byte) (string, error) {
	if len(data)%4 != 0 {
		return "", errors.New(errors.PhaseCodec, errors.KindInvalidInput).
			Value(len(data)).
			Detail("z85 input length %d is not a multiple of 4", len(data)).
			Build()
	}
	var sb strings.Builder
	sb.Grow(EncodedLen(len(data)))
	var digits [5]byte
	for i := 0; i < len(data); i += 4 {
		v := uint32(data[i])<<24 | uint32(data[i+1])<<16 | uint32(data[i+2])<<8 | uint32(data[i+3])
		for j := 4; j >= 0; j-- {
			digits[j] = alphabet[v%85]
			v /= 85
		}
		sb.Write(digits[:])
	}
	return sb.String(), nil
}

// Decode returns the bytes encoded by s.
func Decode(s string) ([]byte, error) {
	if len(s)%5 != 0 {
		return nil, errors.New(errors.PhaseCodec, errors.KindInvalidInput).
			Value(len(s)).
			Detail("z85 input length %d is not a multiple of 5", len(s)).
			Build()
	}
	out := make([]byte, 0, DecodedLen(len(s)))
	for i := 0; i < len(s); i += 5 {
		var v uint64
		for j := 0; j < 5; j++ {
			d := decodeMap[s[i+j]]
			if d == 0 {
				return nil, errors.New(errors.PhaseCodec, errors.KindInvalidData).
					Value(i+j).
					Detail("invalid z85 character %q at %d", s[i+j], i+j).
					Build()
			}
			v = v*85 + uint64(d-1)
		}
		if v > 0xFFFFFFFF {
			return nil, errors.New(errors.PhaseCodec, errors.KindInvalidData).
				Value(i).
				Detail("z85 group at %d overflows 32 bits", i).
				Build()
		}
		out = append(out, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return out, nil
}
