// Package shortvec implements the compact-u16 length prefix used by the
// Solana wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedBytes = 3

// EncodeLen writes length as a compact-u16 into w. Lengths above
// math.MaxUint16 are rejected.
func EncodeLen(w io.Writer, length int) (int, error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, errors.Errorf("len must be in [0, %d], got %d", math.MaxUint16, length)
	}

	buf := make([]byte, 0, maxEncodedBytes)
	for {
		b := byte(length & 0x7f)
		length >>= 7
		if length == 0 {
			buf = append(buf, b)
			break
		}
		buf = append(buf, b|0x80)
	}

	return w.Write(buf)
}

// DecodeLen reads a compact-u16 length from r.
func DecodeLen(r io.Reader) (int, error) {
	var val int
	b := make([]byte, 1)

	for i := 0; ; i++ {
		if i == maxEncodedBytes {
			return 0, errors.Errorf("invalid size: more than %d bytes", maxEncodedBytes)
		}

		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}

		val |= int(b[0]&0x7f) << (i * 7)
		if b[0]&0x80 == 0 {
			break
		}
	}

	return val, nil
}
