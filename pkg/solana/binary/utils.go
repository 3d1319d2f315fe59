package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// Put helpers write into dst at *offset and advance it. dst must be large
// enough: program layouts are fixed size and callers allocate up front.

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[*offset:], src[:ed25519.PublicKeySize])
	*offset += ed25519.PublicKeySize
}

func PutHash32(dst []byte, src [32]byte, offset *int) {
	copy(dst[*offset:], src[:])
	*offset += 32
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}

func PutInt64(dst []byte, v int64, offset *int) {
	PutUint64(dst, uint64(v), offset)
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += 4
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}

func PutBool(dst []byte, v bool, offset *int) {
	var b uint8
	if v {
		b = 1
	}
	PutUint8(dst, b, offset)
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
}

func GetHash32(src []byte, dst *[32]byte, offset *int) {
	copy(dst[:], src[*offset:])
	*offset += 32
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

func GetInt64(src []byte, dst *int64, offset *int) {
	var v uint64
	GetUint64(src, &v, offset)
	*dst = int64(v)
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src[*offset:])
	*offset += 4
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[*offset]
	*offset += 1
}

// GetBool treats any non-zero byte as true.
func GetBool(src []byte, dst *bool, offset *int) {
	var b uint8
	GetUint8(src, &b, offset)
	*dst = b != 0
}
