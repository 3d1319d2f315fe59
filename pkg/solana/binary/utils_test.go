package binary

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	var hash [32]byte
	hash[0], hash[31] = 7, 9

	buf := make([]byte, 32+32+8+8+4+1+1)
	var offset int
	PutKey32(buf, pub, &offset)
	PutHash32(buf, hash, &offset)
	PutUint64(buf, 1<<40+3, &offset)
	PutInt64(buf, -42, &offset)
	PutUint32(buf, 77, &offset)
	PutUint8(buf, 5, &offset)
	PutBool(buf, true, &offset)
	require.Equal(t, len(buf), offset)

	var (
		key      ed25519.PublicKey
		gotHash  [32]byte
		u64      uint64
		i64      int64
		u32      uint32
		u8       uint8
		flag     bool
		readFrom int
	)
	GetKey32(buf, &key, &readFrom)
	GetHash32(buf, &gotHash, &readFrom)
	GetUint64(buf, &u64, &readFrom)
	GetInt64(buf, &i64, &readFrom)
	GetUint32(buf, &u32, &readFrom)
	GetUint8(buf, &u8, &readFrom)
	GetBool(buf, &flag, &readFrom)

	assert.Equal(t, offset, readFrom)
	assert.EqualValues(t, pub, key)
	assert.Equal(t, hash, gotHash)
	assert.EqualValues(t, 1<<40+3, u64)
	assert.EqualValues(t, -42, i64)
	assert.EqualValues(t, 77, u32)
	assert.EqualValues(t, 5, u8)
	assert.True(t, flag)
}

func TestLittleEndian(t *testing.T) {
	buf := make([]byte, 8)
	var offset int
	PutUint64(buf, 3, &offset)
	assert.Equal(t, []byte{3, 0, 0, 0, 0, 0, 0, 0}, buf)
}
