package testutil

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// WriteSolanaKeypairFile writes key in the solana-keygen format (a JSON
// array of the 64 key bytes) to a temp file and returns its path.
func WriteSolanaKeypairFile(t *testing.T, key ed25519.PrivateKey) string {
	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	raw, err := json.Marshal(values)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}
