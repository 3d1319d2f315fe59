package allocation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/distributor-client/pkg/solana"
)

func writeTree(t *testing.T, path string, version uint64, nodes ...treeNodeFile) {
	raw, err := json.Marshal(treeFile{
		MerkleRoot:    hashValues([32]byte{9}),
		Version:       version,
		MaxNumNodes:   uint64(len(nodes)),
		MaxTotalClaim: 1000,
		Nodes:         nodes,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
}

func node(address string, amount uint64, proof ...[32]byte) treeNodeFile {
	var claimant [32]byte
	copy(claimant[:], solana.MustParsePublicKey(address))

	values := make([][]int, len(proof))
	for i := range proof {
		values[i] = hashValues(proof[i])
	}
	return treeNodeFile{Claimant: hashValues(claimant), Amount: amount, Proof: values}
}

func hashValues(hash [32]byte) []int {
	values := make([]int, len(hash))
	for i, b := range hash {
		values[i] = int(b)
	}
	return values
}

func TestReadTreeFile_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.json")

	claimant := solana.MustParsePublicKey(addrA)
	raw := `{"merkle_root":[` + byteList(32, 1) + `],"airdrop_version":3,"max_num_nodes":1,"max_total_claim":500,` +
		`"tree_nodes":[{"claimant":[` + byteListFrom(claimant) + `],"amount":500,"proof":[[` + byteList(32, 7) + `]]}]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	tree, err := ReadTreeFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, 3, tree.Version)
	assert.EqualValues(t, 1, tree.MaxNumNodes)
	assert.EqualValues(t, 500, tree.MaxTotalClaim)
	assert.EqualValues(t, 1, tree.MerkleRoot[0])
	require.Len(t, tree.Nodes, 1)
	assert.EqualValues(t, claimant, tree.Nodes[0].Claimant)
	assert.EqualValues(t, 500, tree.Nodes[0].Amount)
	require.Len(t, tree.Nodes[0].Proof, 1)
	assert.EqualValues(t, 7, tree.Nodes[0].Proof[0][31])
}

func TestReadTreeFile_InvalidNodeLength(t *testing.T) {
	claimant := solana.MustParsePublicKey(addrA)

	for _, tc := range []struct {
		name     string
		claimant string
		proof    string
		expected string
	}{
		{"short proof node", byteListFrom(claimant), byteList(31, 7), "tree node 0: proof node 0"},
		{"long proof node", byteListFrom(claimant), byteList(33, 7), "tree node 0: proof node 0"},
		{"short claimant", byteList(31, 1), byteList(32, 7), "tree node 0: claimant"},
		{"long claimant", byteList(33, 1), byteList(32, 7), "tree node 0: claimant"},
		{"byte out of range", byteListFrom(claimant), byteList(32, 256), "tree node 0: proof node 0"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "0.json")
			raw := `{"merkle_root":[` + byteList(32, 1) + `],"airdrop_version":0,"max_num_nodes":1,"max_total_claim":5,` +
				`"tree_nodes":[{"claimant":[` + tc.claimant + `],"amount":5,"proof":[[` + tc.proof + `]]}]}`
			require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

			_, err := ReadTreeFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), path)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}

	// A valid first proof node does not hide an invalid second one.
	path := filepath.Join(t.TempDir(), "0.json")
	raw := `{"merkle_root":[` + byteList(32, 1) + `],"airdrop_version":0,"max_num_nodes":1,"max_total_claim":5,` +
		`"tree_nodes":[{"claimant":[` + byteListFrom(claimant) + `],"amount":5,"proof":[[` + byteList(32, 7) + `],[` + byteList(33, 7) + `]]}]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	_, err := ReadTreeFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidHash))
	assert.Contains(t, err.Error(), "tree node 0: proof node 1")

	path = filepath.Join(t.TempDir(), "1.json")
	raw = `{"merkle_root":[` + byteList(31, 1) + `],"airdrop_version":0,"max_num_nodes":0,"max_total_claim":0,"tree_nodes":[]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	_, err = ReadTreeFile(path)
	assert.True(t, errors.Is(err, ErrInvalidHash))
}

func TestReadTreeDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, filepath.Join(dir, "1.json"), 1, node(addrA, 100, [32]byte{1}, [32]byte{2}))
	writeTree(t, filepath.Join(dir, "0.json"), 0, node(addrB, 200))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	index, err := ReadTreeDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, index.Len())

	trees := index.Trees()
	require.Len(t, trees, 2)
	assert.EqualValues(t, 0, trees[0].Version)
	assert.EqualValues(t, 1, trees[1].Version)

	leaf, ok := index.Lookup(solana.MustParsePublicKey(addrA))
	require.True(t, ok)
	assert.EqualValues(t, 100, leaf.Amount)
	assert.Equal(t, [][32]byte{{1}, {2}}, leaf.Proof)

	leaf, ok = index.Lookup(solana.MustParsePublicKey(addrB))
	require.True(t, ok)
	assert.Empty(t, leaf.Proof)

	_, ok = index.Lookup(make([]byte, 32))
	assert.False(t, ok)
}

func TestReadTreeDirectory_Errors(t *testing.T) {
	nested := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(nested, "sub"), 0o700))
	_, err := ReadTreeDirectory(nested)
	assert.Equal(t, ErrNestedDirectory, errors.Cause(err))

	duplicate := t.TempDir()
	writeTree(t, filepath.Join(duplicate, "0.json"), 0, node(addrA, 1))
	writeTree(t, filepath.Join(duplicate, "1.json"), 1, node(addrA, 1))
	_, err = ReadTreeDirectory(duplicate)
	assert.Error(t, err)

	malformed := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(malformed, "0.json"), []byte("{"), 0o600))
	_, err = ReadTreeDirectory(malformed)
	assert.Error(t, err)

	_, err = ReadTreeDirectory(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func byteList(n int, value int) string {
	values := make([]int, n)
	for i := range values {
		values[i] = value
	}
	raw, _ := json.Marshal(values)
	return string(raw[1 : len(raw)-1])
}

func byteListFrom(b []byte) string {
	values := make([]int, len(b))
	for i := range b {
		values[i] = int(b[i])
	}
	raw, _ := json.Marshal(values)
	return string(raw[1 : len(raw)-1])
}
