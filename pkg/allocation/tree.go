package allocation

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrNestedDirectory = errors.New("wrong directory structure: tree directory must not contain subdirectories")
	ErrInvalidHash     = errors.New("expected 32 bytes")
)

// TreeNode is a claimant leaf of a merkle tree file.
type TreeNode struct {
	Claimant ed25519.PublicKey
	Amount   uint64
	Proof    [][32]byte
}

// Tree is one merkle tree file, which backs one distributor version.
type Tree struct {
	Path          string
	MerkleRoot    [32]byte
	Version       uint64
	MaxNumNodes   uint64
	MaxTotalClaim uint64
	Nodes         []TreeNode
}

type treeFile struct {
	MerkleRoot    []int          `json:"merkle_root"`
	Version       uint64         `json:"airdrop_version"`
	MaxNumNodes   uint64         `json:"max_num_nodes"`
	MaxTotalClaim uint64         `json:"max_total_claim"`
	Nodes         []treeNodeFile `json:"tree_nodes"`
}

type treeNodeFile struct {
	Claimant []int   `json:"claimant"`
	Amount   uint64  `json:"amount"`
	Proof    [][]int `json:"proof"`
}

// ReadTreeFile parses a single merkle tree file. The root, every claimant and
// every proof node must be exactly 32 values in [0, 255].
func ReadTreeFile(path string) (*Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var parsed treeFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	root, err := toHash(parsed.MerkleRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: merkle_root", path)
	}

	tree := &Tree{
		Path:          path,
		MerkleRoot:    root,
		Version:       parsed.Version,
		MaxNumNodes:   parsed.MaxNumNodes,
		MaxTotalClaim: parsed.MaxTotalClaim,
		Nodes:         make([]TreeNode, len(parsed.Nodes)),
	}
	for i, node := range parsed.Nodes {
		claimant, err := toHash(node.Claimant)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: tree node %d: claimant", path, i)
		}

		proof := make([][32]byte, len(node.Proof))
		for j, value := range node.Proof {
			proof[j], err = toHash(value)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: tree node %d: proof node %d", path, i, j)
			}
		}

		tree.Nodes[i] = TreeNode{
			Claimant: ed25519.PublicKey(claimant[:]),
			Amount:   node.Amount,
			Proof:    proof,
		}
	}

	return tree, nil
}

// TreeIndex maps claimants to their tree leaf across a directory of tree
// files. It is immutable once built and safe for concurrent reads.
type TreeIndex struct {
	trees      []*Tree
	byClaimant map[string]*TreeNode
}

// ReadTreeDirectory loads every .json file in dir. Subdirectories are an
// error, as is a claimant appearing more than once.
func ReadTreeDirectory(dir string) (*TreeIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	index := &TreeIndex{
		byClaimant: make(map[string]*TreeNode),
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return nil, errors.Wrapf(ErrNestedDirectory, "%s", filepath.Join(dir, entry.Name()))
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		tree, err := ReadTreeFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		if err := index.add(tree); err != nil {
			return nil, err
		}
	}

	return index, nil
}

// NewTreeIndex builds an index from already parsed trees.
func NewTreeIndex(trees ...*Tree) (*TreeIndex, error) {
	index := &TreeIndex{
		byClaimant: make(map[string]*TreeNode),
	}
	for _, tree := range trees {
		if err := index.add(tree); err != nil {
			return nil, err
		}
	}
	return index, nil
}

func (i *TreeIndex) add(tree *Tree) error {
	for n := range tree.Nodes {
		node := &tree.Nodes[n]
		key := base58.Encode(node.Claimant)
		if _, ok := i.byClaimant[key]; ok {
			return errors.Errorf("claimant %s appears more than once (%s)", key, tree.Path)
		}
		i.byClaimant[key] = node
	}
	i.trees = append(i.trees, tree)
	return nil
}

// Lookup returns the tree leaf of claimant.
func (i *TreeIndex) Lookup(claimant ed25519.PublicKey) (*TreeNode, bool) {
	node, ok := i.byClaimant[base58.Encode(claimant)]
	return node, ok
}

// Trees returns the loaded trees. Directory reads are ordered by file name.
func (i *TreeIndex) Trees() []*Tree {
	return i.trees
}

func (i *TreeIndex) Len() int {
	return len(i.byClaimant)
}

func toHash(values []int) ([32]byte, error) {
	var hash [32]byte
	if len(values) != len(hash) {
		return hash, errors.Wrapf(ErrInvalidHash, "got %d", len(values))
	}
	for i, v := range values {
		if v < 0 || v > 255 {
			return hash, errors.Errorf("byte %d out of range: %d", i, v)
		}
		hash[i] = byte(v)
	}
	return hash, nil
}
