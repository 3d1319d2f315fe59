// Package allocation models per-claimant allocations and reads them from the
// local sources: the CSV export and the merkle tree files.
package allocation

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// Entry is a CSV row: a claimant and its amount in the smallest token unit.
type Entry struct {
	Claimant ed25519.PublicKey
	Amount   uint64
	// Line is the 1-based line in the source file.
	Line int
}

// Record is an allocation as served by the allocation API.
type Record struct {
	Claimant ed25519.PublicKey
	Amount   uint64
	// MerkleTree is the distributor the claimant belongs to. It is nil when
	// the claimant has no allocation.
	MerkleTree ed25519.PublicKey
	Proof      [][32]byte
}

func (r *Record) HasAllocation() bool {
	return len(r.MerkleTree) > 0
}

// FormatProofNode renders a proof node for error messages.
func FormatProofNode(node [32]byte) string {
	return hex.EncodeToString(node[:])
}

func (e Entry) String() string {
	return fmt.Sprintf("%s:%d", base58.Encode(e.Claimant), e.Amount)
}
