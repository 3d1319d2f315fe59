// Package merkledistributor implements the client side of the merkle
// distributor program: addresses, account layouts and instructions.
package merkledistributor

import (
	"github.com/pkg/errors"

	"github.com/code-payments/distributor-client/pkg/solana"
)

// DefaultProgramKey is the deployed merkle distributor program.
var DefaultProgramKey = solana.MustParsePublicKey("KdisqEcXbXKaTrBFqeDLhMmBvymLTwj9GmhDcdJyGat")

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

const discriminatorSize = 8

var (
	claimStatusPrefix       = []byte("ClaimStatus")
	merkleDistributorPrefix = []byte("MerkleDistributor")
)
