package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/binary"
	"github.com/code-payments/distributor-client/pkg/solana/system"
	"github.com/code-payments/distributor-client/pkg/solana/token"
)

const (
	NewDistributorInstructionArgsSize = (8 + // version
		32 + // root
		8 + // max_total_claim
		8 + // max_num_nodes
		8 + // start_vesting_ts
		8 + // end_vesting_ts
		8 + // clawback_start_ts
		8 + // enable_slot
		1) // closable
)

type NewDistributorInstructionArgs struct {
	Version         uint64
	Root            [32]byte
	MaxTotalClaim   uint64
	MaxNumNodes     uint64
	StartVestingTs  int64
	EndVestingTs    int64
	ClawbackStartTs int64
	EnableSlot      uint64
	Closable        bool
}

type NewDistributorInstructionAccounts struct {
	Distributor      ed25519.PublicKey
	Base             ed25519.PublicKey
	ClawbackReceiver ed25519.PublicKey
	Mint             ed25519.PublicKey
	TokenVault       ed25519.PublicKey
	Admin            ed25519.PublicKey
}

type NewDistributorInstruction struct {
	Accounts NewDistributorInstructionAccounts
	Args     NewDistributorInstructionArgs
}

func (NewDistributorInstruction) Kind() InstructionKind {
	return InstructionKindNewDistributor
}

func (i NewDistributorInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewReadonlyAccountMeta(i.Accounts.Base, true),
		solana.NewAccountMeta(i.Accounts.ClawbackReceiver, false),
		solana.NewReadonlyAccountMeta(i.Accounts.Mint, false),
		solana.NewReadonlyAccountMeta(i.Accounts.TokenVault, false),
		solana.NewAccountMeta(i.Accounts.Admin, true),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(token.AssociatedTokenAccountProgramKey, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	}
}

func (i NewDistributorInstruction) encodeArgs(dst []byte) []byte {
	args := make([]byte, NewDistributorInstructionArgsSize)

	var offset int
	binary.PutUint64(args, i.Args.Version, &offset)
	binary.PutHash32(args, i.Args.Root, &offset)
	binary.PutUint64(args, i.Args.MaxTotalClaim, &offset)
	binary.PutUint64(args, i.Args.MaxNumNodes, &offset)
	binary.PutInt64(args, i.Args.StartVestingTs, &offset)
	binary.PutInt64(args, i.Args.EndVestingTs, &offset)
	binary.PutInt64(args, i.Args.ClawbackStartTs, &offset)
	binary.PutUint64(args, i.Args.EnableSlot, &offset)
	binary.PutBool(args, i.Args.Closable, &offset)

	return append(dst, args...)
}
