package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/binary"
	"github.com/code-payments/distributor-client/pkg/solana/system"
	"github.com/code-payments/distributor-client/pkg/solana/token"
)

const (
	newClaimFixedArgsSize = (8 + // amount_unlocked
		8 + // amount_locked
		4) // proof length
)

type NewClaimInstructionArgs struct {
	AmountUnlocked uint64
	AmountLocked   uint64
	Proof          [][32]byte
}

type NewClaimInstructionAccounts struct {
	Distributor ed25519.PublicKey
	ClaimStatus ed25519.PublicKey
	From        ed25519.PublicKey
	To          ed25519.PublicKey
	Claimant    ed25519.PublicKey
}

type NewClaimInstruction struct {
	Accounts NewClaimInstructionAccounts
	Args     NewClaimInstructionArgs
}

func (NewClaimInstruction) Kind() InstructionKind {
	return InstructionKindNewClaim
}

func (i NewClaimInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewAccountMeta(i.Accounts.ClaimStatus, false),
		solana.NewAccountMeta(i.Accounts.From, false),
		solana.NewAccountMeta(i.Accounts.To, false),
		solana.NewAccountMeta(i.Accounts.Claimant, true),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	}
}

func (i NewClaimInstruction) encodeArgs(dst []byte) []byte {
	args := make([]byte, newClaimFixedArgsSize+32*len(i.Args.Proof))

	var offset int
	binary.PutUint64(args, i.Args.AmountUnlocked, &offset)
	binary.PutUint64(args, i.Args.AmountLocked, &offset)
	binary.PutUint32(args, uint32(len(i.Args.Proof)), &offset)
	for _, node := range i.Args.Proof {
		binary.PutHash32(args, node, &offset)
	}

	return append(dst, args...)
}

// DecodeNewClaimArgs reads the arguments of a new_claim instruction.
func DecodeNewClaimArgs(data []byte) (*NewClaimInstructionArgs, error) {
	if err := checkKind(data, InstructionKindNewClaim); err != nil {
		return nil, err
	}

	args := data[discriminatorSize:]
	if len(args) < newClaimFixedArgsSize {
		return nil, ErrInvalidInstructionData
	}

	var (
		result   NewClaimInstructionArgs
		proofLen uint32
		offset   int
	)
	binary.GetUint64(args, &result.AmountUnlocked, &offset)
	binary.GetUint64(args, &result.AmountLocked, &offset)
	binary.GetUint32(args, &proofLen, &offset)

	if uint64(len(args)-offset) != 32*uint64(proofLen) {
		return nil, ErrInvalidInstructionData
	}

	result.Proof = make([][32]byte, proofLen)
	for i := range result.Proof {
		binary.GetHash32(args, &result.Proof[i], &offset)
	}

	return &result, nil
}
