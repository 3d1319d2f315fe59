package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
)

type CloseClaimStatusInstructionAccounts struct {
	ClaimStatus ed25519.PublicKey
	Claimant    ed25519.PublicKey
	Admin       ed25519.PublicKey
}

type CloseClaimStatusInstruction struct {
	Accounts CloseClaimStatusInstructionAccounts
}

func (CloseClaimStatusInstruction) Kind() InstructionKind {
	return InstructionKindCloseClaimStatus
}

func (i CloseClaimStatusInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.ClaimStatus, false),
		solana.NewAccountMeta(i.Accounts.Claimant, false),
		solana.NewReadonlyAccountMeta(i.Accounts.Admin, true),
	}
}

func (CloseClaimStatusInstruction) encodeArgs(dst []byte) []byte {
	return dst
}
