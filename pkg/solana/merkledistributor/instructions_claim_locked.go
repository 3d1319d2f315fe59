package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/token"
)

type ClaimLockedInstructionAccounts struct {
	Distributor ed25519.PublicKey
	ClaimStatus ed25519.PublicKey
	From        ed25519.PublicKey
	To          ed25519.PublicKey
	Claimant    ed25519.PublicKey
}

type ClaimLockedInstruction struct {
	Accounts ClaimLockedInstructionAccounts
}

func (ClaimLockedInstruction) Kind() InstructionKind {
	return InstructionKindClaimLocked
}

func (i ClaimLockedInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewAccountMeta(i.Accounts.ClaimStatus, false),
		solana.NewAccountMeta(i.Accounts.From, false),
		solana.NewAccountMeta(i.Accounts.To, false),
		solana.NewAccountMeta(i.Accounts.Claimant, true),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	}
}

func (ClaimLockedInstruction) encodeArgs(dst []byte) []byte {
	return dst
}
