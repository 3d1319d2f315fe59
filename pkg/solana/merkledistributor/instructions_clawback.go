package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/system"
	"github.com/code-payments/distributor-client/pkg/solana/token"
)

type ClawbackInstructionAccounts struct {
	Distributor ed25519.PublicKey
	From        ed25519.PublicKey
	To          ed25519.PublicKey
	Claimant    ed25519.PublicKey
}

type ClawbackInstruction struct {
	Accounts ClawbackInstructionAccounts
}

func (ClawbackInstruction) Kind() InstructionKind {
	return InstructionKindClawback
}

func (i ClawbackInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewAccountMeta(i.Accounts.From, false),
		solana.NewAccountMeta(i.Accounts.To, false),
		solana.NewReadonlyAccountMeta(i.Accounts.Claimant, true),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	}
}

func (ClawbackInstruction) encodeArgs(dst []byte) []byte {
	return dst
}
