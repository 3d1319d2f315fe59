package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/token"
)

type CloseDistributorInstructionAccounts struct {
	Distributor             ed25519.PublicKey
	TokenVault              ed25519.PublicKey
	Admin                   ed25519.PublicKey
	DestinationTokenAccount ed25519.PublicKey
}

type CloseDistributorInstruction struct {
	Accounts CloseDistributorInstructionAccounts
}

func (CloseDistributorInstruction) Kind() InstructionKind {
	return InstructionKindCloseDistributor
}

func (i CloseDistributorInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewAccountMeta(i.Accounts.TokenVault, false),
		solana.NewAccountMeta(i.Accounts.Admin, true),
		solana.NewAccountMeta(i.Accounts.DestinationTokenAccount, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	}
}

func (CloseDistributorInstruction) encodeArgs(dst []byte) []byte {
	return dst
}
