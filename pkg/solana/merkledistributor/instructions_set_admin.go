package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
)

type SetAdminInstructionAccounts struct {
	Distributor ed25519.PublicKey
	Admin       ed25519.PublicKey
	NewAdmin    ed25519.PublicKey
}

type SetAdminInstruction struct {
	Accounts SetAdminInstructionAccounts
}

func (SetAdminInstruction) Kind() InstructionKind {
	return InstructionKindSetAdmin
}

func (i SetAdminInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewAccountMeta(i.Accounts.Admin, true),
		solana.NewReadonlyAccountMeta(i.Accounts.NewAdmin, false),
	}
}

func (SetAdminInstruction) encodeArgs(dst []byte) []byte {
	return dst
}
