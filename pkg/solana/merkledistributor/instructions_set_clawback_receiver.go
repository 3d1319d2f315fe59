package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
)

type SetClawbackReceiverInstructionAccounts struct {
	Distributor        ed25519.PublicKey
	NewClawbackAccount ed25519.PublicKey
	Admin              ed25519.PublicKey
}

type SetClawbackReceiverInstruction struct {
	Accounts SetClawbackReceiverInstructionAccounts
}

func (SetClawbackReceiverInstruction) Kind() InstructionKind {
	return InstructionKindSetClawbackReceiver
}

func (i SetClawbackReceiverInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewReadonlyAccountMeta(i.Accounts.NewClawbackAccount, false),
		solana.NewAccountMeta(i.Accounts.Admin, true),
	}
}

func (SetClawbackReceiverInstruction) encodeArgs(dst []byte) []byte {
	return dst
}
