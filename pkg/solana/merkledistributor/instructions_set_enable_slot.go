package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/binary"
)

const SetEnableSlotInstructionArgsSize = 8 // enable_slot

type SetEnableSlotInstructionArgs struct {
	EnableSlot uint64
}

type SetEnableSlotInstructionAccounts struct {
	Distributor ed25519.PublicKey
	Admin       ed25519.PublicKey
}

type SetEnableSlotInstruction struct {
	Accounts SetEnableSlotInstructionAccounts
	Args     SetEnableSlotInstructionArgs
}

func (SetEnableSlotInstruction) Kind() InstructionKind {
	return InstructionKindSetEnableSlot
}

func (i SetEnableSlotInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewAccountMeta(i.Accounts.Admin, true),
	}
}

func (i SetEnableSlotInstruction) encodeArgs(dst []byte) []byte {
	args := make([]byte, SetEnableSlotInstructionArgsSize)

	var offset int
	binary.PutUint64(args, i.Args.EnableSlot, &offset)

	return append(dst, args...)
}

func DecodeSetEnableSlotArgs(data []byte) (*SetEnableSlotInstructionArgs, error) {
	if err := checkKind(data, InstructionKindSetEnableSlot); err != nil {
		return nil, err
	}
	if len(data) != discriminatorSize+SetEnableSlotInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}

	var args SetEnableSlotInstructionArgs
	offset := discriminatorSize
	binary.GetUint64(data, &args.EnableSlot, &offset)
	return &args, nil
}
