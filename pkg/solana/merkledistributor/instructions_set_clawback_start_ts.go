package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/binary"
)

const SetClawbackStartTsInstructionArgsSize = 8 // clawback_start_ts

type SetClawbackStartTsInstructionArgs struct {
	ClawbackStartTs int64
}

type SetClawbackStartTsInstructionAccounts struct {
	Distributor ed25519.PublicKey
	Admin       ed25519.PublicKey
}

type SetClawbackStartTsInstruction struct {
	Accounts SetClawbackStartTsInstructionAccounts
	Args     SetClawbackStartTsInstructionArgs
}

func (SetClawbackStartTsInstruction) Kind() InstructionKind {
	return InstructionKindSetClawbackStartTs
}

func (i SetClawbackStartTsInstruction) accountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(i.Accounts.Distributor, false),
		solana.NewAccountMeta(i.Accounts.Admin, true),
	}
}

func (i SetClawbackStartTsInstruction) encodeArgs(dst []byte) []byte {
	args := make([]byte, SetClawbackStartTsInstructionArgsSize)

	var offset int
	binary.PutInt64(args, i.Args.ClawbackStartTs, &offset)

	return append(dst, args...)
}

func DecodeSetClawbackStartTsArgs(data []byte) (*SetClawbackStartTsInstructionArgs, error) {
	if err := checkKind(data, InstructionKindSetClawbackStartTs); err != nil {
		return nil, err
	}
	if len(data) != discriminatorSize+SetClawbackStartTsInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}

	var args SetClawbackStartTsInstructionArgs
	offset := discriminatorSize
	binary.GetInt64(data, &args.ClawbackStartTs, &offset)
	return &args, nil
}
