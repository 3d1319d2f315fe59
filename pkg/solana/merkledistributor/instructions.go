package merkledistributor

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/code-payments/distributor-client/pkg/solana"
)

// InstructionKind enumerates the instructions of the distributor program.
type InstructionKind uint8

const (
	InstructionKindUnknown InstructionKind = iota
	InstructionKindNewDistributor
	InstructionKindCloseDistributor
	InstructionKindCloseClaimStatus
	InstructionKindSetEnableSlot
	InstructionKindNewClaim
	InstructionKindClaimLocked
	InstructionKindClawback
	InstructionKindSetClawbackReceiver
	InstructionKindSetAdmin
	InstructionKindSetClawbackStartTs
)

var instructionDiscriminators = map[InstructionKind][]byte{
	InstructionKindNewDistributor:      {32, 139, 112, 171, 0, 2, 225, 155},
	InstructionKindCloseDistributor:    {202, 56, 180, 143, 46, 104, 106, 112},
	InstructionKindCloseClaimStatus:    {163, 214, 191, 165, 245, 188, 17, 185},
	InstructionKindSetEnableSlot:       {5, 52, 73, 33, 150, 115, 97, 206},
	InstructionKindNewClaim:            {78, 177, 98, 123, 210, 21, 187, 83},
	InstructionKindClaimLocked:         {34, 206, 181, 23, 11, 207, 147, 90},
	InstructionKindClawback:            {111, 92, 142, 79, 33, 234, 82, 27},
	InstructionKindSetClawbackReceiver: {153, 217, 34, 20, 19, 29, 229, 75},
	InstructionKindSetAdmin:            {251, 163, 0, 52, 91, 194, 187, 92},
	InstructionKindSetClawbackStartTs:  {83, 102, 71, 44, 243, 244, 186, 8},
}

func (k InstructionKind) String() string {
	switch k {
	case InstructionKindNewDistributor:
		return "new_distributor"
	case InstructionKindCloseDistributor:
		return "close_distributor"
	case InstructionKindCloseClaimStatus:
		return "close_claim_status"
	case InstructionKindSetEnableSlot:
		return "set_enable_slot"
	case InstructionKindNewClaim:
		return "new_claim"
	case InstructionKindClaimLocked:
		return "claim_locked"
	case InstructionKindClawback:
		return "clawback"
	case InstructionKindSetClawbackReceiver:
		return "set_clawback_receiver"
	case InstructionKindSetAdmin:
		return "set_admin"
	case InstructionKindSetClawbackStartTs:
		return "set_clawback_start_ts"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Instruction is one of the distributor program instructions. The set of
// implementations is closed to this package.
type Instruction interface {
	Kind() InstructionKind

	accountMetas() []solana.AccountMeta
	encodeArgs(dst []byte) []byte
}

// Encode packs an instruction for the given program: the discriminator of its
// kind, then its arguments little-endian, then its account list.
func Encode(program ed25519.PublicKey, ixn Instruction) solana.Instruction {
	discriminator := instructionDiscriminators[ixn.Kind()]

	data := make([]byte, 0, discriminatorSize)
	data = append(data, discriminator...)
	data = ixn.encodeArgs(data)

	return solana.NewInstruction(
		programOrDefault(program),
		data,
		ixn.accountMetas()...,
	)
}

// DecodeInstructionKind identifies the instruction from its data.
func DecodeInstructionKind(data []byte) (InstructionKind, error) {
	if len(data) < discriminatorSize {
		return InstructionKindUnknown, ErrInvalidInstructionData
	}

	for kind, discriminator := range instructionDiscriminators {
		if bytes.Equal(data[:discriminatorSize], discriminator) {
			return kind, nil
		}
	}

	return InstructionKindUnknown, ErrInvalidInstructionData
}

func checkKind(data []byte, expected InstructionKind) error {
	kind, err := DecodeInstructionKind(data)
	if err != nil {
		return err
	}
	if kind != expected {
		return ErrInvalidInstructionData
	}
	return nil
}
