package merkledistributor

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana/binary"
)

var claimStatusAccountDiscriminator = []byte{22, 183, 249, 157, 247, 95, 150, 96}

const (
	ClaimStatusAccountSize = (discriminatorSize +
		32 + // claimant
		8 + // locked_amount
		8 + // locked_amount_withdrawn
		8 + // unlocked_amount
		1 + // closable
		32) // admin
)

type ClaimStatusAccount struct {
	Claimant              ed25519.PublicKey
	LockedAmount          uint64
	LockedAmountWithdrawn uint64
	UnlockedAmount        uint64
	Closable              bool
	Admin                 ed25519.PublicKey
}

func (obj *ClaimStatusAccount) Marshal() []byte {
	data := make([]byte, ClaimStatusAccountSize)

	var offset int
	copy(data, claimStatusAccountDiscriminator)
	offset += discriminatorSize

	putOptionalKey(data, obj.Claimant, &offset)
	binary.PutUint64(data, obj.LockedAmount, &offset)
	binary.PutUint64(data, obj.LockedAmountWithdrawn, &offset)
	binary.PutUint64(data, obj.UnlockedAmount, &offset)
	binary.PutBool(data, obj.Closable, &offset)
	putOptionalKey(data, obj.Admin, &offset)

	return data
}

func (obj *ClaimStatusAccount) Unmarshal(data []byte) error {
	if len(data) < ClaimStatusAccountSize {
		return ErrInvalidAccountData
	}

	if !bytes.Equal(data[:discriminatorSize], claimStatusAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	offset := discriminatorSize

	binary.GetKey32(data, &obj.Claimant, &offset)
	binary.GetUint64(data, &obj.LockedAmount, &offset)
	binary.GetUint64(data, &obj.LockedAmountWithdrawn, &offset)
	binary.GetUint64(data, &obj.UnlockedAmount, &offset)
	binary.GetBool(data, &obj.Closable, &offset)
	binary.GetKey32(data, &obj.Admin, &offset)

	return nil
}

// TotalAmount is the amount allotted to the claimant, locked and unlocked.
func (obj *ClaimStatusAccount) TotalAmount() uint64 {
	return obj.LockedAmount + obj.UnlockedAmount
}
