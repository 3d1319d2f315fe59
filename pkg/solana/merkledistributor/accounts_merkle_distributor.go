package merkledistributor

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/distributor-client/pkg/solana/binary"
)

var merkleDistributorAccountDiscriminator = []byte{77, 119, 139, 70, 84, 247, 12, 26}

const (
	bufferSize = 32

	MerkleDistributorAccountSize = (discriminatorSize +
		1 + // bump
		8 + // version
		32 + // root
		32 + // mint
		32 + // token_vault
		8 + // max_total_claim
		8 + // max_num_nodes
		8 + // total_amount_claimed
		8 + // num_nodes_claimed
		8 + // start_ts
		8 + // end_ts
		8 + // clawback_start_ts
		32 + // clawback_receiver
		32 + // admin
		1 + // clawed_back
		8 + // enable_slot
		1 + // closable
		3*bufferSize) // reserved
)

type MerkleDistributorAccount struct {
	Bump               uint8
	Version            uint64
	Root               [32]byte
	Mint               ed25519.PublicKey
	TokenVault         ed25519.PublicKey
	MaxTotalClaim      uint64
	MaxNumNodes        uint64
	TotalAmountClaimed uint64
	NumNodesClaimed    uint64
	StartTs            int64
	EndTs              int64
	ClawbackStartTs    int64
	ClawbackReceiver   ed25519.PublicKey
	Admin              ed25519.PublicKey
	ClawedBack         bool
	EnableSlot         uint64
	Closable           bool
}

func (obj *MerkleDistributorAccount) Marshal() []byte {
	data := make([]byte, MerkleDistributorAccountSize)

	var offset int
	copy(data, merkleDistributorAccountDiscriminator)
	offset += discriminatorSize

	binary.PutUint8(data, obj.Bump, &offset)
	binary.PutUint64(data, obj.Version, &offset)
	binary.PutHash32(data, obj.Root, &offset)
	putOptionalKey(data, obj.Mint, &offset)
	putOptionalKey(data, obj.TokenVault, &offset)
	binary.PutUint64(data, obj.MaxTotalClaim, &offset)
	binary.PutUint64(data, obj.MaxNumNodes, &offset)
	binary.PutUint64(data, obj.TotalAmountClaimed, &offset)
	binary.PutUint64(data, obj.NumNodesClaimed, &offset)
	binary.PutInt64(data, obj.StartTs, &offset)
	binary.PutInt64(data, obj.EndTs, &offset)
	binary.PutInt64(data, obj.ClawbackStartTs, &offset)
	putOptionalKey(data, obj.ClawbackReceiver, &offset)
	putOptionalKey(data, obj.Admin, &offset)
	binary.PutBool(data, obj.ClawedBack, &offset)
	binary.PutUint64(data, obj.EnableSlot, &offset)
	binary.PutBool(data, obj.Closable, &offset)

	return data
}

func (obj *MerkleDistributorAccount) Unmarshal(data []byte) error {
	if len(data) < MerkleDistributorAccountSize {
		return ErrInvalidAccountData
	}

	if !bytes.Equal(data[:discriminatorSize], merkleDistributorAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	offset := discriminatorSize

	binary.GetUint8(data, &obj.Bump, &offset)
	binary.GetUint64(data, &obj.Version, &offset)
	binary.GetHash32(data, &obj.Root, &offset)
	binary.GetKey32(data, &obj.Mint, &offset)
	binary.GetKey32(data, &obj.TokenVault, &offset)
	binary.GetUint64(data, &obj.MaxTotalClaim, &offset)
	binary.GetUint64(data, &obj.MaxNumNodes, &offset)
	binary.GetUint64(data, &obj.TotalAmountClaimed, &offset)
	binary.GetUint64(data, &obj.NumNodesClaimed, &offset)
	binary.GetInt64(data, &obj.StartTs, &offset)
	binary.GetInt64(data, &obj.EndTs, &offset)
	binary.GetInt64(data, &obj.ClawbackStartTs, &offset)
	binary.GetKey32(data, &obj.ClawbackReceiver, &offset)
	binary.GetKey32(data, &obj.Admin, &offset)
	binary.GetBool(data, &obj.ClawedBack, &offset)
	binary.GetUint64(data, &obj.EnableSlot, &offset)
	binary.GetBool(data, &obj.Closable, &offset)

	return nil
}

func (obj *MerkleDistributorAccount) String() string {
	return fmt.Sprintf(
		"MerkleDistributor{version=%d,mint=%s,claimed=%d/%d,nodes=%d/%d,enable_slot=%d,admin=%s}",
		obj.Version,
		base58.Encode(obj.Mint),
		obj.TotalAmountClaimed,
		obj.MaxTotalClaim,
		obj.NumNodesClaimed,
		obj.MaxNumNodes,
		obj.EnableSlot,
		base58.Encode(obj.Admin),
	)
}

// putOptionalKey leaves zeroes for an unset key so partially filled
// accounts can be marshalled in tests.
func putOptionalKey(dst []byte, key ed25519.PublicKey, offset *int) {
	if len(key) == 0 {
		*offset += ed25519.PublicKeySize
		return
	}
	binary.PutKey32(dst, key, offset)
}
