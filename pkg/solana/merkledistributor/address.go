package merkledistributor

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/binary"
)

type GetClaimStatusAddressArgs struct {
	Program     ed25519.PublicKey
	Claimant    ed25519.PublicKey
	Distributor ed25519.PublicKey
}

// GetClaimStatusAddress derives the claim status account of a claimant within
// a distributor. A nil Program uses DefaultProgramKey.
func GetClaimStatusAddress(args *GetClaimStatusAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		claimStatusPrefix,
		args.Claimant,
		args.Distributor,
	)
}

type GetDistributorAddressArgs struct {
	Program ed25519.PublicKey
	Base    ed25519.PublicKey
	Mint    ed25519.PublicKey
	Version uint64
}

func GetDistributorAddress(args *GetDistributorAddressArgs) (ed25519.PublicKey, uint8, error) {
	version := make([]byte, 8)
	var offset int
	binary.PutUint64(version, args.Version, &offset)

	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		merkleDistributorPrefix,
		args.Base,
		args.Mint,
		version,
	)
}

func programOrDefault(program ed25519.PublicKey) ed25519.PublicKey {
	if len(program) == 0 {
		return DefaultProgramKey
	}
	return program
}
