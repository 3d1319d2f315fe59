package merkledistributor

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/distributor-client/pkg/solana"
)

var (
	testClaimant    = solana.MustParsePublicKey("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	testDistributor = solana.MustParsePublicKey("J7cV46t2BLkoHWvmrcG1nK3wgB2D1EmHLko29bEDbnpV")
	testMint        = solana.MustParsePublicKey("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
)

func TestGetClaimStatusAddress(t *testing.T) {
	for _, tc := range []struct {
		program  string
		expected string
		bump     uint8
	}{
		{"KdisqEcXbXKaTrBFqeDLhMmBvymLTwj9GmhDcdJyGat", "GKprHLbGcwfpHqGnZTaM3mFMbVnjRFwQLqPfpe3iebSG", 255},
		{"boopEtkTLx8x8moK7mMBQZUfzaEiA96Qn7gQeNdcQMg", "B58qeTAWB2pZgG7BSJLxt5XzZaPkh2dp2S5vpDKsyNpY", 253},
	} {
		address, bump, err := GetClaimStatusAddress(&GetClaimStatusAddressArgs{
			Program:     solana.MustParsePublicKey(tc.program),
			Claimant:    testClaimant,
			Distributor: testDistributor,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(address))
		assert.Equal(t, tc.bump, bump)
	}
}

func TestGetClaimStatusAddress_DefaultProgram(t *testing.T) {
	explicit, _, err := GetClaimStatusAddress(&GetClaimStatusAddressArgs{
		Program:     DefaultProgramKey,
		Claimant:    testClaimant,
		Distributor: testDistributor,
	})
	require.NoError(t, err)

	implicit, _, err := GetClaimStatusAddress(&GetClaimStatusAddressArgs{
		Claimant:    testClaimant,
		Distributor: testDistributor,
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, implicit)
}

func TestGetClaimStatusAddress_SeedOrder(t *testing.T) {
	swapped, _, err := GetClaimStatusAddress(&GetClaimStatusAddressArgs{
		Claimant:    testDistributor,
		Distributor: testClaimant,
	})
	require.NoError(t, err)
	assert.Equal(t, "3Lwuwqnoh7AQMyv62XxZpZGPgzhDBfi8WMecG4jWtYCR", base58.Encode(swapped))
	assert.NotEqual(t, "GKprHLbGcwfpHqGnZTaM3mFMbVnjRFwQLqPfpe3iebSG", base58.Encode(swapped))
}

func TestGetDistributorAddress(t *testing.T) {
	address, _, err := GetDistributorAddress(&GetDistributorAddressArgs{
		Base:    testClaimant,
		Mint:    testMint,
		Version: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "D4ndPv3SLztAKPY4oYvS9RW9WVtLcRajn6aCRSZU2NY8", base58.Encode(address))

	other, _, err := GetDistributorAddress(&GetDistributorAddressArgs{
		Base:    testClaimant,
		Mint:    testMint,
		Version: 4,
	})
	require.NoError(t, err)
	assert.NotEqual(t, address, other)
}
