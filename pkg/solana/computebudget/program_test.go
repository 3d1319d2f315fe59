package compute_budget

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "ComputeBudget111111111111111111111111111111", base58.Encode(ProgramKey))
}

func TestSetComputeUnitLimit(t *testing.T) {
	ixn := SetComputeUnitLimit(1_000_000)
	assert.True(t, IsComputeBudgetInstruction(ixn))
	assert.Empty(t, ixn.Accounts)
	assert.Equal(t, []byte{2, 0x40, 0x42, 0x0f, 0x00}, ixn.Data)

	limit, err := ParseSetComputeUnitLimitIxnData(ixn.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, limit)

	_, err = ParseSetComputeUnitPriceIxnData(ixn.Data)
	assert.Equal(t, ErrInvalidLength, err)
}

func TestSetComputeUnitPrice(t *testing.T) {
	ixn := SetComputeUnitPrice(15)
	assert.True(t, IsComputeBudgetInstruction(ixn))
	assert.Equal(t, []byte{3, 15, 0, 0, 0, 0, 0, 0, 0}, ixn.Data)

	price, err := ParseSetComputeUnitPriceIxnData(ixn.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 15, price)

	corrupt := append([]byte{}, ixn.Data...)
	corrupt[0] = commandRequestUnits
	_, err = ParseSetComputeUnitPriceIxnData(corrupt)
	assert.Equal(t, ErrInvalidInstruction, err)
}
