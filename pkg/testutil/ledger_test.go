package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/distributor-client/pkg/solana"
)

func TestLedger_Accounts(t *testing.T) {
	keys := GenerateSolanaKeys(t, 3)
	ledger := NewLedger()

	ledger.SetAccount(keys[1], solana.AccountInfo{Data: []byte{1}, Lamports: 10})

	_, err := ledger.GetAccountInfo(keys[0], solana.CommitmentConfirmed)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	infos, err := ledger.GetMultipleAccounts(solana.CommitmentConfirmed, keys...)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Nil(t, infos[0])
	require.NotNil(t, infos[1])
	assert.EqualValues(t, 10, infos[1].Lamports)
	assert.Nil(t, infos[2])

	ledger.DeleteAccount(keys[1])
	_, err = ledger.GetAccountInfo(keys[1], solana.CommitmentConfirmed)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	assert.Equal(t, 2, ledger.Calls("getAccountInfo"))
	assert.Equal(t, 1, ledger.Calls("getMultipleAccounts"))
}

func TestLedger_SlotAndBlockhash(t *testing.T) {
	ledger := NewLedger()
	ledger.SetSlot(41)

	before, err := ledger.GetLatestBlockhash(solana.CommitmentConfirmed)
	require.NoError(t, err)

	ledger.AdvanceSlot()
	slot, err := ledger.GetSlot(solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 42, slot)

	after, err := ledger.GetLatestBlockhash(solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestLedger_Submit(t *testing.T) {
	payer := GenerateSolanaKeypair(t)
	other := GenerateSolanaKeys(t, 1)[0]

	ledger := NewLedger()
	ledger.OnSubmit = func(l *Ledger, txn solana.Transaction) *solana.TransactionError {
		l.SetAccount(other, solana.AccountInfo{Data: []byte{1}})
		return nil
	}

	txn := solana.NewTransaction(payer.Public().(ed25519.PublicKey), solana.NewInstruction(other, []byte{1}))
	require.NoError(t, txn.Sign(payer))

	sig, err := solana.SendAndConfirm(ledger, txn, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, txn.Signature(), sig[:])
	assert.Len(t, ledger.Submitted(), 1)

	_, err = ledger.GetAccountInfo(other, solana.CommitmentConfirmed)
	assert.NoError(t, err)

	_, err = ledger.GetSignatureStatus(solana.Signature{}, solana.CommitmentConfirmed)
	assert.Equal(t, solana.ErrSignatureNotFound, err)
}
