package distributor

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/distributor-client/pkg/solana"
	compute_budget "github.com/code-payments/distributor-client/pkg/solana/computebudget"
	"github.com/code-payments/distributor-client/pkg/solana/merkledistributor"
	"github.com/code-payments/distributor-client/pkg/solana/token"
	"github.com/code-payments/distributor-client/pkg/testutil"
)

type adminEnv struct {
	*testEnv

	admin    ed25519.PrivateKey
	target   Target
	accounts map[uint64]merkledistributor.MerkleDistributorAccount
}

func setupAdmin(t *testing.T, versions ...uint64) *adminEnv {
	env := &adminEnv{
		testEnv:  setup(t),
		admin:    testutil.GenerateSolanaKeypair(t),
		accounts: make(map[uint64]merkledistributor.MerkleDistributorAccount),
	}

	keys := testutil.GenerateSolanaKeys(t, 2)
	env.target = Target{
		Base:     keys[0],
		Mint:     keys[1],
		Versions: versions,
	}

	for _, version := range versions {
		account := newDistributorAccount(t)
		account.Version = version
		account.Mint = env.target.Mint
		account.Admin = env.admin.Public().(ed25519.PublicKey)
		account.EnableSlot = 100

		env.putDistributorAt(env.distributorAddress(t, version), account)
		env.accounts[version] = account
	}

	return env
}

func (e *adminEnv) distributorAddress(t *testing.T, version uint64) ed25519.PublicKey {
	address, _, err := merkledistributor.GetDistributorAddress(&merkledistributor.GetDistributorAddressArgs{
		Base:    e.target.Base,
		Mint:    e.target.Mint,
		Version: version,
	})
	require.NoError(t, err)
	return address
}

func (e *adminEnv) newAdmin(opts ...AdminOption) *Admin {
	opts = append([]AdminOption{WithAdminRetry(3, 0)}, opts...)
	return NewAdmin(e.ledger, e.reader, e.admin, opts...)
}

func TestVersionRange(t *testing.T) {
	versions, err := VersionRange(3, 6)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4, 5, 6}, versions)

	versions, err = VersionRange(7, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, versions)

	_, err = VersionRange(8, 7)
	assert.Error(t, err)
}

func TestAdmin_SetEnableSlot(t *testing.T) {
	env := setupAdmin(t, 0, 1)

	results, err := env.newAdmin().Update(env.ctx, env.target, SetEnableSlot{EnableSlot: 5000}, UpdateOptions{ComputeUnitPrice: 7})
	require.NoError(t, err)
	require.Len(t, results, 2)

	submitted := env.ledger.Submitted()
	require.Len(t, submitted, 2)

	for i, txn := range submitted {
		assert.False(t, results[i].Skipped)
		assert.EqualValues(t, i, results[i].Version)
		assert.Equal(t, env.distributorAddress(t, uint64(i)), results[i].Distributor)
		assert.Equal(t, txn.Signature(), results[i].Signature[:])

		require.Len(t, txn.Message.Instructions, 2)

		price := txn.Message.Instructions[0]
		assert.EqualValues(t, compute_budget.ProgramKey, txn.Message.Accounts[price.ProgramIndex])
		microLamports, err := compute_budget.ParseSetComputeUnitPriceIxnData(price.Data)
		require.NoError(t, err)
		assert.EqualValues(t, 7, microLamports)

		update := txn.Message.Instructions[1]
		assert.EqualValues(t, merkledistributor.DefaultProgramKey, txn.Message.Accounts[update.ProgramIndex])
		args, err := merkledistributor.DecodeSetEnableSlotArgs(update.Data)
		require.NoError(t, err)
		assert.EqualValues(t, 5000, args.EnableSlot)

		assert.EqualValues(t, env.distributorAddress(t, uint64(i)), txn.Message.Accounts[update.Accounts[0]])
		assert.EqualValues(t, env.admin.Public(), txn.Message.Accounts[update.Accounts[1]])
	}
}

func TestAdmin_SkipsAppliedChanges(t *testing.T) {
	env := setupAdmin(t, 0, 1, 2)

	account := env.accounts[1]
	account.EnableSlot = 5000
	env.putDistributorAt(env.distributorAddress(t, 1), account)

	results, err := env.newAdmin().Update(env.ctx, env.target, SetEnableSlot{EnableSlot: 5000}, UpdateOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[0].Skipped)
	assert.True(t, results[1].Skipped)
	assert.Contains(t, results[1].String(), "skip airdrop version 1")
	assert.False(t, results[2].Skipped)

	submitted := env.ledger.Submitted()
	require.Len(t, submitted, 2)
	for _, txn := range submitted {
		// No compute unit price without an explicit price.
		assert.Len(t, txn.Message.Instructions, 1)
	}
}

func TestAdmin_Changes(t *testing.T) {
	env := setupAdmin(t, 0)
	distributor := &Distributor{MerkleDistributorAccount: env.accounts[0]}

	assert.True(t, SetAdmin{NewAdmin: env.admin.Public().(ed25519.PublicKey)}.Applied(distributor))
	assert.False(t, SetAdmin{NewAdmin: testutil.GenerateSolanaKeys(t, 1)[0]}.Applied(distributor))

	assert.True(t, SetEnableSlot{EnableSlot: 100}.Applied(distributor))
	assert.False(t, SetClawbackStartTs{ClawbackStartTs: 1}.Applied(distributor))

	receiver := testutil.GenerateSolanaKeys(t, 1)[0]
	change, err := NewSetClawbackReceiver(receiver, env.target.Mint)
	require.NoError(t, err)

	ata, err := token.GetAssociatedAccount(receiver, env.target.Mint)
	require.NoError(t, err)
	assert.Equal(t, ata, change.TokenAccount)
	assert.False(t, change.Applied(distributor))

	distributor.ClawbackReceiver = ata
	assert.True(t, change.Applied(distributor))

	assert.Equal(t, "set_admin", SetAdmin{}.Name())
	assert.Equal(t, "set_clawback_receiver", SetClawbackReceiver{}.Name())
	assert.Equal(t, "set_clawback_start_ts", SetClawbackStartTs{}.Name())
	assert.Equal(t, "set_enable_slot", SetEnableSlot{}.Name())
}

func TestAdmin_MessageOnly(t *testing.T) {
	env := setupAdmin(t, 4)

	multisig := testutil.GenerateSolanaKeys(t, 1)[0]
	account := env.accounts[4]
	account.Admin = multisig
	env.putDistributorAt(env.distributorAddress(t, 4), account)

	newAdmin := testutil.GenerateSolanaKeys(t, 1)[0]
	admin := NewAdmin(env.ledger, env.reader, nil)

	results, err := admin.Update(env.ctx, env.target, SetAdmin{NewAdmin: newAdmin}, UpdateOptions{MessageOnly: true, ComputeUnitPrice: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].Message)
	assert.Equal(t, results[0].Message, results[0].String())

	raw, err := base58.Decode(results[0].Message)
	require.NoError(t, err)

	var m solana.Message
	require.NoError(t, m.Unmarshal(raw))
	assert.EqualValues(t, multisig, m.Accounts[0])

	// The price is never added to messages.
	require.Len(t, m.Instructions, 1)
	ixn := m.Instructions[0]
	kind, err := merkledistributor.DecodeInstructionKind(ixn.Data)
	require.NoError(t, err)
	assert.Equal(t, merkledistributor.InstructionKindSetAdmin, kind)

	assert.EqualValues(t, multisig, m.Accounts[ixn.Accounts[1]])
	assert.EqualValues(t, newAdmin, m.Accounts[ixn.Accounts[2]])

	assert.Empty(t, env.ledger.Submitted())
}

func TestAdmin_Retry(t *testing.T) {
	env := setupAdmin(t, 0)

	var failures int
	env.ledger.OnSubmit = func(_ *testutil.Ledger, _ solana.Transaction) *solana.TransactionError {
		if failures < 2 {
			failures++
			return solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
		}
		return nil
	}

	results, err := env.newAdmin().Update(env.ctx, env.target, SetClawbackStartTs{ClawbackStartTs: 1_700_000_000}, UpdateOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, env.ledger.Submitted(), 3)

	args, err := merkledistributor.DecodeSetClawbackStartTsArgs(env.ledger.Submitted()[2].Message.Instructions[0].Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_700_000_000, args.ClawbackStartTs)
}

func TestAdmin_RetryExhausted(t *testing.T) {
	env := setupAdmin(t, 0, 1)

	env.ledger.OnSubmit = func(_ *testutil.Ledger, _ solana.Transaction) *solana.TransactionError {
		return solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}

	results, err := env.newAdmin().Update(env.ctx, env.target, SetEnableSlot{EnableSlot: 1}, UpdateOptions{})
	require.Error(t, err)
	assert.Empty(t, results)
	assert.Len(t, env.ledger.Submitted(), 3)
}

func TestAdmin_Errors(t *testing.T) {
	env := setupAdmin(t, 0)

	_, err := NewAdmin(env.ledger, env.reader, nil).Update(env.ctx, env.target, SetEnableSlot{EnableSlot: 1}, UpdateOptions{})
	assert.Error(t, err)

	target := env.target
	target.Versions = []uint64{9}
	_, err = env.newAdmin().Update(env.ctx, target, SetEnableSlot{EnableSlot: 1}, UpdateOptions{})
	assert.ErrorIs(t, err, ErrDistributorNotFound)
}
