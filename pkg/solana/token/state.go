package token

import (
	"crypto/ed25519"

	"github.com/code-payments/distributor-client/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// stateOffset skips the COption<Pubkey> delegate (4-byte tag + key).
const stateOffset = 32 + 32 + 8 + 4 + 32

// Account holds the token account fields this client reads. Delegation and
// close authority are ignored.
type Account struct {
	Mint   ed25519.PublicKey
	Owner  ed25519.PublicKey
	Amount uint64
	State  AccountState
}

func (a *Account) Unmarshal(b []byte) bool {
	if len(b) != AccountSize {
		return false
	}

	var offset int
	binary.GetKey32(b, &a.Mint, &offset)
	binary.GetKey32(b, &a.Owner, &offset)
	binary.GetUint64(b, &a.Amount, &offset)
	a.State = AccountState(b[stateOffset])

	return true
}
