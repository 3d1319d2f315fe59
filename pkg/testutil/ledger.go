package testutil

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/code-payments/distributor-client/pkg/solana"
)

// Ledger is an in-memory solana.Client. Accounts, slot and blockhash are set
// by the test; transactions are recorded and never executed unless OnSubmit
// is set.
type Ledger struct {
	mu sync.Mutex

	accounts  map[string]solana.AccountInfo
	slot      uint64
	blockhash solana.Blockhash
	calls     map[string]int

	simulated []solana.Transaction
	submitted []solana.Transaction
	results   map[solana.Signature]*solana.TransactionError

	// SimulateResult is returned from SimulateTransaction when set.
	SimulateResult *solana.SimulationResult
	// OnSubmit is invoked with each submitted transaction. A returned error
	// is reported as the transaction's on-chain result.
	OnSubmit func(l *Ledger, txn solana.Transaction) *solana.TransactionError
	// Err, when set, fails every call.
	Err error
}

var _ solana.Client = (*Ledger)(nil)

func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[string]solana.AccountInfo),
		calls:    make(map[string]int),
		results:  make(map[solana.Signature]*solana.TransactionError),
	}
}

func (l *Ledger) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[base58.Encode(address)] = info
}

func (l *Ledger) DeleteAccount(address ed25519.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accounts, base58.Encode(address))
}

func (l *Ledger) SetSlot(slot uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slot = slot
}

// AdvanceSlot moves the slot forward and rotates the blockhash.
func (l *Ledger) AdvanceSlot() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slot++

	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], l.slot)
	l.blockhash = sha256.Sum256(seed[:])
}

// Calls returns how many times an RPC method was invoked.
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

func (l *Ledger) Simulated() []solana.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]solana.Transaction(nil), l.simulated...)
}

func (l *Ledger) Submitted() []solana.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]solana.Transaction(nil), l.submitted...)
}

func (l *Ledger) record(method string) error {
	l.calls[method]++
	return l.Err
}

func (l *Ledger) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record("getAccountInfo"); err != nil {
		return solana.AccountInfo{}, err
	}

	info, ok := l.accounts[base58.Encode(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (l *Ledger) GetMultipleAccounts(_ solana.Commitment, accounts ...ed25519.PublicKey) ([]*solana.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record("getMultipleAccounts"); err != nil {
		return nil, err
	}

	infos := make([]*solana.AccountInfo, len(accounts))
	for i, account := range accounts {
		if info, ok := l.accounts[base58.Encode(account)]; ok {
			info := info
			infos[i] = &info
		}
	}
	return infos, nil
}

func (l *Ledger) GetLatestBlockhash(_ solana.Commitment) (solana.Blockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record("getLatestBlockhash"); err != nil {
		return solana.Blockhash{}, err
	}
	return l.blockhash, nil
}

func (l *Ledger) GetSlot(_ solana.Commitment) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record("getSlot"); err != nil {
		return 0, err
	}
	return l.slot, nil
}

func (l *Ledger) SimulateTransaction(txn solana.Transaction, _ solana.Commitment) (*solana.SimulationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record("simulateTransaction"); err != nil {
		return nil, err
	}

	l.simulated = append(l.simulated, txn)
	if l.SimulateResult != nil {
		return l.SimulateResult, nil
	}
	return &solana.SimulationResult{Slot: l.slot}, nil
}

func (l *Ledger) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	if err := l.record("sendTransaction"); err != nil {
		l.mu.Unlock()
		return solana.Signature{}, err
	}
	l.submitted = append(l.submitted, txn)
	onSubmit := l.OnSubmit
	l.mu.Unlock()

	var sig solana.Signature
	copy(sig[:], txn.Signature())

	var txErr *solana.TransactionError
	if onSubmit != nil {
		txErr = onSubmit(l, txn)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[sig] = txErr

	return sig, nil
}

func (l *Ledger) GetSignatureStatus(sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record("getSignatureStatuses"); err != nil {
		return nil, err
	}
	return l.statusLocked(sig)
}

func (l *Ledger) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.record("getSignatureStatuses"); err != nil {
		return nil, err
	}

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		status, err := l.statusLocked(sig)
		if err == nil {
			statuses[i] = status
		}
	}
	return statuses, nil
}

func (l *Ledger) statusLocked(sig solana.Signature) (*solana.SignatureStatus, error) {
	txErr, ok := l.results[sig]
	if !ok {
		return nil, solana.ErrSignatureNotFound
	}

	return &solana.SignatureStatus{
		Slot:               l.slot,
		ErrorResult:        txErr,
		ConfirmationStatus: "confirmed",
	}, nil
}
