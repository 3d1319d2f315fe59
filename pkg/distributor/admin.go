package distributor

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/distributor-client/pkg/metrics"
	"github.com/code-payments/distributor-client/pkg/retry"
	"github.com/code-payments/distributor-client/pkg/retry/backoff"
	"github.com/code-payments/distributor-client/pkg/solana"
	compute_budget "github.com/code-payments/distributor-client/pkg/solana/computebudget"
	"github.com/code-payments/distributor-client/pkg/solana/merkledistributor"
	"github.com/code-payments/distributor-client/pkg/solana/token"
)

const (
	adminMetricsStructName = "distributor.admin"

	defaultAdminAttempts   = 5
	defaultAdminRetryDelay = 2 * time.Second
)

// Change is an admin update applied to a distributor.
type Change interface {
	Name() string

	// Applied reports whether the distributor already holds the new value.
	Applied(d *Distributor) bool

	instruction(distributor, admin ed25519.PublicKey) merkledistributor.Instruction
}

type SetAdmin struct {
	NewAdmin ed25519.PublicKey
}

func (SetAdmin) Name() string {
	return merkledistributor.InstructionKindSetAdmin.String()
}

func (c SetAdmin) Applied(d *Distributor) bool {
	return keysEqual(d.Admin, c.NewAdmin)
}

func (c SetAdmin) instruction(distributor, admin ed25519.PublicKey) merkledistributor.Instruction {
	return merkledistributor.SetAdminInstruction{
		Accounts: merkledistributor.SetAdminInstructionAccounts{
			Distributor: distributor,
			Admin:       admin,
			NewAdmin:    c.NewAdmin,
		},
	}
}

// SetClawbackReceiver points clawbacks at a token account. Use
// NewSetClawbackReceiver to target a wallet's associated account.
type SetClawbackReceiver struct {
	TokenAccount ed25519.PublicKey
}

// NewSetClawbackReceiver targets the associated token account of receiver
// for mint.
func NewSetClawbackReceiver(receiver, mint ed25519.PublicKey) (SetClawbackReceiver, error) {
	ata, err := token.GetAssociatedAccount(receiver, mint)
	if err != nil {
		return SetClawbackReceiver{}, errors.Wrap(err, "failed to derive clawback receiver")
	}
	return SetClawbackReceiver{TokenAccount: ata}, nil
}

func (SetClawbackReceiver) Name() string {
	return merkledistributor.InstructionKindSetClawbackReceiver.String()
}

func (c SetClawbackReceiver) Applied(d *Distributor) bool {
	return keysEqual(d.ClawbackReceiver, c.TokenAccount)
}

func (c SetClawbackReceiver) instruction(distributor, admin ed25519.PublicKey) merkledistributor.Instruction {
	return merkledistributor.SetClawbackReceiverInstruction{
		Accounts: merkledistributor.SetClawbackReceiverInstructionAccounts{
			Distributor:        distributor,
			NewClawbackAccount: c.TokenAccount,
			Admin:              admin,
		},
	}
}

type SetClawbackStartTs struct {
	ClawbackStartTs int64
}

func (SetClawbackStartTs) Name() string {
	return merkledistributor.InstructionKindSetClawbackStartTs.String()
}

func (c SetClawbackStartTs) Applied(d *Distributor) bool {
	return d.ClawbackStartTs == c.ClawbackStartTs
}

func (c SetClawbackStartTs) instruction(distributor, admin ed25519.PublicKey) merkledistributor.Instruction {
	return merkledistributor.SetClawbackStartTsInstruction{
		Accounts: merkledistributor.SetClawbackStartTsInstructionAccounts{
			Distributor: distributor,
			Admin:       admin,
		},
		Args: merkledistributor.SetClawbackStartTsInstructionArgs{
			ClawbackStartTs: c.ClawbackStartTs,
		},
	}
}

type SetEnableSlot struct {
	EnableSlot uint64
}

func (SetEnableSlot) Name() string {
	return merkledistributor.InstructionKindSetEnableSlot.String()
}

func (c SetEnableSlot) Applied(d *Distributor) bool {
	return d.EnableSlot == c.EnableSlot
}

func (c SetEnableSlot) instruction(distributor, admin ed25519.PublicKey) merkledistributor.Instruction {
	return merkledistributor.SetEnableSlotInstruction{
		Accounts: merkledistributor.SetEnableSlotInstructionAccounts{
			Distributor: distributor,
			Admin:       admin,
		},
		Args: merkledistributor.SetEnableSlotInstructionArgs{
			EnableSlot: c.EnableSlot,
		},
	}
}

// Target selects distributors by base, mint and version.
type Target struct {
	Base     ed25519.PublicKey
	Mint     ed25519.PublicKey
	Versions []uint64
}

// VersionRange lists every version in [from, to].
func VersionRange(from, to uint64) ([]uint64, error) {
	if from > to {
		return nil, errors.Errorf("invalid version range [%d, %d]", from, to)
	}

	versions := make([]uint64, 0, to-from+1)
	for v := from; ; v++ {
		versions = append(versions, v)
		if v == to {
			break
		}
	}
	return versions, nil
}

type UpdateOptions struct {
	// ComputeUnitPrice in micro-lamports. Zero adds no compute budget
	// instruction. Ignored when MessageOnly is set.
	ComputeUnitPrice uint64

	// MessageOnly returns the base58 message with the distributor's admin as
	// fee payer instead of sending it, for signing by a multisig.
	MessageOnly bool
}

// UpdateResult is the outcome for one distributor version.
type UpdateResult struct {
	Version     uint64
	Distributor ed25519.PublicKey
	Skipped     bool
	Message     string
	Signature   solana.Signature
}

func (r UpdateResult) String() string {
	switch {
	case r.Skipped:
		return fmt.Sprintf("already the same skip airdrop version %d", r.Version)
	case len(r.Message) > 0:
		return r.Message
	default:
		return fmt.Sprintf("airdrop version %d updated, signature: %s", r.Version, r.Signature.String())
	}
}

type AdminOption func(*Admin)

// WithAdminRetry bounds how often a failed submission is retried.
func WithAdminRetry(attempts uint, delay time.Duration) AdminOption {
	return func(a *Admin) {
		a.attempts = attempts
		a.retryDelay = delay
	}
}

func WithAdminClock(clock clockwork.Clock) AdminOption {
	return func(a *Admin) {
		a.clock = clock
	}
}

// Admin applies admin changes to distributors.
type Admin struct {
	log    *logrus.Entry
	client solana.Client
	reader *Reader
	signer ed25519.PrivateKey

	attempts   uint
	retryDelay time.Duration
	clock      clockwork.Clock
}

// NewAdmin returns an Admin. signer may be nil when only messages are
// produced.
func NewAdmin(client solana.Client, reader *Reader, signer ed25519.PrivateKey, opts ...AdminOption) *Admin {
	a := &Admin{
		log:        logrus.StandardLogger().WithField("type", "distributor/admin"),
		client:     client,
		reader:     reader,
		signer:     signer,
		attempts:   defaultAdminAttempts,
		retryDelay: defaultAdminRetryDelay,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Update applies change to every targeted distributor in version order. A
// distributor that already holds the value is skipped.
func (a *Admin) Update(ctx context.Context, target Target, change Change, opts UpdateOptions) ([]UpdateResult, error) {
	tracer := metrics.TraceMethodCall(ctx, adminMetricsStructName, "Update")
	defer tracer.End()
	tracer.AddAttribute("change", change.Name())

	if !opts.MessageOnly && len(a.signer) != ed25519.PrivateKeySize {
		err := errors.New("admin keypair required to send updates")
		tracer.OnError(err)
		return nil, err
	}

	results := make([]UpdateResult, 0, len(target.Versions))
	for _, version := range target.Versions {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := a.updateOne(ctx, target, version, change, opts)
		if err != nil {
			tracer.OnError(err)
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}

func (a *Admin) updateOne(ctx context.Context, target Target, version uint64, change Change, opts UpdateOptions) (*UpdateResult, error) {
	address, _, err := merkledistributor.GetDistributorAddress(&merkledistributor.GetDistributorAddressArgs{
		Program: a.reader.program,
		Base:    target.Base,
		Mint:    target.Mint,
		Version: version,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to derive distributor version %d", version)
	}

	log := a.log.WithFields(logrus.Fields{
		"method":      "Update",
		"change":      change.Name(),
		"version":     version,
		"distributor": base58.Encode(address),
	})

	result := &UpdateResult{
		Version:     version,
		Distributor: address,
	}

	d, err := a.reader.FetchOne(ctx, address)
	if err != nil {
		return nil, err
	}
	if change.Applied(d) {
		log.Info("already set, skipping")
		result.Skipped = true
		return result, nil
	}

	if opts.MessageOnly {
		ixn := merkledistributor.Encode(a.reader.program, change.instruction(address, d.Admin))
		txn := solana.NewTransaction(d.Admin, ixn)
		result.Message = base58.Encode(txn.Message.Marshal())
		return result, nil
	}

	admin := a.signer.Public().(ed25519.PublicKey)

	var ixns []solana.Instruction
	if opts.ComputeUnitPrice > 0 {
		ixns = append(ixns, compute_budget.SetComputeUnitPrice(opts.ComputeUnitPrice))
	}
	ixns = append(ixns, merkledistributor.Encode(a.reader.program, change.instruction(address, admin)))

	_, err = retry.Retry(
		func() error {
			blockhash, err := a.client.GetLatestBlockhash(solana.CommitmentConfirmed)
			if err != nil {
				return errors.Wrap(err, "failed to get latest blockhash")
			}

			txn := solana.NewTransaction(admin, ixns...)
			txn.SetBlockhash(blockhash)
			if err := txn.Sign(a.signer); err != nil {
				return errors.Wrap(err, "failed to sign update")
			}

			sig, err := solana.SendAndConfirm(a.client, txn, solana.CommitmentConfirmed)
			if err != nil {
				log.WithError(err).Warn("failed to submit update")
				return err
			}
			result.Signature = sig
			return nil
		},
		retry.Context(ctx),
		retry.Limit(a.attempts),
		retry.BackoffOnClock(a.clock, backoff.Constant(a.retryDelay), a.retryDelay),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update distributor version %d", version)
	}

	metrics.RecordEvent(ctx, metrics.DistributorUpdatedEventName, map[string]interface{}{
		"change":      change.Name(),
		"version":     version,
		"distributor": base58.Encode(address),
		"signature":   result.Signature.String(),
	})
	log.WithField("signature", result.Signature.String()).Info("updated")
	return result, nil
}

func keysEqual(a, b ed25519.PublicKey) bool {
	return len(a) == len(b) && a.Equal(b)
}
