// Package distributor reads merkle distributor state from the ledger and
// builds the transactions that act on it.
package distributor

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/distributor-client/pkg/metrics"
	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/merkledistributor"
)

const (
	metricsStructName = "distributor.reader"
)

var (
	ErrDistributorNotFound = errors.New("distributor not found")
	ErrClaimStatusNotFound = errors.New("claim status not found")
)

// NotFoundError is returned when no distributor account exists at Address.
type NotFoundError struct {
	Address ed25519.PublicKey
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Distributor %s not found", base58.Encode(e.Address))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrDistributorNotFound
}

// Distributor is a decoded distributor account and its address.
type Distributor struct {
	Address ed25519.PublicKey
	merkledistributor.MerkleDistributorAccount
}

// Result is the outcome of fetching one address. Distributor is nil when the
// account does not exist.
type Result struct {
	Address     ed25519.PublicKey
	Distributor *Distributor
}

// Reader reads distributor and claim status accounts. Every read goes to the
// ledger; nothing is cached.
type Reader struct {
	log        *logrus.Entry
	client     solana.Client
	program    ed25519.PublicKey
	commitment solana.Commitment
}

// NewReader returns a Reader for the given program. A nil program selects
// the deployed distributor program.
func NewReader(client solana.Client, program ed25519.PublicKey) *Reader {
	if len(program) == 0 {
		program = merkledistributor.DefaultProgramKey
	}

	return &Reader{
		log:        logrus.StandardLogger().WithField("type", "distributor/reader"),
		client:     client,
		program:    program,
		commitment: solana.CommitmentConfirmed,
	}
}

func (r *Reader) Program() ed25519.PublicKey {
	return r.program
}

// FetchOne fetches and decodes the distributor at address.
func (r *Reader) FetchOne(ctx context.Context, address ed25519.PublicKey) (*Distributor, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "FetchOne")
	defer tracer.End()

	d, err := r.fetchOne(address)
	if err != nil && !errors.Is(err, ErrDistributorNotFound) {
		tracer.OnError(err)
	}
	return d, err
}

func (r *Reader) fetchOne(address ed25519.PublicKey) (*Distributor, error) {
	info, err := r.client.GetAccountInfo(address, r.commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, &NotFoundError{Address: address}
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to get distributor %s", base58.Encode(address))
	}

	return r.decode(address, &info)
}

// FetchMany fetches every address in one batched read. The results are in
// input order; missing accounts have a nil Distributor.
func (r *Reader) FetchMany(ctx context.Context, addresses ...ed25519.PublicKey) ([]Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "FetchMany")
	defer tracer.End()
	tracer.AddAttribute("count", len(addresses))

	results, err := r.fetchMany(addresses)
	if err != nil {
		tracer.OnError(err)
	}
	return results, err
}

func (r *Reader) fetchMany(addresses []ed25519.PublicKey) ([]Result, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	infos, err := r.client.GetMultipleAccounts(r.commitment, addresses...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get distributors")
	}
	if len(infos) != len(addresses) {
		return nil, errors.Errorf("expected %d accounts, got %d", len(addresses), len(infos))
	}

	results := make([]Result, len(addresses))
	for i, address := range addresses {
		results[i].Address = address
		if infos[i] == nil || len(infos[i].Data) == 0 {
			continue
		}

		d, err := r.decode(address, infos[i])
		if err != nil {
			return nil, err
		}
		results[i].Distributor = d
	}
	return results, nil
}

func (r *Reader) decode(address ed25519.PublicKey, info *solana.AccountInfo) (*Distributor, error) {
	if len(info.Data) == 0 {
		return nil, &NotFoundError{Address: address}
	}
	if !bytes.Equal(info.Owner, r.program) {
		return nil, errors.Wrapf(merkledistributor.ErrInvalidProgram, "distributor %s owned by %s", base58.Encode(address), base58.Encode(info.Owner))
	}

	d := &Distributor{Address: address}
	if err := d.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrapf(err, "failed to decode distributor %s", base58.Encode(address))
	}
	return d, nil
}

// HasClaimed reports whether the claim status account of claimant exists for
// the distributor.
func (r *Reader) HasClaimed(ctx context.Context, claimant, distributor ed25519.PublicKey) (bool, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "HasClaimed")
	defer tracer.End()

	claimStatus, err := r.claimStatusAddress(claimant, distributor)
	if err != nil {
		tracer.OnError(err)
		return false, err
	}

	exists, err := accountExists(r.client, claimStatus, r.commitment)
	if err != nil {
		tracer.OnError(err)
		return false, errors.Wrapf(err, "failed to get claim status of %s", base58.Encode(claimant))
	}
	return exists, nil
}

// GetClaimStatus fetches and decodes the claim status of claimant.
func (r *Reader) GetClaimStatus(ctx context.Context, claimant, distributor ed25519.PublicKey) (*merkledistributor.ClaimStatusAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetClaimStatus")
	defer tracer.End()

	claimStatus, err := r.claimStatusAddress(claimant, distributor)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	info, err := r.client.GetAccountInfo(claimStatus, r.commitment)
	if err == solana.ErrNoAccountInfo || (err == nil && len(info.Data) == 0) {
		return nil, ErrClaimStatusNotFound
	} else if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrapf(err, "failed to get claim status of %s", base58.Encode(claimant))
	}
	if !bytes.Equal(info.Owner, r.program) {
		return nil, merkledistributor.ErrInvalidProgram
	}

	var status merkledistributor.ClaimStatusAccount
	if err := status.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrapf(err, "failed to decode claim status of %s", base58.Encode(claimant))
	}
	return &status, nil
}

// IsClaimable reports whether the distributor's enable slot is strictly
// before the current slot. The slot is read on every call.
func (r *Reader) IsClaimable(ctx context.Context, distributor ed25519.PublicKey) (bool, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "IsClaimable")
	defer tracer.End()

	enableSlot, err := r.getEnableSlot(distributor)
	if err != nil {
		tracer.OnError(err)
		return false, err
	}

	slot, err := r.client.GetSlot(r.commitment)
	if err != nil {
		tracer.OnError(err)
		return false, errors.Wrap(err, "failed to get slot")
	}

	r.log.WithFields(logrus.Fields{
		"method":      "IsClaimable",
		"distributor": base58.Encode(distributor),
		"enable_slot": enableSlot,
		"slot":        slot,
	}).Debug("checked enable slot")

	return enableSlot < slot, nil
}

func (r *Reader) GetEnableSlot(ctx context.Context, distributor ed25519.PublicKey) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetEnableSlot")
	defer tracer.End()

	enableSlot, err := r.getEnableSlot(distributor)
	if err != nil {
		tracer.OnError(err)
	}
	return enableSlot, err
}

func (r *Reader) getEnableSlot(distributor ed25519.PublicKey) (uint64, error) {
	d, err := r.fetchOne(distributor)
	if err != nil {
		return 0, err
	}
	return d.EnableSlot, nil
}

func (r *Reader) claimStatusAddress(claimant, distributor ed25519.PublicKey) (ed25519.PublicKey, error) {
	address, _, err := merkledistributor.GetClaimStatusAddress(&merkledistributor.GetClaimStatusAddressArgs{
		Program:     r.program,
		Claimant:    claimant,
		Distributor: distributor,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive claim status address")
	}
	return address, nil
}

// accountExists treats an account with empty data as absent.
func accountExists(client solana.Client, address ed25519.PublicKey, commitment solana.Commitment) (bool, error) {
	info, err := client.GetAccountInfo(address, commitment)
	if err == solana.ErrNoAccountInfo {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return len(info.Data) > 0, nil
}
