package distributor

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"net/url"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/distributor-client/pkg/metrics"
	"github.com/code-payments/distributor-client/pkg/solana"
	compute_budget "github.com/code-payments/distributor-client/pkg/solana/computebudget"
	"github.com/code-payments/distributor-client/pkg/solana/merkledistributor"
	"github.com/code-payments/distributor-client/pkg/solana/token"
)

const (
	claimMetricsStructName = "distributor.claim_builder"

	ClaimComputeUnitLimit = 1_000_000

	// baseComputeUnitPrice is the compute unit price in micro-lamports for a
	// multiplier of one.
	baseComputeUnitPrice = 5

	inspectorURLPrefix = "https://explorer.solana.com/tx/inspector?message="
)

var (
	ErrInvalidClaimant   = errors.New("invalid claimant keypair")
	ErrInvalidMultiplier = errors.New("priority fee multiplier must not be negative")
)

type ClaimRequest struct {
	Distributor ed25519.PublicKey
	Claimant    ed25519.PrivateKey
	Amount      uint64
	Proof       [][32]byte

	// PriorityFeeMultiplier scales the compute unit price. Zero adds no
	// compute budget instructions.
	PriorityFeeMultiplier decimal.Decimal
}

// ClaimPlan is an assembled, unsigned claim.
type ClaimPlan struct {
	Distributor          *Distributor
	Claimant             ed25519.PrivateKey
	ClaimStatus          ed25519.PublicKey
	ClaimantTokenAccount ed25519.PublicKey
	CreatesTokenAccount  bool
	Instructions         []solana.Instruction
}

func (p *ClaimPlan) Payer() ed25519.PublicKey {
	return p.Claimant.Public().(ed25519.PublicKey)
}

// Simulation is a signed claim and the ledger's simulation of it.
type Simulation struct {
	Transaction solana.Transaction
	Result      *solana.SimulationResult
}

// ClaimBuilder assembles and submits claim transactions.
type ClaimBuilder struct {
	log    *logrus.Entry
	client solana.Client
	reader *Reader
}

func NewClaimBuilder(client solana.Client, reader *Reader) *ClaimBuilder {
	return &ClaimBuilder{
		log:    logrus.StandardLogger().WithField("type", "distributor/claim_builder"),
		client: client,
		reader: reader,
	}
}

// Build derives the claim status account, reads the distributor, and
// assembles the instructions of a claim of the full amount as unlocked.
func (b *ClaimBuilder) Build(ctx context.Context, req ClaimRequest) (*ClaimPlan, error) {
	tracer := metrics.TraceMethodCall(ctx, claimMetricsStructName, "Build")
	defer tracer.End()

	plan, err := b.build(ctx, req)
	if err != nil {
		tracer.OnError(err)
	}
	return plan, err
}

func (b *ClaimBuilder) build(ctx context.Context, req ClaimRequest) (*ClaimPlan, error) {
	if len(req.Claimant) != ed25519.PrivateKeySize {
		return nil, ErrInvalidClaimant
	}
	if req.PriorityFeeMultiplier.IsNegative() {
		return nil, ErrInvalidMultiplier
	}

	claimant := req.Claimant.Public().(ed25519.PublicKey)

	log := b.log.WithFields(logrus.Fields{
		"method":      "Build",
		"distributor": base58.Encode(req.Distributor),
		"claimant":    base58.Encode(claimant),
	})

	claimStatus, err := b.reader.claimStatusAddress(claimant, req.Distributor)
	if err != nil {
		return nil, err
	}

	distributor, err := b.reader.FetchOne(ctx, req.Distributor)
	if err != nil {
		return nil, err
	}

	ata, err := token.GetAssociatedAccount(claimant, distributor.Mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive claimant token account")
	}

	exists, err := accountExists(b.client, ata, b.reader.commitment)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get token account %s", base58.Encode(ata))
	}

	plan := &ClaimPlan{
		Distributor:          distributor,
		Claimant:             req.Claimant,
		ClaimStatus:          claimStatus,
		ClaimantTokenAccount: ata,
		CreatesTokenAccount:  !exists,
	}

	if !req.PriorityFeeMultiplier.IsZero() {
		price := decimal.NewFromInt(baseComputeUnitPrice).Mul(req.PriorityFeeMultiplier).Floor()
		plan.Instructions = append(
			plan.Instructions,
			compute_budget.SetComputeUnitLimit(ClaimComputeUnitLimit),
			compute_budget.SetComputeUnitPrice(uint64(price.IntPart())),
		)
	}

	if !exists {
		create, _, err := token.CreateAssociatedTokenAccount(claimant, claimant, distributor.Mint)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build create token account instruction")
		}
		plan.Instructions = append(plan.Instructions, create)
	}

	plan.Instructions = append(plan.Instructions, merkledistributor.Encode(
		b.reader.program,
		merkledistributor.NewClaimInstruction{
			Accounts: merkledistributor.NewClaimInstructionAccounts{
				Distributor: req.Distributor,
				ClaimStatus: claimStatus,
				From:        distributor.TokenVault,
				To:          ata,
				Claimant:    claimant,
			},
			Args: merkledistributor.NewClaimInstructionArgs{
				AmountUnlocked: req.Amount,
				AmountLocked:   0,
				Proof:          req.Proof,
			},
		},
	))

	log.WithFields(logrus.Fields{
		"amount":                req.Amount,
		"creates_token_account": !exists,
		"instructions":          len(plan.Instructions),
	}).Debug("built claim")

	return plan, nil
}

// Transaction signs the plan with the claimant as fee payer against a fresh
// blockhash.
func (b *ClaimBuilder) Transaction(ctx context.Context, plan *ClaimPlan) (solana.Transaction, error) {
	blockhash, err := b.client.GetLatestBlockhash(b.reader.commitment)
	if err != nil {
		return solana.Transaction{}, errors.Wrap(err, "failed to get latest blockhash")
	}

	txn := solana.NewTransaction(plan.Payer(), plan.Instructions...)
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(plan.Claimant); err != nil {
		return solana.Transaction{}, errors.Wrap(err, "failed to sign claim")
	}
	return txn, nil
}

// Simulate signs and simulates the claim. A failed simulation is reported in
// the result, not as an error.
func (b *ClaimBuilder) Simulate(ctx context.Context, plan *ClaimPlan) (*Simulation, error) {
	tracer := metrics.TraceMethodCall(ctx, claimMetricsStructName, "Simulate")
	defer tracer.End()

	txn, err := b.Transaction(ctx, plan)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	result, err := b.client.SimulateTransaction(txn, b.reader.commitment)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "failed to simulate claim")
	}

	return &Simulation{
		Transaction: txn,
		Result:      result,
	}, nil
}

// Execute signs, submits and confirms the claim. Submission is not retried.
func (b *ClaimBuilder) Execute(ctx context.Context, plan *ClaimPlan) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, claimMetricsStructName, "Execute")
	defer tracer.End()

	txn, err := b.Transaction(ctx, plan)
	if err != nil {
		tracer.OnError(err)
		return solana.Signature{}, err
	}

	sig, err := solana.SendAndConfirm(b.client, txn, solana.CommitmentConfirmed)
	if err != nil {
		tracer.OnError(err)
		return sig, errors.Wrapf(err, "claim %s failed", sig.String())
	}

	b.log.WithFields(logrus.Fields{
		"method":    "Execute",
		"claimant":  base58.Encode(plan.Payer()),
		"signature": sig.String(),
	}).Info("claim confirmed")

	return sig, nil
}

// Message returns the base64 wire message of a signed claim.
func Message(txn solana.Transaction) string {
	return base64.StdEncoding.EncodeToString(txn.Message.Marshal())
}

// InspectorURL links the transaction's message in the explorer inspector.
func InspectorURL(txn solana.Transaction) string {
	return inspectorURLPrefix + url.QueryEscape(Message(txn))
}
