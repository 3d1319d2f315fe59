// Package reconcile cross-checks the CSV export, the allocation API and the
// merkle tree files before allocations are trusted.
package reconcile

import (
	"context"
	"crypto/ed25519"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/code-payments/distributor-client/pkg/allocation"
	"github.com/code-payments/distributor-client/pkg/allocation/api"
	"github.com/code-payments/distributor-client/pkg/metrics"
	"github.com/code-payments/distributor-client/pkg/retry"
	"github.com/code-payments/distributor-client/pkg/retry/backoff"
)

const (
	metricsStructName = "reconcile.engine"

	checkedCountMetricName = "Reconcile/claimants_checked"
	skippedCountMetricName = "Reconcile/claimants_skipped"

	DefaultBatchSize  = 1000
	DefaultPause      = 10500 * time.Millisecond
	DefaultAttempts   = 5
	DefaultRetryDelay = 2 * time.Second
)

// AllocationSource serves allocation records, typically *api.Client.
type AllocationSource interface {
	GetAllocation(ctx context.Context, claimant ed25519.PublicKey) (*allocation.Record, error)
}

// TreeLookup finds a claimant's leaf in the merkle tree files. It must be
// safe for concurrent reads.
type TreeLookup interface {
	Lookup(claimant ed25519.PublicKey) (*allocation.TreeNode, bool)
}

// Report summarises a successful run.
type Report struct {
	Batches int
	Checked int
	// Skipped counts claimants the API has no allocation for.
	Skipped int
}

type Option func(*Engine)

func WithBatchSize(size int) Option {
	return func(e *Engine) {
		e.batchSize = size
	}
}

// WithPause sets the wait between batches.
func WithPause(pause time.Duration) Option {
	return func(e *Engine) {
		e.pause = pause
	}
}

// WithRetry sets the total attempts per fetch and the fixed delay between
// them.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(e *Engine) {
		e.attempts = attempts
		e.retryDelay = delay
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithProgress is called before each batch with the first and last entry
// index it covers, both inclusive.
func WithProgress(fn func(first, last int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// Engine runs the reconciliation. Batches run in input order; the fetches of
// one batch run concurrently.
type Engine struct {
	log    *logrus.Entry
	source AllocationSource

	batchSize  int
	pause      time.Duration
	attempts   uint
	retryDelay time.Duration
	clock      clockwork.Clock
	progress   func(first, last int)
}

func NewEngine(source AllocationSource, opts ...Option) *Engine {
	e := &Engine{
		log:        logrus.StandardLogger().WithField("type", "reconcile/engine"),
		source:     source,
		batchSize:  DefaultBatchSize,
		pause:      DefaultPause,
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.batchSize <= 0 {
		e.batchSize = DefaultBatchSize
	}
	if e.attempts == 0 {
		e.attempts = 1
	}
	return e
}

type outcome int

const (
	outcomeChecked outcome = iota
	outcomeSkipped
)

// Run checks every entry against the API and, when tree is non-nil, against
// the tree files. It returns the first *MismatchError found. A batch is
// always awaited in full before its result is reported.
func (e *Engine) Run(ctx context.Context, entries []allocation.Entry, tree TreeLookup) (*Report, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Run")
	defer tracer.End()
	tracer.AddAttribute("entries", len(entries))

	report, err := e.run(ctx, entries, tree)
	if err != nil {
		tracer.OnError(err)
	}
	return report, err
}

func (e *Engine) run(ctx context.Context, entries []allocation.Entry, tree TreeLookup) (*Report, error) {
	report := &Report{}

	for start := 0; start < len(entries); start += e.batchSize {
		if start > 0 {
			if err := e.sleep(ctx); err != nil {
				return nil, err
			}
		}

		end := start + e.batchSize
		if end > len(entries) {
			end = len(entries)
		}

		log := e.log.WithFields(logrus.Fields{
			"method": "Run",
			"batch":  report.Batches,
			"first":  start,
			"last":   end - 1,
		})
		if e.progress != nil {
			e.progress(start, end-1)
		}
		log.Debug("checking batch")

		outcomes, err := e.runBatch(ctx, entries[start:end], tree)
		if err != nil {
			var mismatch *MismatchError
			if errors.As(err, &mismatch) {
				metrics.RecordEvent(ctx, metrics.ReconcileMismatchEventName, map[string]interface{}{
					"claimant": base58.Encode(mismatch.Claimant),
					"field":    mismatch.Field,
					"batch":    report.Batches,
				})
			}
			log.WithError(err).Warn("batch failed")
			return nil, err
		}

		var checked, skipped int
		for _, o := range outcomes {
			if o == outcomeSkipped {
				skipped++
			} else {
				checked++
			}
		}

		report.Batches++
		report.Checked += checked
		report.Skipped += skipped

		metrics.RecordCount(ctx, checkedCountMetricName, uint64(checked))
		metrics.RecordCount(ctx, skippedCountMetricName, uint64(skipped))
	}

	e.log.WithFields(logrus.Fields{
		"method":  "Run",
		"batches": report.Batches,
		"checked": report.Checked,
		"skipped": report.Skipped,
	}).Info("reconciliation passed")

	return report, nil
}

// runBatch fetches every entry of the batch concurrently. In-flight siblings
// are not cancelled when one fails; the first error is returned once all
// have finished.
func (e *Engine) runBatch(ctx context.Context, batch []allocation.Entry, tree TreeLookup) ([]outcome, error) {
	outcomes := make([]outcome, len(batch))

	var g errgroup.Group
	for i := range batch {
		i := i
		gctx := metrics.NewGoroutineContext(ctx)
		g.Go(func() error {
			o, err := e.check(gctx, batch[i], tree)
			outcomes[i] = o
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (e *Engine) check(ctx context.Context, entry allocation.Entry, tree TreeLookup) (outcome, error) {
	record, err := e.fetch(ctx, entry.Claimant)

	var node *allocation.TreeNode
	var inTree bool
	if tree != nil {
		node, inTree = tree.Lookup(entry.Claimant)
	}

	if errors.Is(err, api.ErrNoAllocation) {
		if inTree {
			return outcomeSkipped, &MismatchError{
				Claimant: entry.Claimant,
				Field:    FieldPresence,
				Index:    -1,
				Values: map[Source]string{
					SourceAPI:  "absent",
					SourceTree: "present",
				},
			}
		}

		e.log.WithFields(logrus.Fields{
			"method":   "check",
			"claimant": base58.Encode(entry.Claimant),
		}).Debug("no allocation, skipping")
		return outcomeSkipped, nil
	} else if err != nil {
		return outcomeChecked, errors.Wrapf(err, "failed to fetch allocation of %s", base58.Encode(entry.Claimant))
	}

	if record.Amount != entry.Amount {
		return outcomeChecked, &MismatchError{
			Claimant: entry.Claimant,
			Field:    FieldAmount,
			Index:    -1,
			Values: map[Source]string{
				SourceCSV: strconv.FormatUint(entry.Amount, 10),
				SourceAPI: strconv.FormatUint(record.Amount, 10),
			},
		}
	}

	if tree == nil {
		return outcomeChecked, nil
	}

	if !inTree {
		return outcomeChecked, &MismatchError{
			Claimant: entry.Claimant,
			Field:    FieldPresence,
			Index:    -1,
			Values: map[Source]string{
				SourceAPI:  "present",
				SourceTree: "absent",
			},
		}
	}

	return outcomeChecked, compareTree(entry.Claimant, record, node)
}

func compareTree(claimant ed25519.PublicKey, record *allocation.Record, node *allocation.TreeNode) error {
	if node.Amount != record.Amount {
		return &MismatchError{
			Claimant: claimant,
			Field:    FieldAmount,
			Index:    -1,
			Values: map[Source]string{
				SourceTree: strconv.FormatUint(node.Amount, 10),
				SourceAPI:  strconv.FormatUint(record.Amount, 10),
			},
		}
	}

	if len(node.Proof) != len(record.Proof) {
		return &MismatchError{
			Claimant: claimant,
			Field:    FieldProofLength,
			Index:    -1,
			Values: map[Source]string{
				SourceTree: strconv.Itoa(len(node.Proof)),
				SourceAPI:  strconv.Itoa(len(record.Proof)),
			},
		}
	}

	for i := range node.Proof {
		if node.Proof[i] != record.Proof[i] {
			return &MismatchError{
				Claimant: claimant,
				Field:    ProofField(i),
				Index:    i,
				Values: map[Source]string{
					SourceTree: allocation.FormatProofNode(node.Proof[i]),
					SourceAPI:  allocation.FormatProofNode(record.Proof[i]),
				},
			}
		}
	}

	return nil
}

// fetch retries transient failures with a fixed delay. A missing allocation
// is final.
func (e *Engine) fetch(ctx context.Context, claimant ed25519.PublicKey) (*allocation.Record, error) {
	var record *allocation.Record

	_, err := retry.Retry(
		func() error {
			var err error
			record, err = e.source.GetAllocation(ctx, claimant)
			return err
		},
		retry.NonRetriableErrors(api.ErrNoAllocation, context.Canceled, context.DeadlineExceeded),
		retry.Context(ctx),
		retry.Limit(e.attempts),
		retry.BackoffOnClock(e.clock, backoff.Constant(e.retryDelay), e.retryDelay),
	)
	return record, err
}

func (e *Engine) sleep(ctx context.Context) error {
	if e.pause <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.clock.After(e.pause):
		return nil
	}
}
