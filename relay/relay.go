// Package relay turns validated payloads into confirmed ledger transactions and reads the
// ledger's read-all methods back.
package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// Transaction outcomes reported to Metrics.
const (
	OutcomeConfirmed     = "confirmed"
	OutcomeRejected      = "rejected"
	OutcomeSendFailed    = "send_failed"
	OutcomeConfirmFailed = "confirm_failed"
)

// Contract is the subset of *bind.BoundContract the relay needs.
type Contract interface {
	Call(opts *bind.CallOpts, results *[]any, method string, params ...any) error
	Transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error)
}

// BalanceReader reads account balances. evm.OnchainClient satisfies it.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Metrics receives one observation per submitted write.
type Metrics interface {
	ObserveTransaction(relay, method, outcome string)
	ObserveConfirm(relay, method string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveTransaction(string, string, string)    {}
func (nopMetrics) ObserveConfirm(string, string, time.Duration) {}

// Precondition is checked before every write, after payload validation.
type Precondition func(ctx context.Context, r *Relay) error

// Config holds the collaborators of a Relay.
type Config struct {
	// Required: Name identifies the relay in logs and metrics, e.g. "donor-registry".
	Name string
	// Required: Contract is the bound ledger contract.
	Contract Contract
	// Required: Client reads the signer balance for MinBalance.
	Client BalanceReader
	// Required: Signer signs every transaction. It is copied per call and never mutated.
	Signer *bind.TransactOpts
	// Required: Confirm blocks until a transaction is mined.
	Confirm evm.ConfirmFunc
	// Optional: Preconditions run in order before every write.
	Preconditions []Precondition
	// Optional: Logger defaults to a no-op logger.
	Logger logger.Logger
	// Optional: Metrics defaults to discarding observations.
	Metrics Metrics
}

func (c Config) validate() error {
	if c.Name == "" {
		return errors.New("relay name is required")
	}
	if c.Contract == nil {
		return errors.New("contract is required")
	}
	if c.Client == nil {
		return errors.New("client is required")
	}
	if c.Signer == nil {
		return errors.New("signer is required")
	}
	if c.Confirm == nil {
		return errors.New("confirm function is required")
	}

	return nil
}

// Relay submits writes to one contract and waits for them to be mined. It is safe for
// concurrent use and imposes no ordering between concurrent writes.
type Relay struct {
	name          string
	contract      Contract
	client        BalanceReader
	signer        *bind.TransactOpts
	confirm       evm.ConfirmFunc
	preconditions []Precondition
	lggr          logger.Logger
	metrics       Metrics
}

// New validates the config and returns a Relay.
func New(cfg Config) (*Relay, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid relay config: %w", err)
	}

	lggr := cfg.Logger
	if lggr == nil {
		lggr = logger.Nop()
	}

	var metrics Metrics = nopMetrics{}
	if cfg.Metrics != nil {
		metrics = cfg.Metrics
	}

	return &Relay{
		name:          cfg.Name,
		contract:      cfg.Contract,
		client:        cfg.Client,
		signer:        cfg.Signer,
		confirm:       cfg.Confirm,
		preconditions: cfg.Preconditions,
		lggr:          lggr.Named("relay." + cfg.Name),
		metrics:       metrics,
	}, nil
}

// Name returns the relay name.
func (r *Relay) Name() string {
	return r.name
}

// Signer returns the address that signs the relayed transactions.
func (r *Relay) Signer() common.Address {
	return r.signer.From
}

// Receipt identifies a confirmed transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
}

// Write describes one contract write method.
type Write[P any] struct {
	// Method is the contract method name.
	Method string
	// Validate rejects malformed payloads. Errors should match ErrValidation.
	Validate func(P) error
	// Check runs after Validate and before the relay preconditions. It may read the ledger.
	Check func(ctx context.Context, payload P) error
	// Args maps the payload to the method arguments.
	Args func(P) []any
}

// Submit validates payload, checks the preconditions, sends the transaction and blocks until it
// is confirmed or ctx is done. Nothing is sent when validation or a precondition fails.
// Nothing is retried.
func Submit[P any](ctx context.Context, r *Relay, w Write[P], payload P) (Receipt, error) {
	if w.Validate != nil {
		if err := w.Validate(payload); err != nil {
			r.metrics.ObserveTransaction(r.name, w.Method, OutcomeRejected)
			return Receipt{}, err
		}
	}

	if w.Check != nil {
		if err := w.Check(ctx, payload); err != nil {
			r.metrics.ObserveTransaction(r.name, w.Method, OutcomeRejected)
			return Receipt{}, err
		}
	}

	for _, pre := range r.preconditions {
		if err := pre(ctx, r); err != nil {
			r.metrics.ObserveTransaction(r.name, w.Method, OutcomeRejected)
			return Receipt{}, err
		}
	}

	var args []any
	if w.Args != nil {
		args = w.Args(payload)
	}

	opts := *r.signer
	opts.Context = ctx

	tx, err := r.contract.Transact(&opts, w.Method, args...)
	if err != nil {
		r.metrics.ObserveTransaction(r.name, w.Method, OutcomeSendFailed)
		return Receipt{}, transportError(w.Method, err)
	}

	lggr := r.lggr.With("method", w.Method, "txHash", tx.Hash().Hex())
	lggr.Infow("Transaction sent")

	start := time.Now()
	block, err := r.confirm(ctx, tx)
	r.metrics.ObserveConfirm(r.name, w.Method, time.Since(start))
	if err != nil {
		r.metrics.ObserveTransaction(r.name, w.Method, OutcomeConfirmFailed)
		return Receipt{}, transportError(w.Method, err)
	}

	r.metrics.ObserveTransaction(r.name, w.Method, OutcomeConfirmed)
	lggr.Infow("Transaction confirmed", "block", block)

	return Receipt{TxHash: tx.Hash(), BlockNumber: block}, nil
}

// List calls a read-all method whose single output decodes into []R. R must list its fields in
// the order of the on-chain struct.
func List[R any](ctx context.Context, r *Relay, method string) ([]R, error) {
	var out []R
	results := []any{&out}

	opts := &bind.CallOpts{Context: ctx, From: r.signer.From}
	if err := r.contract.Call(opts, &results, method); err != nil {
		return nil, transportError(method, err)
	}

	r.lggr.Debugw("Read ledger", "method", method, "count", len(out))

	return out, nil
}

// MinBalance returns a Precondition requiring the signer balance to be at least required wei.
func MinBalance(required *big.Int) Precondition {
	return func(ctx context.Context, r *Relay) error {
		balance, err := r.client.BalanceAt(ctx, r.signer.From, nil)
		if err != nil {
			return transportError("eth_getBalance", err)
		}

		if balance.Cmp(required) < 0 {
			r.lggr.Warnw("Signer balance below minimum",
				"signer", r.signer.From.Hex(), "balance", evm.FormatEther(balance),
			)

			return &InsufficientFundsError{
				Balance:  new(big.Int).Set(balance),
				Required: new(big.Int).Set(required),
			}
		}

		return nil
	}
}
