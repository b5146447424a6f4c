package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/bloodledger/chain/evm"
)

// defaultTickInterval matches the receipt polling interval of bind.WaitMined.
const defaultTickInterval = time.Second

// ConfirmFunctor builds the function that waits for a relayed transaction to be mined.
type ConfirmFunctor interface {
	Generate(chainName string, client evm.OnchainClient, from common.Address) (evm.ConfirmFunc, error)
}

// ConfirmOption configures the functor returned by ConfirmFuncGeth.
type ConfirmOption func(*receiptPoller)

// WithTickInterval sets how often the receipt is polled. Non-positive values are ignored.
func WithTickInterval(interval time.Duration) ConfirmOption {
	return func(p *receiptPoller) {
		if interval > 0 {
			p.tick = interval
		}
	}
}

// WithBeforeWait runs fn once per confirmation before the first receipt poll. The simulated
// chain uses it to mine the pending block.
func WithBeforeWait(fn func()) ConfirmOption {
	return func(p *receiptPoller) {
		p.beforeWait = fn
	}
}

// ConfirmFuncGeth polls the node for the transaction receipt. A zero timeout leaves the wait
// bounded by the caller's context only.
func ConfirmFuncGeth(timeout time.Duration, opts ...ConfirmOption) ConfirmFunctor {
	p := &receiptPoller{tick: defaultTickInterval, timeout: timeout}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

type receiptPoller struct {
	tick       time.Duration
	timeout    time.Duration
	beforeWait func()
}

// Generate implements ConfirmFunctor. The returned function reports the block the transaction
// was mined in. A reverted transaction yields that block together with an error carrying the
// decoded revert reason when the node returns one.
func (p *receiptPoller) Generate(
	chainName string, client evm.OnchainClient, from common.Address,
) (evm.ConfirmFunc, error) {
	return func(ctx context.Context, tx *types.Transaction) (uint64, error) {
		if tx == nil {
			return 0, fmt.Errorf("tx was nil, nothing to confirm on %s", chainName)
		}
		if p.beforeWait != nil {
			p.beforeWait()
		}

		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}

		receipt, err := WaitMinedWithInterval(ctx, p.tick, client, tx.Hash())
		if err != nil {
			return 0, fmt.Errorf("tx %s failed to confirm on %s: %w", tx.Hash().Hex(), chainName, err)
		}
		if receipt == nil || receipt.BlockNumber == nil {
			return 0, fmt.Errorf("receipt was nil for tx %s on %s", tx.Hash().Hex(), chainName)
		}

		block := receipt.BlockNumber.Uint64()
		if receipt.Status == types.ReceiptStatusSuccessful {
			return block, nil
		}

		reason, err := revertReason(ctx, client, from, tx, receipt)
		if err != nil || reason == "" {
			return block, fmt.Errorf("tx %s reverted, could not decode error reason on %s", tx.Hash().Hex(), chainName)
		}

		return block, fmt.Errorf("tx %s reverted on %s: %s", tx.Hash().Hex(), chainName, reason)
	}, nil
}

// WaitMinedWithInterval polls for the receipt of txHash every tick until it is found or ctx is
// done. Lookup errors, including not found, are retried.
func WaitMinedWithInterval(ctx context.Context, tick time.Duration, b bind.DeployBackend, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		if receipt, err := b.TransactionReceipt(ctx, txHash); err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
