package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ConfirmFunc is a function that takes a transaction, waits for the transaction to be confirmed,
// and returns the block number and an error. Cancelling ctx aborts the wait.
type ConfirmFunc func(ctx context.Context, tx *types.Transaction) (uint64, error)

// OnchainClient is an EVM chain client.
// For EVM specifically we can use existing geth interface to abstract chain clients.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Chain represents the EVM chain the relay writes to.
type Chain struct {
	Selector uint64
	ChainID  uint64
	// ChainName is the chain-selectors name of the chain, or "evm-<id>" for chains unknown to
	// chain-selectors.
	ChainName string

	Client OnchainClient
	// DeployerKey signs every relayed transaction. It is shared across requests, so callers must
	// copy it before setting per-call fields such as Context.
	DeployerKey *bind.TransactOpts
	Confirm     ConfirmFunc
}

// String returns chain name and chain id "<name> (<id>)"
func (c Chain) String() string {
	return fmt.Sprintf("%s (%d)", c.ChainName, c.ChainID)
}
