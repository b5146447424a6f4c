// Package chain defines how the relay obtains the EVM chain it writes to.
package chain

import (
	"context"

	"github.com/smartcontractkit/bloodledger/chain/evm"
)

// Provider initializes a chain. RPCChainProvider connects to a node. SimChainProvider runs an
// in-memory chain for tests.
type Provider interface {
	Initialize(ctx context.Context) (evm.Chain, error)
	Name() string
}
