package provider

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/chain"
	"github.com/smartcontractkit/bloodledger/chain/evm"
)

var _ chain.Provider = (*SimChainProvider)(nil)

var (
	// simChainID is the chain ID go-ethereum assigns to dev chains, 1337.
	simChainID = params.AllDevChainProtocolChanges.ChainID
	// prefundAmountWei is the default deployer balance, 1,000,000 Ether.
	prefundAmountWei = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.Ether))
)

const (
	simBlockGasLimit = 50_000_000
	simConfirmWait   = time.Minute
	simPollInterval  = 10 * time.Millisecond
)

// SimChainProviderConfig holds the configuration to initialize the SimChainProvider.
type SimChainProviderConfig struct {
	// Optional: DeployerBalance overrides the genesis balance of the deployer account. Defaults to
	// 1,000,000 Ether. Use a small value to exercise the relay balance precondition.
	DeployerBalance *big.Int
	// Optional: BlockTime mines a block at this interval in the background. By default blocks are
	// only mined when a transaction is confirmed.
	BlockTime time.Duration
}

// SimChainProvider runs an in-memory chain on go-ethereum's simulated backend. The backend is
// closed when the test ends.
type SimChainProvider struct {
	t      testing.TB
	config SimChainProviderConfig

	chain *evm.Chain
}

// NewSimChainProvider creates a new SimChainProvider with the given configuration.
func NewSimChainProvider(t testing.TB, config SimChainProviderConfig) *SimChainProvider {
	t.Helper()

	return &SimChainProvider{
		t:      t,
		config: config,
	}
}

// Initialize starts the backend with a funded deployer account. Confirm mines the pending block
// before polling for the receipt, so every relayed transaction lands immediately.
func (p *SimChainProvider) Initialize(_ context.Context) (evm.Chain, error) {
	if p.chain != nil {
		return *p.chain, nil
	}

	key, err := crypto.GenerateKey()
	require.NoError(p.t, err, "failed to generate deployer key")

	deployer, err := bind.NewKeyedTransactorWithChainID(key, simChainID)
	require.NoError(p.t, err)

	balance := prefundAmountWei
	if p.config.DeployerBalance != nil {
		balance = p.config.DeployerBalance
	}

	backend := simulated.NewBackend(
		types.GenesisAlloc{deployer.From: {Balance: balance}},
		simulated.WithBlockGasLimit(simBlockGasLimit),
	)
	p.t.Cleanup(func() { _ = backend.Close() })

	client := newSimClient(backend)
	client.Commit()

	if p.config.BlockTime > 0 {
		autoMine(p.t, client, p.config.BlockTime)
	}

	selector, name := chainIdentity(simChainID.Uint64())

	confirm, err := ConfirmFuncGeth(simConfirmWait,
		WithTickInterval(simPollInterval),
		WithBeforeWait(func() { client.Commit() }),
	).Generate(name, client, deployer.From)
	require.NoError(p.t, err)

	p.chain = &evm.Chain{
		Selector:    selector,
		ChainID:     simChainID.Uint64(),
		ChainName:   name,
		Client:      client,
		DeployerKey: deployer,
		Confirm:     confirm,
	}

	return *p.chain, nil
}

// Name returns the name of the SimChainProvider.
func (*SimChainProvider) Name() string {
	return "Simulated EVM Chain Provider"
}

// simClient exposes block production next to the simulated client. Commits are serialised so
// background mining and confirmations do not race.
type simClient struct {
	simulated.Client

	mu      sync.Mutex
	backend *simulated.Backend
}

func newSimClient(backend *simulated.Backend) *simClient {
	return &simClient{Client: backend.Client(), backend: backend}
}

// Commit mines the pending transactions into a new block.
func (c *simClient) Commit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.backend.Commit()
}

// autoMine commits a block every interval until the test ends.
func autoMine(t testing.TB, client *simClient, interval time.Duration) {
	t.Helper()

	ctx := t.Context()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				client.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()
}
