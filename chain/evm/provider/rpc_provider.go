package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/smartcontractkit/bloodledger/chain"
	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

var _ chain.Provider = (*RPCChainProvider)(nil)

// RPCChainProviderConfig holds the configuration to initialize the RPCChainProvider.
type RPCChainProviderConfig struct {
	// Required: A generator for the signing key. Use TransactorFromRaw to create the signer from
	// a private key.
	DeployerTransactorGen TransactorGenerator
	// Required: The RPC endpoint of the EVM node.
	RPC evm.RPC
	// Required: ConfirmFunctor is a type that generates a confirmation function for transactions.
	// Use ConfirmFuncGeth unless you have a reason not to.
	ConfirmFunctor ConfirmFunctor
	// Optional: ChainID pins the expected chain ID. When set, the RPC must report the same ID.
	// When zero, the chain ID is read from the RPC.
	ChainID uint64
	// Optional: DialOpts are additional options to configure how the RPC is dialed.
	DialOpts []func(*evm.DialConfig)
	// Optional: Logger is the logger to use for the RPCChainProvider. If not provided, a default
	// logger will be used.
	Logger logger.Logger
}

// validate checks if the RPCChainProviderConfig is valid.
func (c RPCChainProviderConfig) validate() error {
	if c.DeployerTransactorGen == nil {
		return errors.New("deployer transactor generator is required")
	}
	if c.ConfirmFunctor == nil {
		return errors.New("confirm functor is required")
	}
	if c.RPC.URL == "" {
		return errors.New("rpc url is required")
	}

	return nil
}

// RPCChainProvider is a chain provider that provides a chain that connects to an EVM node via RPC.
type RPCChainProvider struct {
	config RPCChainProviderConfig

	chain *evm.Chain
}

// NewRPCChainProvider creates a new RPCChainProvider with the given configuration.
func NewRPCChainProvider(config RPCChainProviderConfig) *RPCChainProvider {
	return &RPCChainProvider{
		config: config,
	}
}

// Initialize dials the RPC, resolves the chain identity, and binds the signing key and the
// confirmation function to it. It returns the initialized chain.
func (p *RPCChainProvider) Initialize(ctx context.Context) (evm.Chain, error) {
	if p.chain != nil {
		return *p.chain, nil // Already initialized
	}

	// Set up the logger if not provided
	if p.config.Logger == nil {
		lggr, err := logger.New()
		if err != nil {
			return evm.Chain{}, fmt.Errorf("failed to create default logger: %w", err)
		}
		p.config.Logger = lggr
	}

	// Validate the provider configuration
	if err := p.config.validate(); err != nil {
		return evm.Chain{}, fmt.Errorf("failed to validate provider config: %w", err)
	}

	client, err := evm.NewRPCClient(ctx, p.config.Logger, p.config.RPC, p.config.DialOpts...)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to create rpc client: %w", err)
	}

	rpcChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return evm.Chain{}, fmt.Errorf("failed to get chain ID from rpc: %w", err)
	}

	if p.config.ChainID != 0 && rpcChainID.Uint64() != p.config.ChainID {
		client.Close()
		return evm.Chain{}, fmt.Errorf("rpc reports chain ID %d, expected %d", rpcChainID.Uint64(), p.config.ChainID)
	}

	selector, name := chainIdentity(rpcChainID.Uint64())

	deployerKey, err := p.config.DeployerTransactorGen.Generate(new(big.Int).Set(rpcChainID))
	if err != nil {
		client.Close()
		return evm.Chain{}, fmt.Errorf("failed to generate deployer key: %w", err)
	}

	confirmFunc, err := p.config.ConfirmFunctor.Generate(name, client, deployerKey.From)
	if err != nil {
		client.Close()
		return evm.Chain{}, fmt.Errorf("failed to generate confirm function: %w", err)
	}

	p.chain = &evm.Chain{
		Selector:    selector,
		ChainID:     rpcChainID.Uint64(),
		ChainName:   name,
		Client:      client,
		DeployerKey: deployerKey,
		Confirm:     confirmFunc,
	}

	p.config.Logger.Infow("Connected to chain",
		"chain", name, "chainID", p.chain.ChainID, "rpc", p.config.RPC.Name, "signer", deployerKey.From.Hex(),
	)

	return *p.chain, nil
}

// Name returns the name of the RPCChainProvider.
func (*RPCChainProvider) Name() string {
	return "EVM RPC Chain Provider"
}

// chainIdentity looks up the chain-selectors selector and name for an EVM chain ID. Chains
// unknown to chain-selectors get selector 0 and a synthetic name, a private testnet is still a
// valid ledger.
func chainIdentity(chainID uint64) (uint64, string) {
	details, err := chainsel.GetChainDetailsByChainIDAndFamily(strconv.FormatUint(chainID, 10), chainsel.FamilyEVM)
	if err != nil {
		return 0, "evm-" + strconv.FormatUint(chainID, 10)
	}

	return details.ChainSelector, details.ChainName
}
