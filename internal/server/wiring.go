package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/smartcontractkit/bloodledger/chain"
	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/chain/evm/provider"
	"github.com/smartcontractkit/bloodledger/contracts"
	"github.com/smartcontractkit/bloodledger/deployment"
	"github.com/smartcontractkit/bloodledger/donation"
	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/internal/config"
	"github.com/smartcontractkit/bloodledger/internal/httpapi"
	"github.com/smartcontractkit/bloodledger/internal/metrics"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/relay"
)

// Relay names used in logs and metrics.
const (
	DonorRelayName    = "donor-registry"
	DonationRelayName = "donation-records"
)

// Connect dials the configured RPC endpoint and returns a chain signing with the deployer key.
func Connect(ctx context.Context, cfg config.ChainConfig, lggr logger.Logger) (evm.Chain, error) {
	var p chain.Provider = provider.NewRPCChainProvider(provider.RPCChainProviderConfig{
		DeployerTransactorGen: provider.TransactorFromRaw(cfg.DeployerKey),
		RPC:                   evm.RPC{Name: "primary", URL: cfg.RPCURL},
		ConfirmFunctor: provider.ConfirmFuncGeth(cfg.ConfirmTimeout,
			provider.WithTickInterval(cfg.ConfirmInterval),
		),
		ChainID:  cfg.ChainID,
		DialOpts: []func(*evm.DialConfig){evm.WithDialAttempts(cfg.DialAttempts)},
		Logger:   lggr,
	})

	c, err := p.Initialize(ctx)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to connect to chain through %s: %w", p.Name(), err)
	}

	return c, nil
}

// ResolveContracts fills the contract addresses left unset in cfg with the ones the address
// book records for chainID. Addresses that are set are kept as they are.
func ResolveContracts(cfg *config.ContractsConfig, chainID uint64) error {
	if strings.TrimSpace(cfg.AddressBook) == "" {
		return nil
	}

	targets := []struct {
		typ  deployment.ContractType
		addr *string
	}{
		{typ: contracts.DonorRegistryType, addr: &cfg.DonorRegistry},
		{typ: contracts.DonationRecordsType, addr: &cfg.DonationRecords},
	}

	var book *deployment.AddressBookMap
	for _, target := range targets {
		if strings.TrimSpace(*target.addr) != "" {
			continue
		}
		if book == nil {
			var err error
			if book, err = deployment.ReadAddressBook(cfg.AddressBook); err != nil {
				return err
			}
		}

		found, err := book.Search(chainID, target.typ)
		if err != nil {
			return fmt.Errorf("failed to resolve %s from %s: %w", target.typ, cfg.AddressBook, err)
		}
		*target.addr = found.Hex()
	}

	return nil
}

// Services are the two ledger relays bound to the configured contracts.
type Services struct {
	Donors    *donor.Registry
	Donations *donation.Records
}

// NewServices binds both contracts on chain and builds their relays. The minimum signer balance
// only guards donor registration.
func NewServices(c evm.Chain, cfg *config.Config, lggr logger.Logger, m relay.Metrics) (*Services, error) {
	registryAddr, recordsAddr, err := cfg.Contracts.Addresses()
	if err != nil {
		return nil, err
	}

	minBalance, err := cfg.Relay.MinBalanceWei()
	if err != nil {
		return nil, err
	}

	donorRelay, err := relay.New(relay.Config{
		Name:          DonorRelayName,
		Contract:      contracts.BindDonorRegistry(registryAddr, c.Client),
		Client:        c.Client,
		Signer:        c.DeployerKey,
		Confirm:       c.Confirm,
		Preconditions: []relay.Precondition{relay.MinBalance(minBalance)},
		Logger:        lggr,
		Metrics:       m,
	})
	if err != nil {
		return nil, err
	}

	donationRelay, err := relay.New(relay.Config{
		Name:     DonationRelayName,
		Contract: contracts.BindDonationRecords(recordsAddr, c.Client),
		Client:   c.Client,
		Signer:   c.DeployerKey,
		Confirm:  c.Confirm,
		Logger:   lggr,
		Metrics:  m,
	})
	if err != nil {
		return nil, err
	}

	registry := donor.NewRegistry(donorRelay, lggr)

	var opts []donation.Option
	if cfg.Relay.VerifyDonorExists {
		opts = append(opts, donation.WithDonorCheck(registry))
	}

	return &Services{
		Donors:    registry,
		Donations: donation.NewRecords(donationRelay, lggr, opts...),
	}, nil
}

// NewHandler builds the relays on chain and returns the HTTP router serving them.
func NewHandler(c evm.Chain, cfg *config.Config, lggr logger.Logger, m *metrics.Metrics) (http.Handler, error) {
	svc, err := NewServices(c, cfg, lggr, m)
	if err != nil {
		return nil, err
	}

	return httpapi.NewRouter(httpapi.Config{
		Donors:         svc.Donors,
		Donations:      svc.Donations,
		Logger:         lggr,
		Metrics:        m,
		MetricsHandler: m.Handler(),
	})
}
