package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/internal/metrics"
	"github.com/smartcontractkit/bloodledger/internal/server"
	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
	"github.com/smartcontractkit/bloodledger/pkg/commands/text"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

var (
	serveShort = "Run the relay API"

	serveLong = text.LongDesc(`
		Connects to the configured chain with the deployer key and serves the donor and donation
		relay API until interrupted.

		The RPC URL, the deployer key and both contract addresses are required. Addresses left
		unset are looked up for the connected chain in contracts.address_book when it is
		configured. A missing or malformed value stops the command before anything is served.
	`)

	serveExample = text.Examples(`
		# Serve with settings from the environment (and .env)
		bloodledger serve

		# Serve with a config file, environment variables still take precedence
		bloodledger serve --config bloodledger.yml
	`)
)

// Config holds the configuration for the serve command.
type Config struct {
	// Logger overrides the logger built from log.level. Optional.
	Logger logger.Logger
	// Registry receives the relay metrics. Optional, defaults to a fresh registry.
	Registry *prometheus.Registry
	// Deps holds optional dependencies that can be overridden.
	Deps Deps
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates the serve command.
func NewCommand(cfg Config) *cobra.Command {
	cfg.deps()

	return &cobra.Command{
		Use:     "serve",
		Short:   serveShort,
		Long:    serveLong,
		Example: serveExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, flags.ConfigPath(cmd))
		},
	}
}

// runServe loads and validates the configuration, connects to the chain and serves until ctx
// is done.
func runServe(ctx context.Context, cfg Config, configPath string) error {
	deps := cfg.deps()

	appCfg, err := deps.ConfigLoader(configPath)
	if err != nil {
		return err
	}
	if err := appCfg.ValidateChain(); err != nil {
		return err
	}
	if err := appCfg.ValidateContracts(); err != nil {
		return err
	}

	lggr := cfg.Logger
	if lggr == nil {
		if lggr, err = appCfg.Log.Logger(); err != nil {
			return err
		}
		defer func() { _ = lggr.Sync() }()
	}

	chain, err := deps.ChainConnector(ctx, appCfg.Chain, lggr)
	if err != nil {
		return err
	}
	if err := server.ResolveContracts(&appCfg.Contracts, chain.ChainID); err != nil {
		return err
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	handler, err := server.NewHandler(chain, appCfg, lggr, metrics.New(registry))
	if err != nil {
		return fmt.Errorf("failed to build relay: %w", err)
	}

	lggr.Infow("Relay ready",
		"chain", chain.String(),
		"donorRegistry", appCfg.Contracts.DonorRegistry,
		"donationRecords", appCfg.Contracts.DonationRecords,
	)

	return deps.Runner(ctx, appCfg.Server, handler, lggr)
}
