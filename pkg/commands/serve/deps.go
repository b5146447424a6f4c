// Package serve provides the command that runs the relay API.
package serve

import (
	"context"
	"net/http"

	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/internal/config"
	"github.com/smartcontractkit/bloodledger/internal/server"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// ConfigLoaderFunc loads the configuration from an optional file plus the environment.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// ChainConnectorFunc connects to the configured chain.
type ChainConnectorFunc func(ctx context.Context, cfg config.ChainConfig, lggr logger.Logger) (evm.Chain, error)

// RunnerFunc serves handler until ctx is done.
type RunnerFunc func(ctx context.Context, cfg config.ServerConfig, handler http.Handler, lggr logger.Logger) error

func defaultRunner(ctx context.Context, cfg config.ServerConfig, handler http.Handler, lggr logger.Logger) error {
	return server.NewHTTPServer(cfg, handler, lggr).Run(ctx)
}

// Deps holds the injectable dependencies for the serve command.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// ChainConnector connects to the chain.
	// Default: server.Connect
	ChainConnector ChainConnectorFunc

	// Runner serves the API.
	// Default: server.HTTPServer.Run
	Runner RunnerFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.ChainConnector == nil {
		d.ChainConnector = server.Connect
	}
	if d.Runner == nil {
		d.Runner = defaultRunner
	}
}
