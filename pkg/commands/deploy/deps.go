// Package deploy provides the command that deploys the ledger contracts.
package deploy

import (
	"context"

	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/contracts"
	"github.com/smartcontractkit/bloodledger/internal/config"
	"github.com/smartcontractkit/bloodledger/internal/server"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// ConfigLoaderFunc loads the configuration from an optional file plus the environment.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// ChainConnectorFunc connects to the configured chain.
type ChainConnectorFunc func(ctx context.Context, cfg config.ChainConfig, lggr logger.Logger) (evm.Chain, error)

// ArtifactLoaderFunc reads a compiled contract.
type ArtifactLoaderFunc func(path string) (contracts.Artifact, error)

// Deps holds the injectable dependencies for the deploy command.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// ChainConnector connects to the chain.
	// Default: server.Connect
	ChainConnector ChainConnectorFunc

	// ArtifactLoader reads the Hardhat artifacts.
	// Default: contracts.LoadArtifact
	ArtifactLoader ArtifactLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.ChainConnector == nil {
		d.ChainConnector = server.Connect
	}
	if d.ArtifactLoader == nil {
		d.ArtifactLoader = contracts.LoadArtifact
	}
}
