// Package commands provides the bloodledger CLI command groups.
//
// There are two ways to use commands from this package:
//
// 1. Via the Commands factory (recommended for most use cases):
//
//	cmds := commands.New(lggr)
//	root.AddCommand(cmds.Serve(), cmds.Deploy(), cmds.Donor())
//
// 2. Via direct package imports (for advanced DI/testing):
//
//	import "github.com/smartcontractkit/bloodledger/pkg/commands/donorcmd"
//
//	cmd, err := donorcmd.NewCommand(donorcmd.Config{
//	    Logger: lggr,
//	    Deps:   donorcmd.Deps{...}, // inject fakes for testing
//	})
package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/pkg/commands/dashboard"
	"github.com/smartcontractkit/bloodledger/pkg/commands/deploy"
	"github.com/smartcontractkit/bloodledger/pkg/commands/donationcmd"
	"github.com/smartcontractkit/bloodledger/pkg/commands/donorcmd"
	"github.com/smartcontractkit/bloodledger/pkg/commands/serve"
	"github.com/smartcontractkit/bloodledger/pkg/commands/walletcmd"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
// The logger is set once and shared by every command except serve, which builds its own from
// log.level.
type Commands struct {
	lggr logger.Logger
}

// New creates a new Commands factory with the given logger.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// All returns every command group in help order.
func (c *Commands) All() ([]*cobra.Command, error) {
	cmds := []*cobra.Command{c.Serve()}
	for _, build := range []func() (*cobra.Command, error){
		c.Deploy, c.Donor, c.Donation, c.Dashboard, c.Wallet,
	} {
		cmd, err := build()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	return cmds, nil
}

// Serve creates the command that runs the relay API.
func (c *Commands) Serve() *cobra.Command {
	return serve.NewCommand(serve.Config{})
}

// Deploy creates the command that deploys both contracts.
func (c *Commands) Deploy() (*cobra.Command, error) {
	return deploy.NewCommand(deploy.Config{Logger: c.lggr})
}

// Donor creates the donor command group.
func (c *Commands) Donor() (*cobra.Command, error) {
	return donorcmd.NewCommand(donorcmd.Config{Logger: c.lggr})
}

// Donation creates the donation command group.
func (c *Commands) Donation() (*cobra.Command, error) {
	return donationcmd.NewCommand(donationcmd.Config{Logger: c.lggr})
}

// Dashboard creates the dashboard command.
func (c *Commands) Dashboard() (*cobra.Command, error) {
	return dashboard.NewCommand(dashboard.Config{Logger: c.lggr})
}

// Wallet creates the wallet command group.
func (c *Commands) Wallet() (*cobra.Command, error) {
	return walletcmd.NewCommand(walletcmd.Config{Logger: c.lggr})
}
