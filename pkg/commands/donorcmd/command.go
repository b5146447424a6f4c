package donorcmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
	"github.com/smartcontractkit/bloodledger/pkg/commands/text"
	"github.com/smartcontractkit/bloodledger/pkg/commands/ui"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/wallet"
)

var (
	donorShort = "Donor operations"

	donorLong = text.LongDesc(`
		Commands for registering donors and listing the registered donors through a running
		relay.
	`)
)

// Config holds the configuration for donor commands.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger
	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("donorcmd.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// notifier returns the configured Notifier or one writing to the command's stderr.
func (c *Config) notifier(cmd *cobra.Command) wallet.Notifier {
	if c.Deps.Notifier != nil {
		return c.Deps.Notifier
	}

	return ui.NewNotifier(cmd.ErrOrStderr())
}

// NewCommand creates a new donor command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	cmd := &cobra.Command{
		Use:   "donor",
		Short: donorShort,
		Long:  donorLong,
	}

	flags.RelayURL(cmd)
	flags.Debug(cmd)

	cmd.AddCommand(newRegisterCmd(cfg))
	cmd.AddCommand(newListCmd(cfg))

	return cmd, nil
}
