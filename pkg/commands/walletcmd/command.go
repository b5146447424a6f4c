// Package walletcmd provides the commands that inspect and connect the operator wallet.
package walletcmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
	"github.com/smartcontractkit/bloodledger/pkg/commands/text"
	"github.com/smartcontractkit/bloodledger/pkg/commands/ui"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/wallet"
)

var (
	walletShort = "Wallet operations"

	walletLong = text.LongDesc(`
		Commands for the keystore wallet whose address is sent with donor registrations. A key
		counts as connected while it is unlocked.
	`)

	statusShort = "Show the wallet connection without prompting"

	connectShort = "Connect the wallet, prompting for the passphrase if needed"
)

// WalletOpenerFunc opens the wallet kept in dir. The returned func releases it.
type WalletOpenerFunc func(dir string) (wallet.Provider, func(), error)

// Deps holds the injectable dependencies for wallet commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// WalletOpener opens the operator wallet.
	// Default: ui.OpenKeystore
	WalletOpener WalletOpenerFunc

	// Notifier shows alerts to the operator.
	// Default: pterm warnings on the command's stderr
	Notifier wallet.Notifier
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.WalletOpener == nil {
		d.WalletOpener = ui.OpenKeystore
	}
}

// Config holds the configuration for wallet commands.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger
	// Deps holds optional dependencies that can be overridden.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("walletcmd.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates a new wallet command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: walletShort,
		Long:  walletLong,
	}

	cmd.PersistentFlags().String("keystore", "keystore", "Keystore directory holding the wallet keys")

	cmd.AddCommand(newSessionCmd(cfg, "status", statusShort, false))
	cmd.AddCommand(newSessionCmd(cfg, "connect", connectShort, true))

	return cmd, nil
}

// newSessionCmd creates a subcommand that initialises a wallet session, optionally connects it
// and prints the resulting state.
func newSessionCmd(cfg Config, use, short string, connect bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, cfg, flags.MustString(cmd.Flags().GetString("keystore")), connect)
		},
	}
}

// runSession executes the status and connect commands.
func runSession(cmd *cobra.Command, cfg Config, keystoreDir string, connect bool) error {
	deps := cfg.deps()

	notifier := deps.Notifier
	if notifier == nil {
		notifier = ui.NewNotifier(cmd.ErrOrStderr())
	}

	provider, release, err := deps.WalletOpener(keystoreDir)
	if err != nil {
		return fmt.Errorf("failed to open wallet: %w", err)
	}
	defer release()

	session := wallet.NewSession(provider, notifier, cfg.Logger)
	defer session.Close()

	if err := session.Init(cmd.Context()); err != nil {
		return fmt.Errorf("failed to read wallet accounts: %w", err)
	}

	if connect && !session.State().IsConnected {
		if err := session.Connect(cmd.Context()); err != nil {
			return err
		}
	}

	state := session.State()
	cmd.Printf("Status: %s\n", state.Status)
	if state.IsConnected {
		cmd.Printf("Account: %s\n", wallet.ShortAddress(state.Account))
	}

	return nil
}
