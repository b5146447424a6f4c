// Package dashboard provides the command that renders the donation dashboard in the terminal.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/dashboard"
	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
	"github.com/smartcontractkit/bloodledger/pkg/commands/text"
	"github.com/smartcontractkit/bloodledger/pkg/commands/ui"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/pkg/relayclient"
	"github.com/smartcontractkit/bloodledger/wallet"
)

var (
	dashboardShort = "Show donor and donation statistics"

	dashboardLong = text.LongDesc(`
		Fetches the donors and the donations from the relay and renders totals, the blood type
		distribution, the donations per blood unit and both lists.

		A list that cannot be fetched is shown empty and reported. With --refresh the donors are
		fetched again on that interval and the dashboard is rendered again until interrupted.
	`)

	dashboardExample = text.Examples(`
		# Render once
		bloodledger dashboard

		# Refresh the donors every 30 seconds
		bloodledger dashboard --refresh 30s
	`)
)

// SourceFactoryFunc returns the read paths of the relay at baseURL. With debug set the client
// logs its requests and responses.
type SourceFactoryFunc func(baseURL string, debug bool) dashboard.Source

// Deps holds the injectable dependencies for the dashboard command.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// SourceFactory builds the relay client.
	// Default: relayclient.New
	SourceFactory SourceFactoryFunc

	// Notifier reports fetch failures.
	// Default: pterm warnings on the command's stderr
	Notifier wallet.Notifier
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.SourceFactory == nil {
		d.SourceFactory = func(baseURL string, debug bool) dashboard.Source {
			return relayclient.New(baseURL, relayclient.WithDebug(debug))
		}
	}
}

// Config holds the configuration for the dashboard command.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger
	// Deps holds optional dependencies that can be overridden.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("dashboard.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

type dashboardFlags struct {
	relayURL string
	debug    bool
	refresh  time.Duration
}

// NewCommand creates the dashboard command.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	cmd := &cobra.Command{
		Use:     "dashboard",
		Short:   dashboardShort,
		Long:    dashboardLong,
		Example: dashboardExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			refresh, _ := cmd.Flags().GetDuration("refresh")
			f := dashboardFlags{
				relayURL: flags.MustString(cmd.Flags().GetString("relay-url")),
				debug:    flags.MustBool(cmd.Flags().GetBool("debug")),
				refresh:  refresh,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDashboard(ctx, cmd, cfg, f)
		},
	}

	flags.RelayURL(cmd)
	flags.Debug(cmd)
	cmd.Flags().Duration("refresh", 0, "Re-fetch the donors on this interval (0 renders once)")

	return cmd, nil
}

// runDashboard loads and renders the dashboard, then keeps refreshing the donors when asked to.
func runDashboard(ctx context.Context, cmd *cobra.Command, cfg Config, f dashboardFlags) error {
	deps := cfg.deps()

	notifier := deps.Notifier
	if notifier == nil {
		notifier = ui.NewNotifier(cmd.ErrOrStderr())
	}

	d := dashboard.New(deps.SourceFactory(f.relayURL, f.debug), cfg.Logger)

	loadErr := d.Load(ctx)
	if err := d.Render(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	if loadErr != nil {
		notifier.Alert(loadErr.Error())
	}

	if f.refresh <= 0 {
		return nil
	}

	ticker := time.NewTicker(f.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		refreshErr := d.Refresh(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err := d.Render(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to render dashboard: %w", err)
		}
		if refreshErr != nil {
			notifier.Alert(refreshErr.Error())
		}
	}
}
