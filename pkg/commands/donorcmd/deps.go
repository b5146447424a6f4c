// Package donorcmd provides the donor commands, which talk to a running relay.
package donorcmd

import (
	"context"

	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/pkg/commands/ui"
	"github.com/smartcontractkit/bloodledger/pkg/relayclient"
	"github.com/smartcontractkit/bloodledger/wallet"
)

// Client is the part of the relay API the donor commands use.
type Client interface {
	ListDonors(ctx context.Context) ([]donor.Donor, error)
	RegisterDonor(ctx context.Context, req donor.RegisterRequest) (relayclient.SubmitResult, error)
}

// ClientFactoryFunc returns a client for the relay at baseURL. With debug set the client logs
// its requests and responses.
type ClientFactoryFunc func(baseURL string, debug bool) Client

// WalletOpenerFunc opens the wallet kept in dir. The returned func releases it.
type WalletOpenerFunc func(dir string) (wallet.Provider, func(), error)

func defaultClientFactory(baseURL string, debug bool) Client {
	return relayclient.New(baseURL, relayclient.WithDebug(debug))
}

// Deps holds the injectable dependencies for donor commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ClientFactory builds the relay client.
	// Default: relayclient.New
	ClientFactory ClientFactoryFunc

	// WalletOpener opens the operator wallet.
	// Default: ui.OpenKeystore
	WalletOpener WalletOpenerFunc

	// Notifier shows alerts to the operator.
	// Default: pterm warnings on the command's stderr
	Notifier wallet.Notifier
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ClientFactory == nil {
		d.ClientFactory = defaultClientFactory
	}
	if d.WalletOpener == nil {
		d.WalletOpener = ui.OpenKeystore
	}
}
