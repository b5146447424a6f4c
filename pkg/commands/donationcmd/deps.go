// Package donationcmd provides the donation commands, which talk to a running relay.
package donationcmd

import (
	"context"

	"github.com/smartcontractkit/bloodledger/donation"
	"github.com/smartcontractkit/bloodledger/pkg/relayclient"
	"github.com/smartcontractkit/bloodledger/wallet"
)

// Client is the part of the relay API the donation commands use.
type Client interface {
	ListDonations(ctx context.Context) ([]donation.Donation, error)
	RecordDonation(ctx context.Context, req donation.RecordRequest) (relayclient.SubmitResult, error)
}

// ClientFactoryFunc returns a client for the relay at baseURL. With debug set the client logs
// its requests and responses.
type ClientFactoryFunc func(baseURL string, debug bool) Client

func defaultClientFactory(baseURL string, debug bool) Client {
	return relayclient.New(baseURL, relayclient.WithDebug(debug))
}

// Deps holds the injectable dependencies for donation commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ClientFactory builds the relay client.
	// Default: relayclient.New
	ClientFactory ClientFactoryFunc

	// Notifier shows alerts to the operator.
	// Default: pterm warnings on the command's stderr
	Notifier wallet.Notifier
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ClientFactory == nil {
		d.ClientFactory = defaultClientFactory
	}
}
