package walletcmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/pkg/commands/ui"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/wallet"
)

const testAccount = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

type fakeWallet struct {
	authorised []string
	accounts   []string
	requestErr error
	requests   int
}

func (w *fakeWallet) Accounts(context.Context) ([]string, error) {
	return w.authorised, nil
}

func (w *fakeWallet) RequestAccounts(context.Context) ([]string, error) {
	w.requests++
	if w.requestErr != nil {
		return nil, w.requestErr
	}

	return w.accounts, nil
}

func (w *fakeWallet) OnAccountsChanged(func([]string)) func() { return func() {} }

func TestNewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Nop()})
	require.NoError(t, err)

	assert.Equal(t, "wallet", cmd.Use)
	assert.Equal(t, walletShort, cmd.Short)

	ks := cmd.PersistentFlags().Lookup("keystore")
	require.NotNil(t, ks)
	assert.Equal(t, "keystore", ks.DefValue)

	uses := make([]string, 0, 2)
	for _, sub := range cmd.Commands() {
		uses = append(uses, sub.Use)
	}
	assert.ElementsMatch(t, []string{"status", "connect"}, uses)

	_, err = NewCommand(Config{})
	require.ErrorContains(t, err, "missing required fields: Logger")
}

func TestSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		giveArgs     []string
		giveWallet   func() wallet.Provider
		wantOut      string
		wantRequests int
		wantAlerts   []string
		wantErr      string
	}{
		{
			name:       "status without an authorised account",
			giveArgs:   []string{"status"},
			giveWallet: func() wallet.Provider { return &fakeWallet{accounts: []string{testAccount}} },
			wantOut:    "Status: disconnected\n",
		},
		{
			name:       "status with an authorised account",
			giveArgs:   []string{"status"},
			giveWallet: func() wallet.Provider { return &fakeWallet{authorised: []string{testAccount}} },
			wantOut:    "Status: connected\nAccount: 0x5FbD...0aa3\n",
		},
		{
			name:         "connect prompts once",
			giveArgs:     []string{"connect", "--keystore", "keys"},
			giveWallet:   func() wallet.Provider { return &fakeWallet{accounts: []string{testAccount}} },
			wantOut:      "Status: connected\nAccount: 0x5FbD...0aa3\n",
			wantRequests: 1,
		},
		{
			name:         "rejected connect",
			giveArgs:     []string{"connect"},
			giveWallet:   func() wallet.Provider { return &fakeWallet{requestErr: errors.New("could not decrypt key")} },
			wantRequests: 1,
			wantAlerts:   []string{wallet.AlertConnectFailed},
			wantErr:      "could not decrypt key",
		},
		{
			name:       "no wallet installed",
			giveArgs:   []string{"connect"},
			giveWallet: func() wallet.Provider { return nil },
			wantAlerts: []string{wallet.AlertNoWallet},
			wantErr:    "no wallet installed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := tt.giveWallet()
			notifier := &ui.RecordingNotifier{}

			cmd, err := NewCommand(Config{
				Logger: logger.Test(t),
				Deps: Deps{
					WalletOpener: func(string) (wallet.Provider, func(), error) {
						return provider, func() {}, nil
					},
					Notifier: notifier,
				},
			})
			require.NoError(t, err)

			out := new(bytes.Buffer)
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetArgs(tt.giveArgs)

			err = cmd.ExecuteContext(t.Context())
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, out.String())
			}

			assert.Equal(t, tt.wantAlerts, notifier.Alerts)
			if fw, ok := provider.(*fakeWallet); ok {
				assert.Equal(t, tt.wantRequests, fw.requests)
			}
		})
	}
}
