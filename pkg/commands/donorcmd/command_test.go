package donorcmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/pkg/commands/ui"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/pkg/relayclient"
	"github.com/smartcontractkit/bloodledger/wallet"
)

const testAccount = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

type fakeClient struct {
	donors      []donor.Donor
	listErr     error
	registerErr error
	registered  []donor.RegisterRequest
	baseURL     string
	debug       bool
}

func (c *fakeClient) ListDonors(context.Context) ([]donor.Donor, error) {
	return c.donors, c.listErr
}

func (c *fakeClient) RegisterDonor(_ context.Context, req donor.RegisterRequest) (relayclient.SubmitResult, error) {
	if c.registerErr != nil {
		return relayclient.SubmitResult{}, c.registerErr
	}
	c.registered = append(c.registered, req)

	return relayclient.SubmitResult{Success: true, TxHash: "0xabc"}, nil
}

// fakeWallet authorises its accounts on request.
type fakeWallet struct {
	authorised []string
	accounts   []string
	requestErr error
}

func (w *fakeWallet) Accounts(context.Context) ([]string, error) {
	return w.authorised, nil
}

func (w *fakeWallet) RequestAccounts(context.Context) ([]string, error) {
	if w.requestErr != nil {
		return nil, w.requestErr
	}
	w.authorised = w.accounts

	return w.accounts, nil
}

func (w *fakeWallet) OnAccountsChanged(func([]string)) func() { return func() {} }

type testEnv struct {
	client   *fakeClient
	wallet   *fakeWallet
	notifier *ui.RecordingNotifier
	opened   []string
}

func newTestCommand(t *testing.T, env *testEnv) *cobra.Command {
	t.Helper()

	if env.client == nil {
		env.client = &fakeClient{}
	}
	if env.notifier == nil {
		env.notifier = &ui.RecordingNotifier{}
	}

	cmd, err := NewCommand(Config{
		Logger: logger.Test(t),
		Deps: Deps{
			ClientFactory: func(baseURL string, debug bool) Client {
				env.client.baseURL = baseURL
				env.client.debug = debug
				return env.client
			},
			WalletOpener: func(dir string) (wallet.Provider, func(), error) {
				env.opened = append(env.opened, dir)
				return env.wallet, func() {}, nil
			},
			Notifier: env.notifier,
		},
	})
	require.NoError(t, err)

	return cmd
}

func TestNewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd := newTestCommand(t, &testEnv{})

	assert.Equal(t, "donor", cmd.Use)
	assert.Equal(t, donorShort, cmd.Short)
	require.NotNil(t, cmd.PersistentFlags().Lookup("relay-url"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("debug"))

	uses := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		uses = append(uses, sub.Use)
	}
	assert.ElementsMatch(t, []string{"register", "list"}, uses)

	register, _, err := cmd.Find([]string{"register"})
	require.NoError(t, err)
	for _, name := range []string{"name", "blood-type", "keystore"} {
		assert.NotNil(t, register.Flags().Lookup(name), name)
	}
	assert.Contains(t, register.Flags().Lookup("blood-type").Usage, "AB-")
}

func TestNewCommand_RequiresLogger(t *testing.T) {
	t.Parallel()

	_, err := NewCommand(Config{})
	require.ErrorContains(t, err, "missing required fields: Logger")
}

func TestRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		giveArgs       []string
		giveWallet     *fakeWallet
		giveClientErr  error
		wantDebug      bool
		wantRegistered []donor.RegisterRequest
		wantAlerts     []string
		wantErr        string
	}{
		{
			name:       "connects the wallet and registers",
			giveArgs:   []string{"--name", " Ada ", "--blood-type", "O-", "--keystore", "keys"},
			giveWallet: &fakeWallet{accounts: []string{testAccount}},
			wantRegistered: []donor.RegisterRequest{
				{Name: "Ada", BloodType: "O-", WalletAddress: testAccount},
			},
		},
		{
			name:       "adopts an already authorised account",
			giveArgs:   []string{"-n", "Bob", "-b", "A+", "--debug"},
			giveWallet: &fakeWallet{authorised: []string{testAccount}, requestErr: errors.New("must not prompt")},
			wantDebug:  true,
			wantRegistered: []donor.RegisterRequest{
				{Name: "Bob", BloodType: "A+", WalletAddress: testAccount},
			},
		},
		{
			name:       "missing fields alert and send nothing",
			giveArgs:   []string{"--name", "Ada"},
			giveWallet: &fakeWallet{accounts: []string{testAccount}},
			wantAlerts: []string{AlertMissingFields},
			wantErr:    "missing required fields",
		},
		{
			name:       "rejected wallet connection",
			giveArgs:   []string{"--name", "Ada", "--blood-type", "O-"},
			giveWallet: &fakeWallet{requestErr: errors.New("wrong passphrase")},
			wantAlerts: []string{wallet.AlertConnectFailed},
			wantErr:    "wallet not connected: wrong passphrase",
		},
		{
			name:          "relay rejects the donor",
			giveArgs:      []string{"--name", "Ada", "--blood-type", "Z"},
			giveWallet:    &fakeWallet{accounts: []string{testAccount}},
			giveClientErr: &relayclient.APIError{Status: 400, Message: "unknown blood type \"Z\""},
			wantAlerts:    []string{`Error: unknown blood type "Z"`},
			wantErr:       "relay returned 400",
		},
		{
			name:          "relay fails to submit",
			giveArgs:      []string{"--name", "Ada", "--blood-type", "O-"},
			giveWallet:    &fakeWallet{accounts: []string{testAccount}},
			giveClientErr: &relayclient.APIError{Status: 500, Message: "Failed to register donor", Details: "reverted"},
			wantAlerts:    []string{AlertSomethingWrong},
			wantErr:       "relay returned 500",
		},
		{
			name:          "relay unreachable",
			giveArgs:      []string{"--name", "Ada", "--blood-type", "O-"},
			giveWallet:    &fakeWallet{accounts: []string{testAccount}},
			giveClientErr: errors.New("failed to call POST /donors: connection refused"),
			wantAlerts:    []string{AlertSomethingWrong},
			wantErr:       "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := &testEnv{
				client: &fakeClient{registerErr: tt.giveClientErr},
				wallet: tt.giveWallet,
			}
			cmd := newTestCommand(t, env)

			out := new(bytes.Buffer)
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetArgs(append([]string{"register", "--relay-url", "http://relay:8080"}, tt.giveArgs...))

			err := cmd.ExecuteContext(t.Context())
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Contains(t, out.String(), AlertRegistered)
				assert.Contains(t, out.String(), "Transaction: 0xabc")
				assert.Contains(t, out.String(), "0x5FbD...0aa3")
				assert.Equal(t, "http://relay:8080", env.client.baseURL)
				assert.Equal(t, tt.wantDebug, env.client.debug)
			}

			assert.Equal(t, tt.wantRegistered, env.client.registered)
			assert.Equal(t, tt.wantAlerts, env.notifier.Alerts)
		})
	}
}

func TestRegister_DefaultKeystore(t *testing.T) {
	t.Parallel()

	env := &testEnv{wallet: &fakeWallet{accounts: []string{testAccount}}}
	cmd := newTestCommand(t, env)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"register", "--name", "Ada", "--blood-type", "O-"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.Equal(t, []string{"keystore"}, env.opened)
}

func TestList(t *testing.T) {
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	tests := []struct {
		name         string
		giveClient   *fakeClient
		wantContains []string
		wantErr      string
	}{
		{
			name: "numbers donors from one",
			giveClient: &fakeClient{donors: []donor.Donor{
				{Name: "Ada", BloodType: "O-"},
				{Name: "Bob", BloodType: "A+"},
			}},
			wantContains: []string{"Blood Type", "1", "Ada", "O-", "2", "Bob", "A+"},
		},
		{
			name:         "empty ledger",
			giveClient:   &fakeClient{},
			wantContains: []string{"No donors registered yet."},
		},
		{
			name:       "relay failure",
			giveClient: &fakeClient{listErr: &relayclient.APIError{Status: 500, Message: "Failed to retrieve donors"}},
			wantErr:    "relay returned 500: Failed to retrieve donors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestCommand(t, &testEnv{client: tt.giveClient})

			out := new(bytes.Buffer)
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetArgs([]string{"list"})

			err := cmd.ExecuteContext(t.Context())
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			for _, want := range tt.wantContains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}
