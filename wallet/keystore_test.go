package wallet

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeystoreProvider(t *testing.T, passphrase PassphraseFunc) (*KeystoreProvider, *keystore.KeyStore) {
	t.Helper()

	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	p := newKeystoreProvider(ks, passphrase)
	t.Cleanup(p.Close)

	return p, ks
}

func Test_KeystoreProvider_RequestAccounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		giveAccount    bool
		givePassphrase PassphraseFunc
		wantErrIs      error
		wantErr        string
	}{
		{
			name:           "unlocks the first account",
			giveAccount:    true,
			givePassphrase: func(string) (string, error) { return "secret", nil },
		},
		{
			name:           "wrong passphrase",
			giveAccount:    true,
			givePassphrase: func(string) (string, error) { return "wrong", nil },
			wantErr:        "failed to unlock",
		},
		{
			name:           "passphrase prompt aborted",
			giveAccount:    true,
			givePassphrase: func(string) (string, error) { return "", errors.New("interrupted") },
			wantErr:        "failed to read passphrase: interrupted",
		},
		{
			name:           "empty keystore",
			givePassphrase: func(string) (string, error) { return "secret", nil },
			wantErrIs:      ErrNoAccounts,
		},
		{
			name:        "no passphrase source",
			giveAccount: true,
			wantErr:     "no passphrase source configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, ks := newTestKeystoreProvider(t, tt.givePassphrase)

			var want string
			if tt.giveAccount {
				acc, err := ks.NewAccount("secret")
				require.NoError(t, err)
				want = acc.Address.Hex()
			}

			before, err := p.Accounts(t.Context())
			require.NoError(t, err)
			assert.Empty(t, before, "locked keys are not authorised")

			got, err := p.RequestAccounts(t.Context())
			switch {
			case tt.wantErrIs != nil:
				require.ErrorIs(t, err, tt.wantErrIs)
				return
			case tt.wantErr != "":
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, []string{want}, got)

			after, err := p.Accounts(t.Context())
			require.NoError(t, err)
			assert.Equal(t, []string{want}, after)
		})
	}
}

func Test_KeystoreProvider_DrivesSession(t *testing.T) {
	t.Parallel()

	p, ks := newTestKeystoreProvider(t, func(string) (string, error) { return "secret", nil })
	acc, err := ks.NewAccount("secret")
	require.NoError(t, err)

	s := NewSession(p, nil, nil)
	require.NoError(t, s.Init(t.Context()))
	t.Cleanup(s.Close)
	require.False(t, s.State().IsConnected)

	require.NoError(t, s.Connect(t.Context()))
	assert.Equal(t, acc.Address.Hex(), s.State().Account)

	var mu sync.Mutex
	var seen []State
	s.Subscribe(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st)
	})

	// Locking the key in the wallet is an external account change
	require.NoError(t, p.Lock(acc.Address.Hex()))
	assert.Equal(t, State{Status: Disconnected}, s.State())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, Disconnected, seen[len(seen)-1].Status)
}
