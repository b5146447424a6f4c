package donor_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/contracts"
	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/relay"
	"github.com/smartcontractkit/bloodledger/relay/relaytest"
)

const testWallet = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func newRegistry(t *testing.T, ledger *relaytest.Ledger, balance string) *donor.Registry {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer, err := bind.NewKeyedTransactorWithChainID(key, testChainID)
	require.NoError(t, err)

	r, err := relay.New(relay.Config{
		Name:          "donor-registry",
		Contract:      ledger.DonorRegistry(),
		Client:        relaytest.Balance{Wei: relaytest.Ether(balance)},
		Signer:        signer,
		Confirm:       ledger.Confirm,
		Preconditions: []relay.Precondition{relay.MinBalance(relaytest.Ether("0.005"))},
		Logger:        logger.Test(t),
	})
	require.NoError(t, err)

	return donor.NewRegistry(r, logger.Test(t))
}

func Test_Registry_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		give       donor.RegisterRequest
		giveFunds  string
		wantDonors []contracts.Donor
		wantErrIs  error
		wantErr    string
	}{
		{
			name:       "registers donor",
			give:       donor.RegisterRequest{Name: "Ada", BloodType: "A+", WalletAddress: testWallet},
			giveFunds:  "1",
			wantDonors: []contracts.Donor{{Name: "Ada", BloodType: "A+"}},
		},
		{
			name:       "canonicalises blood type and trims name",
			give:       donor.RegisterRequest{Name: "  Ada ", BloodType: "ab-", WalletAddress: testWallet},
			giveFunds:  "1",
			wantDonors: []contracts.Donor{{Name: "Ada", BloodType: "AB-"}},
		},
		{
			name: "ignores donorId from older clients",
			give: donor.RegisterRequest{
				Name: "Ada", BloodType: "A+", WalletAddress: testWallet, DonorID: json.RawMessage(`"7"`),
			},
			giveFunds:  "1",
			wantDonors: []contracts.Donor{{Name: "Ada", BloodType: "A+"}},
		},
		{
			name:      "missing name",
			give:      donor.RegisterRequest{BloodType: "A+", WalletAddress: testWallet},
			giveFunds: "1",
			wantErrIs: relay.ErrValidation,
			wantErr:   "missing required fields: name",
		},
		{
			name:      "missing blood type",
			give:      donor.RegisterRequest{Name: "Ada", WalletAddress: testWallet},
			giveFunds: "1",
			wantErrIs: relay.ErrValidation,
			wantErr:   "missing required fields: bloodType",
		},
		{
			name:      "missing everything",
			give:      donor.RegisterRequest{Name: " "},
			giveFunds: "1",
			wantErrIs: relay.ErrValidation,
			wantErr:   "missing required fields: name, bloodType, walletAddress",
		},
		{
			name:      "unknown blood type",
			give:      donor.RegisterRequest{Name: "Ada", BloodType: "Q", WalletAddress: testWallet},
			giveFunds: "1",
			wantErrIs: relay.ErrValidation,
			wantErr:   `invalid bloodType "Q"`,
		},
		{
			name:      "malformed wallet",
			give:      donor.RegisterRequest{Name: "Ada", BloodType: "A+", WalletAddress: "0x123"},
			giveFunds: "1",
			wantErrIs: relay.ErrValidation,
			wantErr:   "invalid walletAddress",
		},
		{
			name:      "insufficient funds",
			give:      donor.RegisterRequest{Name: "Ada", BloodType: "A+", WalletAddress: testWallet},
			giveFunds: "0.004",
			wantErrIs: relay.ErrInsufficientFunds,
			wantErr:   "balance 0.004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ledger := relaytest.NewLedger()
			reg := newRegistry(t, ledger, tt.giveFunds)

			got, err := reg.Register(t.Context(), tt.give)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, tt.wantErrIs)
				require.ErrorContains(t, err, tt.wantErr)
				assert.Empty(t, ledger.Sent(), "no transaction may be submitted")

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.TxHash)
			assert.Equal(t, tt.wantDonors, ledger.Donors())
		})
	}
}

func Test_Registry_List(t *testing.T) {
	t.Parallel()

	t.Run("ledger order", func(t *testing.T) {
		t.Parallel()

		ledger := relaytest.NewLedger()
		ledger.SetDonors(
			contracts.Donor{Name: "Zed", BloodType: "O-"},
			contracts.Donor{Name: "Ada", BloodType: "A+"},
		)

		got, err := newRegistry(t, ledger, "1").List(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []donor.Donor{
			{Name: "Zed", BloodType: "O-"},
			{Name: "Ada", BloodType: "A+"},
		}, got)
	})

	t.Run("empty ledger yields empty list", func(t *testing.T) {
		t.Parallel()

		got, err := newRegistry(t, relaytest.NewLedger(), "1").List(t.Context())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		ledger := relaytest.NewLedger()
		ledger.CallErr = errors.New("dial tcp: i/o timeout")

		_, err := newRegistry(t, ledger, "1").List(t.Context())
		require.ErrorIs(t, err, relay.ErrTransport)
	})
}

func Test_Registry_RegisterThenListContainsDonorOnce(t *testing.T) {
	t.Parallel()

	ledger := relaytest.NewLedger()
	reg := newRegistry(t, ledger, "1")

	for _, name := range []string{"Ada", "Bo", "Cy"} {
		_, err := reg.Register(t.Context(), donor.RegisterRequest{
			Name: name, BloodType: "O+", WalletAddress: testWallet,
		})
		require.NoError(t, err)

		donors, err := reg.List(t.Context())
		require.NoError(t, err)

		count := 0
		for _, d := range donors {
			if d.Name == name {
				count++
			}
		}
		assert.Equal(t, 1, count, "donor %s", name)
	}
}
