package serve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/chain/evm/provider"
	"github.com/smartcontractkit/bloodledger/contracts"
	"github.com/smartcontractkit/bloodledger/deployment"
	"github.com/smartcontractkit/bloodledger/internal/config"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

func validConfig() *config.Config {
	return &config.Config{
		Chain: config.ChainConfig{
			RPCURL:         "http://localhost:8545",
			DeployerKey:    "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
			ConfirmTimeout: 2 * time.Minute,
		},
		Contracts: config.ContractsConfig{
			DonorRegistry:   "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			DonationRecords: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
		},
		Relay: config.RelayConfig{MinBalance: "0.005"},
	}
}

func TestNewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd := NewCommand(Config{Logger: logger.Nop()})

	assert.Equal(t, "serve", cmd.Use)
	assert.Equal(t, serveShort, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Example)
}

func TestServe(t *testing.T) {
	t.Parallel()

	simChain := func(t *testing.T) ChainConnectorFunc {
		t.Helper()

		return func(ctx context.Context, _ config.ChainConfig, _ logger.Logger) (evm.Chain, error) {
			return provider.NewSimChainProvider(t, provider.SimChainProviderConfig{}).Initialize(ctx)
		}
	}

	tests := []struct {
		name        string
		giveConfig  func() *config.Config
		giveLoadErr error
		giveConnect func(t *testing.T) ChainConnectorFunc
		giveArgs    []string
		wantPath    string
		wantServed  bool
		wantErr     string
	}{
		{
			name:        "serves the relay",
			giveConfig:  validConfig,
			giveConnect: simChain,
			giveArgs:    []string{"--config", "bloodledger.yml"},
			wantPath:    "bloodledger.yml",
			wantServed:  true,
		},
		{
			name:        "config load failure",
			giveLoadErr: errors.New("failed to read config file bloodledger.yml: boom"),
			giveConnect: simChain,
			wantErr:     "failed to read config file",
		},
		{
			name: "missing chain settings",
			giveConfig: func() *config.Config {
				cfg := validConfig()
				cfg.Chain.RPCURL = ""
				cfg.Chain.DeployerKey = ""

				return cfg
			},
			giveConnect: simChain,
			wantErr:     "chain.rpc_url (CHAIN_RPC_URL), chain.deployer_key (CHAIN_DEPLOYER_KEY)",
		},
		{
			name: "malformed contract address",
			giveConfig: func() *config.Config {
				cfg := validConfig()
				cfg.Contracts.DonationRecords = "0x123"

				return cfg
			},
			giveConnect: simChain,
			wantErr:     "contracts.donation_records",
		},
		{
			name:       "chain unreachable",
			giveConfig: validConfig,
			giveConnect: func(*testing.T) ChainConnectorFunc {
				return func(context.Context, config.ChainConfig, logger.Logger) (evm.Chain, error) {
					return evm.Chain{}, errors.New("failed to connect to chain: dial refused")
				}
			},
			wantErr: "failed to connect to chain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				gotPath string
				served  bool
			)

			cmd := NewCommand(Config{
				Logger: logger.Test(t),
				Deps: Deps{
					ConfigLoader: func(path string) (*config.Config, error) {
						gotPath = path
						if tt.giveLoadErr != nil {
							return nil, tt.giveLoadErr
						}

						return tt.giveConfig(), nil
					},
					ChainConnector: tt.giveConnect(t),
					Runner: func(_ context.Context, _ config.ServerConfig, h http.Handler, _ logger.Logger) error {
						served = true

						rec := httptest.NewRecorder()
						h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
						assert.Equal(t, http.StatusOK, rec.Code)

						return nil
					},
				},
			})
			cmd.Flags().String("config", "", "")
			cmd.SetArgs(tt.giveArgs)

			err := cmd.ExecuteContext(t.Context())
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				assert.False(t, served)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, gotPath)
			assert.Equal(t, tt.wantServed, served)
		})
	}
}

func TestServe_AddressBook(t *testing.T) {
	t.Parallel()

	const simChainID = 1337

	tests := []struct {
		name        string
		giveChainID uint64
		wantErr     string
	}{
		{
			name:        "fills unset addresses for the connected chain",
			giveChainID: simChainID,
		},
		{
			name:        "book without the connected chain",
			giveChainID: 11155111,
			wantErr:     "failed to resolve DonationRecords",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			book := deployment.NewMemoryAddressBook()
			require.NoError(t, book.Save(tt.giveChainID, "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
				deployment.NewTypeAndVersion(contracts.DonationRecordsType, *deployment.DefaultVersion)))
			bookPath := filepath.Join(t.TempDir(), "addresses.json")
			require.NoError(t, book.WriteFile(bookPath))

			var served bool
			cmd := NewCommand(Config{
				Logger: logger.Test(t),
				Deps: Deps{
					ConfigLoader: func(string) (*config.Config, error) {
						cfg := validConfig()
						cfg.Contracts.DonationRecords = ""
						cfg.Contracts.AddressBook = bookPath

						return cfg, nil
					},
					ChainConnector: func(ctx context.Context, _ config.ChainConfig, _ logger.Logger) (evm.Chain, error) {
						return provider.NewSimChainProvider(t, provider.SimChainProviderConfig{}).Initialize(ctx)
					},
					Runner: func(context.Context, config.ServerConfig, http.Handler, logger.Logger) error {
						served = true

						return nil
					},
				},
			})
			cmd.SetArgs(nil)

			err := cmd.ExecuteContext(t.Context())
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				assert.False(t, served)

				return
			}

			require.NoError(t, err)
			assert.True(t, served)
		})
	}
}
