package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// ErrMissingConfig is returned when a setting required to start the process is not set.
var ErrMissingConfig = errors.New("missing required configuration")

// ChainConfig is the configuration for the connection to the ledger.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url" yaml:"rpc_url"`                   // The JSON-RPC endpoint of the EVM node.
	DeployerKey     string        `mapstructure:"deployer_key" yaml:"deployer_key"`         // Secret: hex private key of the relay signer.
	ChainID         uint64        `mapstructure:"chain_id" yaml:"chain_id"`                 // Pins the expected chain ID. Zero reads it from the RPC.
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout" yaml:"confirm_timeout"`   // How long to wait for a transaction to be mined.
	ConfirmInterval time.Duration `mapstructure:"confirm_interval" yaml:"confirm_interval"` // How often to poll for a receipt.
	DialAttempts    uint          `mapstructure:"dial_attempts" yaml:"dial_attempts"`       // Attempts when dialing the RPC at startup.
}

// ContractsConfig holds the addresses of the deployed contracts.
type ContractsConfig struct {
	DonorRegistry   string `mapstructure:"donor_registry" yaml:"donor_registry"`
	DonationRecords string `mapstructure:"donation_records" yaml:"donation_records"`
	AddressBook     string `mapstructure:"address_book" yaml:"address_book"` // Written by deploy --out. Fills unset addresses.
}

// RelayConfig tunes the transaction relays.
type RelayConfig struct {
	MinBalance        string `mapstructure:"min_balance" yaml:"min_balance"`                 // Minimum signer balance in native units, e.g. "0.005".
	VerifyDonorExists bool   `mapstructure:"verify_donor_exists" yaml:"verify_donor_exists"` // Reject donations for unknown donor IDs before submitting.
}

// ServerConfig is the configuration of the HTTP server.
type ServerConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// LogConfig is the configuration of the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config wraps the entire configuration of the relay process.
type Config struct {
	Chain     ChainConfig     `mapstructure:"chain" yaml:"chain"`
	Contracts ContractsConfig `mapstructure:"contracts" yaml:"contracts"`
	Relay     RelayConfig     `mapstructure:"relay" yaml:"relay"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
// An empty path loads from env vars only.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)

		// If the config file exists, we continue to read it, otherwise we fallback to using
		// environment variables
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads env files into the process environment. Variables that are already set are
// not overridden and missing files are skipped. With no arguments it loads ".env".
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	return nil
}

// ValidateChain checks the settings needed to sign and send transactions are present.
func (c *Config) ValidateChain() error {
	var missing []string
	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		missing = append(missing, "chain.rpc_url (CHAIN_RPC_URL)")
	}
	if strings.TrimSpace(c.Chain.DeployerKey) == "" {
		missing = append(missing, "chain.deployer_key (CHAIN_DEPLOYER_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	if c.Chain.ConfirmTimeout <= 0 {
		return fmt.Errorf("chain.confirm_timeout must be positive, got %s", c.Chain.ConfirmTimeout)
	}

	return nil
}

// ValidateContracts checks both contract addresses are present and well formed. With an
// address book configured, unset addresses are allowed since they are resolved once the chain
// ID is known.
func (c *Config) ValidateContracts() error {
	if strings.TrimSpace(c.Contracts.AddressBook) == "" {
		_, _, err := c.Contracts.Addresses()

		return err
	}

	if strings.TrimSpace(c.Contracts.DonorRegistry) != "" {
		if _, err := evm.ParseAddress(c.Contracts.DonorRegistry); err != nil {
			return fmt.Errorf("contracts.donor_registry: %w", err)
		}
	}
	if strings.TrimSpace(c.Contracts.DonationRecords) != "" {
		if _, err := evm.ParseAddress(c.Contracts.DonationRecords); err != nil {
			return fmt.Errorf("contracts.donation_records: %w", err)
		}
	}

	return nil
}

// Addresses parses the DonorRegistry and DonationRecords addresses.
func (c ContractsConfig) Addresses() (common.Address, common.Address, error) {
	var missing []string
	if strings.TrimSpace(c.DonorRegistry) == "" {
		missing = append(missing, "contracts.donor_registry (CONTRACTS_DONOR_REGISTRY)")
	}
	if strings.TrimSpace(c.DonationRecords) == "" {
		missing = append(missing, "contracts.donation_records (CONTRACTS_DONATION_RECORDS)")
	}
	if len(missing) > 0 {
		return common.Address{}, common.Address{}, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	registry, err := evm.ParseAddress(c.DonorRegistry)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("contracts.donor_registry: %w", err)
	}
	records, err := evm.ParseAddress(c.DonationRecords)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("contracts.donation_records: %w", err)
	}

	return registry, records, nil
}

// MinBalanceWei returns the minimum signer balance in wei.
func (r RelayConfig) MinBalanceWei() (*big.Int, error) {
	wei, err := evm.ParseEther(r.MinBalance)
	if err != nil {
		return nil, fmt.Errorf("relay.min_balance: %w", err)
	}

	return wei, nil
}

// Logger builds the process logger with the configured level and format.
func (l LogConfig) Logger() (logger.Logger, error) {
	lcfg, err := logger.ParseConfig(l.Level, l.Format)
	if err != nil {
		return nil, err
	}

	return lcfg.New()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain.confirm_timeout", 2*time.Minute)
	v.SetDefault("chain.confirm_interval", time.Second)
	v.SetDefault("chain.dial_attempts", 1)
	v.SetDefault("relay.min_balance", "0.005")
	v.SetDefault("relay.verify_donor_exists", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

var (
	// envBindings maps a config key to the environment variables that can provide its value.
	//
	// The first element is the preferred name; the rest are legacy names kept for existing
	// deployments. Viper uses the first one that is set.
	envBindings = map[string][]string{
		"chain.rpc_url":              {"CHAIN_RPC_URL", "ALCHEMY_SEPOLIA_URL"},
		"chain.deployer_key":         {"CHAIN_DEPLOYER_KEY", "PRIVATE_KEY"},
		"chain.chain_id":             {"CHAIN_ID"},
		"chain.confirm_timeout":      {"CHAIN_CONFIRM_TIMEOUT"},
		"chain.confirm_interval":     {"CHAIN_CONFIRM_INTERVAL"},
		"chain.dial_attempts":        {"CHAIN_DIAL_ATTEMPTS"},
		"contracts.donor_registry":   {"CONTRACTS_DONOR_REGISTRY", "NEXT_PUBLIC_CONTRACT_ADDRESS"},
		"contracts.donation_records": {"CONTRACTS_DONATION_RECORDS", "NEXT_PUBLIC_DONATION_CONTRACT"},
		"contracts.address_book":     {"CONTRACTS_ADDRESS_BOOK"},
		"relay.min_balance":          {"RELAY_MIN_BALANCE"},
		"relay.verify_donor_exists":  {"RELAY_VERIFY_DONOR_EXISTS"},
		"server.port":                {"PORT"},
		"server.read_timeout":        {"SERVER_READ_TIMEOUT"},
		"server.write_timeout":       {"SERVER_WRITE_TIMEOUT"},
		"server.idle_timeout":        {"SERVER_IDLE_TIMEOUT"},
		"log.level":                  {"LOG_LEVEL"},
		"log.format":                 {"LOG_FORMAT"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		// Prepend the config key to the start of the arguments
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
