package deploy

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/deployment"
	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
	"github.com/smartcontractkit/bloodledger/pkg/commands/text"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// Default Hardhat artifact locations.
const (
	DefaultDonorRegistryArtifact   = "artifacts/contracts/DonorRegistry.sol/DonorRegistry.json"
	DefaultDonationRecordsArtifact = "artifacts/contracts/DonationRecords.sol/DonationRecords.json"
)

var (
	deployShort = "Deploy the DonorRegistry and DonationRecords contracts"

	deployLong = text.LongDesc(`
		Deploys DonorRegistry and then DonationRecords from their Hardhat artifacts with the
		deployer key, waits for both deployments to be mined and prints the addresses.

		Only the chain settings are required. Use --out to also write an address book, as YAML
		when the path ends in .yaml or .yml and as JSON otherwise. An existing address book at
		that path is kept and the new addresses are merged into it.
	`)

	deployExample = text.Examples(`
		# Deploy from the default Hardhat artifact paths
		bloodledger deploy

		# Deploy and record the addresses
		bloodledger deploy --out addresses.yaml --version 1.1.0
	`)
)

// Config holds the configuration for the deploy command.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger
	// Deps holds optional dependencies that can be overridden.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("deploy.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

type deployFlags struct {
	donorRegistry   string
	donationRecords string
	version         string
	out             string
}

// NewCommand creates the deploy command.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	cmd := &cobra.Command{
		Use:     "deploy",
		Short:   deployShort,
		Long:    deployLong,
		Example: deployExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := deployFlags{
				donorRegistry:   flags.MustString(cmd.Flags().GetString("donor-registry")),
				donationRecords: flags.MustString(cmd.Flags().GetString("donation-records")),
				version:         flags.MustString(cmd.Flags().GetString("version")),
				out:             flags.MustString(cmd.Flags().GetString("out")),
			}

			return runDeploy(cmd, cfg, f)
		},
	}

	flags.Output(cmd, "")

	cmd.Flags().String("donor-registry", DefaultDonorRegistryArtifact, "Path to the DonorRegistry artifact")
	cmd.Flags().String("donation-records", DefaultDonationRecordsArtifact, "Path to the DonationRecords artifact")
	cmd.Flags().String("version", deployment.DefaultVersion.String(), "Version recorded in the address book")

	return cmd, nil
}

// runDeploy executes the deploy command logic.
func runDeploy(cmd *cobra.Command, cfg Config, f deployFlags) error {
	deps := cfg.deps()

	version, err := semver.NewVersion(f.version)
	if err != nil {
		return fmt.Errorf("invalid --version %q: %w", f.version, err)
	}

	appCfg, err := deps.ConfigLoader(flags.ConfigPath(cmd))
	if err != nil {
		return err
	}
	if err := appCfg.ValidateChain(); err != nil {
		return err
	}

	registry, err := deps.ArtifactLoader(f.donorRegistry)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", f.donorRegistry, err)
	}
	records, err := deps.ArtifactLoader(f.donationRecords)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", f.donationRecords, err)
	}

	chain, err := deps.ChainConnector(cmd.Context(), appCfg.Chain, cfg.Logger)
	if err != nil {
		return err
	}

	out, err := deployment.DeployContracts(cmd.Context(), chain, deployment.DeployInput{
		DonorRegistry:   registry,
		DonationRecords: records,
		Version:         version,
	}, cfg.Logger)
	if err != nil {
		return err
	}

	cmd.Printf("DonorRegistry deployed to: %s\n", out.DonorRegistry.Hex())
	cmd.Printf("DonationRecords deployed to: %s\n", out.DonationRecords.Hex())

	if f.out != "" {
		book, err := deployment.ReadAddressBook(f.out)
		if errors.Is(err, fs.ErrNotExist) {
			book, err = deployment.NewMemoryAddressBook(), nil
		}
		if err != nil {
			return err
		}
		if err := book.Merge(out.AddressBook); err != nil {
			return fmt.Errorf("failed to merge into %s: %w", f.out, err)
		}
		if err := book.WriteFile(f.out); err != nil {
			return err
		}
		cmd.Printf("✅ Address book written to %s\n", f.out)
	}

	return nil
}
