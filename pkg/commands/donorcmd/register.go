package donorcmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
	"github.com/smartcontractkit/bloodledger/pkg/commands/text"
	"github.com/smartcontractkit/bloodledger/pkg/commands/ui"
	"github.com/smartcontractkit/bloodledger/pkg/relayclient"
	"github.com/smartcontractkit/bloodledger/wallet"
)

// Alerts shown by the register command.
const (
	AlertMissingFields  = "All fields are required!"
	AlertConnectFirst   = "Please connect your wallet first."
	AlertRegistered     = "Donor registered successfully!"
	AlertSomethingWrong = "Something went wrong. Check the logs."
)

// ErrMissingFields is returned when the form is incomplete. Nothing is sent.
var ErrMissingFields = errors.New("missing required fields")

var (
	registerShort = "Register a donor"

	registerLong = text.LongDesc(`
		Registers a donor on the ledger through the relay. The wallet in the keystore is
		connected first, prompting for its passphrase, and its address is sent along with the
		donor. The command waits until the registration is mined.
	`)

	registerExample = text.Examples(`
		# Register a donor with the key in ./keystore
		bloodledger donor register --name "Ada Lovelace" --blood-type O-

		# Against a remote relay
		bloodledger donor register --name Ada --blood-type A+ --relay-url https://relay.example.com
	`)
)

type registerFlags struct {
	relayURL  string
	debug     bool
	keystore  string
	name      string
	bloodType string
}

// newRegisterCmd creates the "register" subcommand.
func newRegisterCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "register",
		Short:   registerShort,
		Long:    registerLong,
		Example: registerExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := registerFlags{
				relayURL:  flags.MustString(cmd.Flags().GetString("relay-url")),
				debug:     flags.MustBool(cmd.Flags().GetBool("debug")),
				keystore:  flags.MustString(cmd.Flags().GetString("keystore")),
				name:      flags.MustString(cmd.Flags().GetString("name")),
				bloodType: flags.MustString(cmd.Flags().GetString("blood-type")),
			}

			return runRegister(cmd, cfg, f)
		},
	}

	flags.Keystore(cmd)

	cmd.Flags().StringP("name", "n", "", "Donor name")
	cmd.Flags().StringP("blood-type", "b", "", "Blood type, one of "+bloodTypeList())

	return cmd
}

// runRegister executes the register command logic.
func runRegister(cmd *cobra.Command, cfg Config, f registerFlags) error {
	deps := cfg.deps()
	notifier := cfg.notifier(cmd)

	if strings.TrimSpace(f.name) == "" || strings.TrimSpace(f.bloodType) == "" {
		notifier.Alert(AlertMissingFields)
		return ErrMissingFields
	}

	provider, release, err := deps.WalletOpener(f.keystore)
	if err != nil {
		return fmt.Errorf("failed to open wallet: %w", err)
	}
	defer release()

	session := wallet.NewSession(provider, notifier, cfg.Logger)
	defer session.Close()

	if err := session.Init(cmd.Context()); err != nil {
		return fmt.Errorf("failed to read wallet accounts: %w", err)
	}
	if !session.State().IsConnected {
		if err := session.Connect(cmd.Context()); err != nil {
			return fmt.Errorf("wallet not connected: %w", err)
		}
	}

	account := session.State().Account
	if account == "" {
		notifier.Alert(AlertConnectFirst)
		return wallet.ErrNoWallet
	}

	res, err := deps.ClientFactory(f.relayURL, f.debug).RegisterDonor(cmd.Context(), donor.RegisterRequest{
		Name:          strings.TrimSpace(f.name),
		BloodType:     strings.TrimSpace(f.bloodType),
		WalletAddress: account,
	})
	if err != nil {
		if apiErr, ok := relayclient.AsAPIError(err); ok && apiErr.IsValidation() {
			notifier.Alert("Error: " + apiErr.Message)
		} else {
			cfg.Logger.Errorw("Error registering donor", "err", err)
			notifier.Alert(AlertSomethingWrong)
		}

		return err
	}

	ui.Success(cmd.OutOrStdout(), AlertRegistered)
	cmd.Printf("Wallet: %s\nTransaction: %s\n", wallet.ShortAddress(account), res.TxHash)

	return nil
}

func bloodTypeList() string {
	types := donor.BloodTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}

	return strings.Join(names, ", ")
}
