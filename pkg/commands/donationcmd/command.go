package donationcmd

import (
	"errors"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/donation"
	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
	"github.com/smartcontractkit/bloodledger/pkg/commands/text"
	"github.com/smartcontractkit/bloodledger/pkg/commands/ui"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/pkg/relayclient"
	"github.com/smartcontractkit/bloodledger/wallet"
)

// Alerts shown by the record command.
const (
	AlertMissingFields = "Please fill all fields."
	AlertRecorded      = "Donation recorded successfully!"
	AlertFailed        = "Failed to record donation."
)

// ErrMissingFields is returned when the form is incomplete. Nothing is sent.
var ErrMissingFields = errors.New("missing required fields")

var (
	donationShort = "Donation operations"

	donationLong = text.LongDesc(`
		Commands for recording blood donations and listing the recorded donations through a
		running relay.
	`)

	recordShort = "Record a donation"

	recordLong = text.LongDesc(`
		Records a donation on the ledger through the relay and waits until it is mined. The
		donor ID is the donor's position in "bloodledger donor list". Both IDs accept decimal or
		0x prefixed hex.
	`)

	recordExample = text.Examples(`
		# Record that donor 1 gave blood unit 1001
		bloodledger donation record --donor-id 1 --date 2024-05-01 --blood-unit-id 1001
	`)

	listShort = "List the recorded donations"
)

// Config holds the configuration for donation commands.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger
	// Deps holds optional dependencies that can be overridden.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("donationcmd.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

func (c *Config) notifier(w io.Writer) wallet.Notifier {
	if c.Deps.Notifier != nil {
		return c.Deps.Notifier
	}

	return ui.NewNotifier(w)
}

// NewCommand creates a new donation command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	cmd := &cobra.Command{
		Use:   "donation",
		Short: donationShort,
		Long:  donationLong,
	}

	flags.RelayURL(cmd)
	flags.Debug(cmd)

	cmd.AddCommand(newRecordCmd(cfg))
	cmd.AddCommand(newListCmd(cfg))

	return cmd, nil
}

type recordFlags struct {
	relayURL    string
	debug       bool
	donorID     string
	date        string
	bloodUnitID string
}

// newRecordCmd creates the "record" subcommand.
func newRecordCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "record",
		Short:   recordShort,
		Long:    recordLong,
		Example: recordExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := recordFlags{
				relayURL:    flags.MustString(cmd.Flags().GetString("relay-url")),
				debug:       flags.MustBool(cmd.Flags().GetBool("debug")),
				donorID:     flags.MustString(cmd.Flags().GetString("donor-id")),
				date:        flags.MustString(cmd.Flags().GetString("date")),
				bloodUnitID: flags.MustString(cmd.Flags().GetString("blood-unit-id")),
			}

			return runRecord(cmd, cfg, f)
		},
	}

	cmd.Flags().StringP("donor-id", "d", "", "Donor ID")
	cmd.Flags().String("date", "", "Donation date, e.g. 2024-05-01")
	cmd.Flags().StringP("blood-unit-id", "u", "", "Blood unit ID")

	return cmd
}

// runRecord executes the record command logic.
func runRecord(cmd *cobra.Command, cfg Config, f recordFlags) error {
	deps := cfg.deps()
	notifier := cfg.notifier(cmd.ErrOrStderr())

	req := donation.RecordRequest{
		DonorID:     donation.ParseIntegerID(f.donorID),
		Date:        strings.TrimSpace(f.date),
		BloodUnitID: donation.ParseIntegerID(f.bloodUnitID),
	}
	if !req.DonorID.IsSet() || req.Date == "" || !req.BloodUnitID.IsSet() {
		notifier.Alert(AlertMissingFields)
		return ErrMissingFields
	}

	res, err := deps.ClientFactory(f.relayURL, f.debug).RecordDonation(cmd.Context(), req)
	if err != nil {
		if apiErr, ok := relayclient.AsAPIError(err); ok && apiErr.IsValidation() {
			notifier.Alert("Error: " + apiErr.Message)
		} else {
			cfg.Logger.Errorw("Error submitting donation", "err", err)
			notifier.Alert(AlertFailed)
		}

		return err
	}

	ui.Success(cmd.OutOrStdout(), AlertRecorded)
	cmd.Printf("Transaction: %s\n", res.TxHash)

	return nil
}

// newListCmd creates the "list" subcommand.
func newListCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: listShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, cfg,
				flags.MustString(cmd.Flags().GetString("relay-url")),
				flags.MustBool(cmd.Flags().GetBool("debug")),
			)
		},
	}
}

// runList prints the donations in ledger order.
func runList(cmd *cobra.Command, cfg Config, relayURL string, debug bool) error {
	deps := cfg.deps()

	donations, err := deps.ClientFactory(relayURL, debug).ListDonations(cmd.Context())
	if err != nil {
		return err
	}

	if len(donations) == 0 {
		cmd.Println("No donations recorded yet.")
		return nil
	}

	data := pterm.TableData{{"Donor ID", "Date", "Blood Unit"}}
	for _, d := range donations {
		data = append(data, []string{d.DonorID, d.Date, d.BloodUnitID})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	cmd.Println(table)

	return nil
}
