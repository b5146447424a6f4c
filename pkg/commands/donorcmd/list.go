package donorcmd

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
)

var listShort = "List the registered donors"

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

// runList prints the donors in ledger order. Donor IDs are 1-based positions.
func runList(cmd *cobra.Command, cfg Config, relayURL string, debug bool) error {
	deps := cfg.deps()

	donors, err := deps.ClientFactory(relayURL, debug).ListDonors(cmd.Context())
	if err != nil {
		return err
	}

	if len(donors) == 0 {
		cmd.Println("No donors registered yet.")
		return nil
	}

	data := pterm.TableData{{"ID", "Name", "Blood Type"}}
	for i, d := range donors {
		data = append(data, []string{strconv.Itoa(i + 1), d.Name, d.BloodType})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	cmd.Println(table)

	return nil
}
