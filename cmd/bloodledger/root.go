package main

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/bloodledger/pkg/commands"
	"github.com/smartcontractkit/bloodledger/pkg/commands/flags"
	"github.com/smartcontractkit/bloodledger/pkg/commands/text"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

var rootLong = text.LongDesc(`
	bloodledger relays blood donor registrations and donation records to the DonorRegistry and
	DonationRecords contracts, and reads them back.

	Settings come from an optional config file (--config) and the environment, including a
	.env file in the working directory.
`)

// newRootCommand builds the bloodledger command tree.
func newRootCommand(lggr logger.Logger) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "bloodledger",
		Short:         "Blood donation ledger relay",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.Config(root)

	all, err := commands.New(lggr).All()
	if err != nil {
		return nil, err
	}
	root.AddCommand(all...)

	return root, nil
}
