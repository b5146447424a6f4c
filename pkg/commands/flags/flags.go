// Package flags provides reusable flag helpers for CLI commands.
//
// This package only holds flags shared by several commands so they keep one name and one
// behaviour across the CLI. Command specific flags are defined next to their command.
package flags

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// DefaultRelayURL is the relay address used when neither --relay-url nor BLOODLEDGER_RELAY_URL
// is set.
const DefaultRelayURL = "http://localhost:8080"

// RelayURLEnv overrides the default of --relay-url.
const RelayURLEnv = "BLOODLEDGER_RELAY_URL"

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
// Safe to use with registered flags where GetBool cannot fail.
func MustBool(b bool, _ error) bool { return b }

// Config adds the persistent --config/-c flag to a root command.
// Read it from any subcommand with ConfigPath.
func Config(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (optional, env vars always apply)")
}

// ConfigPath returns the value of the --config flag, which may be inherited from a parent.
func ConfigPath(cmd *cobra.Command) string {
	f := cmd.Flag("config")
	if f == nil {
		return ""
	}

	return f.Value.String()
}

// RelayURL adds the persistent --relay-url flag used by the commands that talk to a running
// relay.
//
// Usage:
//
//	flags.RelayURL(cmd)
//	// later in RunE:
//	url := flags.MustString(cmd.Flags().GetString("relay-url"))
func RelayURL(cmd *cobra.Command) {
	def := os.Getenv(RelayURLEnv)
	if def == "" {
		def = DefaultRelayURL
	}

	cmd.PersistentFlags().String("relay-url", def, "Base URL of the relay API (env "+RelayURLEnv+")")
}

// Debug adds the persistent --debug flag that logs every relay request and response.
// Retrieve the value with cmd.Flags().GetBool("debug").
func Debug(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("debug", false, "Log relay requests and responses")
}

// Keystore adds the --keystore flag pointing at a go-ethereum keystore directory.
func Keystore(cmd *cobra.Command) {
	cmd.Flags().String("keystore", "keystore", "Keystore directory holding the wallet keys")
}

// Output adds the --out/-o flag for specifying output file path.
// Also supports deprecated --outputPath alias for backwards compatibility.
// Retrieve the value with cmd.Flags().GetString("out").
func Output(cmd *cobra.Command, defaultValue string) {
	cmd.Flags().StringP("out", "o", defaultValue, "Output file path")

	// Normalize --outputPath to --out (silent)
	existingNormalize := cmd.Flags().GetNormalizeFunc()
	cmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "outputPath" {
			return pflag.NormalizedName("out")
		}
		if existingNormalize != nil {
			return existingNormalize(f, name)
		}

		return pflag.NormalizedName(name)
	})
}
