// Command bloodledger runs the donation relay and its operator CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/smartcontractkit/bloodledger/internal/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	// Load .env before the flags read their env defaults.
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	logCfg := config.LogConfig{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")}
	lggr, err := logCfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = lggr.Sync() }()

	root, err := newRootCommand(lggr)
	if err != nil {
		return err
	}
	root.SetArgs(args)

	return root.ExecuteContext(ctx)
}
