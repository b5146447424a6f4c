package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

const (
	// Default retry configuration for dialing the RPC endpoint. A single attempt means a failed
	// dial is reported immediately.
	RPCDefaultDialRetryAttempts = 1
	RPCDefaultDialRetryDelay    = 1000 * time.Millisecond
	RPCDefaultDialTimeout       = 10 * time.Second

	// Default timeout for health checks
	RPCDefaultHealthCheckTimeout = 2 * time.Second
)

// RPC is a single JSON-RPC endpoint.
type RPC struct {
	// Name is a human readable label used in logs. The URL is never logged because hosted
	// providers embed API keys in it.
	Name string
	URL  string
}

// DialConfig controls how NewRPCClient dials the endpoint.
type DialConfig struct {
	Attempts uint
	Delay    time.Duration
	Timeout  time.Duration
}

func defaultDialConfig() DialConfig {
	return DialConfig{
		Attempts: RPCDefaultDialRetryAttempts,
		Delay:    RPCDefaultDialRetryDelay,
		Timeout:  RPCDefaultDialTimeout,
	}
}

// WithDialAttempts overrides the number of dial attempts. Values below 1 are ignored.
func WithDialAttempts(attempts uint) func(*DialConfig) {
	return func(c *DialConfig) {
		if attempts > 0 {
			c.Attempts = attempts
		}
	}
}

// WithDialDelay overrides the delay between dial attempts.
func WithDialDelay(delay time.Duration) func(*DialConfig) {
	return func(c *DialConfig) {
		c.Delay = delay
	}
}

// NewRPCClient dials the RPC endpoint and verifies it answers eth_blockNumber before returning
// the client. The returned client is safe for concurrent use.
func NewRPCClient(
	ctx context.Context, lggr logger.Logger, rpc RPC, opts ...func(*DialConfig),
) (*ethclient.Client, error) {
	if rpc.URL == "" {
		return nil, errors.New("rpc url is required")
	}

	cfg := defaultDialConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := retry.DoWithData(func() (*ethclient.Client, error) {
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		c, err := ethclient.DialContext(dialCtx, rpc.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to dial rpc '%s': %w", rpc.Name, err)
		}

		if err := healthCheck(ctx, c); err != nil {
			c.Close()
			return nil, fmt.Errorf("rpc '%s': %w", rpc.Name, err)
		}

		return c, nil
	},
		retry.Context(ctx),
		retry.Attempts(cfg.Attempts),
		retry.Delay(cfg.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			lggr.Warnw("Retrying rpc dial", "rpc", rpc.Name, "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// healthCheck performs a basic health check on the RPC client by calling eth_blockNumber
func healthCheck(ctx context.Context, client *ethclient.Client) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, RPCDefaultHealthCheckTimeout)
	defer cancel()

	if _, err := client.BlockNumber(timeoutCtx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	return nil
}
