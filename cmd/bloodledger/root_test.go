package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

func TestNewRootCommand(t *testing.T) {
	t.Parallel()

	root, err := newRootCommand(logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "bloodledger", root.Use)
	require.NotNil(t, root.PersistentFlags().Lookup("config"))

	for _, path := range [][]string{
		{"serve"},
		{"deploy"},
		{"donor", "register"},
		{"donor", "list"},
		{"donation", "record"},
		{"donation", "list"},
		{"dashboard"},
		{"wallet", "status"},
		{"wallet", "connect"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestNewRootCommand_Help(t *testing.T) {
	t.Parallel()

	root, err := newRootCommand(logger.Nop())
	require.NoError(t, err)

	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "DonorRegistry")
	assert.Contains(t, out.String(), "dashboard")
}

func TestRun_ServeFailsWithoutChainSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, env := range []string{"CHAIN_RPC_URL", "ALCHEMY_SEPOLIA_URL", "CHAIN_DEPLOYER_KEY", "PRIVATE_KEY"} {
		t.Setenv(env, "")
	}

	err := run(t.Context(), []string{"serve"})
	require.ErrorContains(t, err, "CHAIN_RPC_URL")
}
