package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	lggr := logger.Nop()
	cmds := New(lggr)

	require.NotNil(t, cmds)
	assert.Equal(t, lggr, cmds.lggr)
}

func TestCommands_All(t *testing.T) {
	t.Parallel()

	all, err := New(logger.Nop()).All()
	require.NoError(t, err)

	uses := make([]string, 0, len(all))
	for _, cmd := range all {
		uses = append(uses, cmd.Use)
	}
	assert.Equal(t, []string{"serve", "deploy", "donor", "donation", "dashboard", "wallet"}, uses)
}

func TestCommands_RequireLogger(t *testing.T) {
	t.Parallel()

	_, err := New(nil).All()
	require.ErrorContains(t, err, "missing required fields: Logger")
}
