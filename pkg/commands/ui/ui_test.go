package ui

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestNotifier_Alert(t *testing.T) {
	pterm.DisableColor()
	t.Cleanup(pterm.EnableColor)

	var buf bytes.Buffer
	NewNotifier(&buf).Alert("No wallet is installed!")
	Success(&buf, "Donor registered successfully!")

	out := buf.String()
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "No wallet is installed!")
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "Donor registered successfully!")
}

func TestRecordingNotifier(t *testing.T) {
	t.Parallel()

	n := &RecordingNotifier{}
	n.Alert("a")
	n.Alert("b")

	assert.Equal(t, []string{"a", "b"}, n.Alerts)
}
