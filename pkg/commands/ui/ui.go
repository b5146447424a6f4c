// Package ui renders operator facing messages and prompts with pterm.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/smartcontractkit/bloodledger/wallet"
)

// Notifier shows alerts as pterm warnings on w. It satisfies wallet.Notifier.
type Notifier struct {
	w io.Writer
}

var _ wallet.Notifier = (*Notifier)(nil)

// NewNotifier returns a Notifier writing to w.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

// Alert implements wallet.Notifier.
func (n *Notifier) Alert(msg string) {
	fmt.Fprintln(n.w, strings.TrimRight(pterm.Warning.Sprint(msg), "\n"))
}

// Success prints msg as a pterm success line on w.
func Success(w io.Writer, msg string) {
	fmt.Fprintln(w, strings.TrimRight(pterm.Success.Sprint(msg), "\n"))
}

// PassphrasePrompt asks for a keystore passphrase on the terminal, masking the input.
func PassphrasePrompt() wallet.PassphraseFunc {
	return func(account string) (string, error) {
		pass, err := pterm.DefaultInteractiveTextInput.
			WithMask("*").
			WithDefaultText("Passphrase for " + wallet.ShortAddress(account)).
			Show()
		if err != nil {
			return "", fmt.Errorf("passphrase prompt failed: %w", err)
		}

		return pass, nil
	}
}

// OpenKeystore opens the keystore wallet in dir, prompting for passphrases on the terminal.
// The returned func stops watching the keystore.
func OpenKeystore(dir string) (wallet.Provider, func(), error) {
	p := wallet.NewKeystoreProvider(dir, PassphrasePrompt())

	return p, p.Close, nil
}

// RecordingNotifier collects alerts instead of printing them.
type RecordingNotifier struct {
	Alerts []string
}

// Alert implements wallet.Notifier.
func (n *RecordingNotifier) Alert(msg string) {
	n.Alerts = append(n.Alerts, msg)
}
