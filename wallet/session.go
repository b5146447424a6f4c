// Package wallet tracks the connection between the operator and their signing wallet.
package wallet

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// Alerts shown to the operator.
const (
	AlertNoWallet      = "No wallet is installed!"
	AlertConnectFailed = "Failed to connect wallet."
)

var (
	// ErrNoWallet is returned by Connect when the session has no Provider.
	ErrNoWallet = errors.New("no wallet installed")
	// ErrConnectInProgress is returned by Connect while another Connect is pending.
	ErrConnectInProgress = errors.New("wallet connection already in progress")
)

// Provider is the capability of a wallet.
type Provider interface {
	// Accounts returns the already authorised accounts without prompting the operator.
	Accounts(ctx context.Context) ([]string, error)
	// RequestAccounts asks the operator to authorise at least one account.
	RequestAccounts(ctx context.Context) ([]string, error)
	// OnAccountsChanged registers fn for account changes made outside the session. The
	// returned func removes the registration.
	OnAccountsChanged(fn func(accounts []string)) (unsubscribe func())
}

// Notifier shows a blocking message to the operator.
type Notifier interface {
	Alert(msg string)
}

// Status is the connection status of a Session.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a snapshot of a Session.
type State struct {
	Account     string `json:"account,omitempty"`
	IsConnected bool   `json:"isConnected"`
	Connecting  bool   `json:"connecting"`
	Status      Status `json:"status"`
}

func newState(status Status, account string) State {
	if status != Connected {
		account = ""
	}

	return State{
		Account:     account,
		IsConnected: status == Connected,
		Connecting:  status == Connecting,
		Status:      status,
	}
}

type subscriber struct {
	id int
	fn func(State)
}

// Session is the connection state machine between the operator and a Provider. It is safe for
// concurrent use. Subscribers are called outside the session lock, in registration order.
type Session struct {
	provider Provider
	notifier Notifier
	lggr     logger.Logger

	mu          sync.Mutex
	state       State
	subs        []subscriber
	nextSubID   int
	unsubscribe func()
}

// NewSession returns a disconnected session. A nil provider means no wallet is installed.
func NewSession(provider Provider, notifier Notifier, lggr logger.Logger) *Session {
	if lggr == nil {
		lggr = logger.Nop()
	}

	return &Session{
		provider: provider,
		notifier: notifier,
		lggr:     lggr.Named("wallet"),
		state:    newState(Disconnected, ""),
	}
}

// Init adopts the already authorised accounts without prompting and starts following external
// account changes. It is a no-op without a provider.
func (s *Session) Init(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}

	accounts, err := s.provider.Accounts(ctx)
	if err != nil {
		return err
	}

	if len(accounts) > 0 {
		s.transition(Connected, accounts[0])
	}

	unsubscribe := s.provider.OnAccountsChanged(s.accountsChanged)

	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	return nil
}

// Connect asks the provider for an account. Without a provider it alerts and leaves the state
// unchanged. A rejected request alerts and returns to Disconnected.
func (s *Session) Connect(ctx context.Context) error {
	if s.provider == nil {
		s.alert(AlertNoWallet)
		return ErrNoWallet
	}

	notConnecting := func(cur State) bool { return cur.Status != Connecting }
	if !s.transitionIf(notConnecting, Connecting, "") {
		return ErrConnectInProgress
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = errors.New("wallet returned no accounts")
	}
	if err != nil {
		s.lggr.Warnw("Wallet connection error", "err", err)
		s.transition(Disconnected, "")
		s.alert(AlertConnectFailed)

		return err
	}

	s.transition(Connected, accounts[0])

	return nil
}

// Disconnect forgets the account locally. The wallet keeps its authorisation.
func (s *Session) Disconnect() {
	s.transition(Disconnected, "")
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Subscribe registers fn for every state change and returns a func that removes it.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

// Close stops following external account changes.
func (s *Session) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Session) accountsChanged(accounts []string) {
	if len(accounts) == 0 {
		s.transition(Disconnected, "")
		return
	}

	s.transition(Connected, accounts[0])
}

func (s *Session) transition(status Status, account string) {
	s.transitionIf(nil, status, account)
}

// transitionIf moves to the given state when guard accepts the current one and notifies the
// subscribers when the state changed. It reports whether the guard passed.
func (s *Session) transitionIf(guard func(State) bool, status Status, account string) bool {
	next := newState(status, account)

	s.mu.Lock()
	if guard != nil && !guard(s.state) {
		s.mu.Unlock()
		return false
	}
	if s.state == next {
		s.mu.Unlock()
		return true
	}
	s.state = next

	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	s.lggr.Debugw("Wallet state changed", "status", next.Status.String(), "account", next.Account)

	for _, sub := range subs {
		sub.fn(next)
	}

	return true
}

func (s *Session) alert(msg string) {
	if s.notifier != nil {
		s.notifier.Alert(msg)
	}
}

// ShortAddress abbreviates an address for display, e.g. 0x1234...abcd.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}

	return addr[:6] + "..." + addr[len(addr)-4:]
}
