package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// ErrNoAccounts is returned by RequestAccounts when the keystore holds no key.
var ErrNoAccounts = errors.New("keystore holds no accounts")

// PassphraseFunc asks the operator for the passphrase of account.
type PassphraseFunc func(account string) (string, error)

// KeystoreProvider is a Provider over a go-ethereum keystore directory. An account is
// authorised while its key is unlocked.
type KeystoreProvider struct {
	ks         *keystore.KeyStore
	passphrase PassphraseFunc

	mu        sync.Mutex
	listeners []listener
	nextID    int

	events chan accounts.WalletEvent
	sub    event.Subscription
	done   chan struct{}
}

type listener struct {
	id int
	fn func([]string)
}

var _ Provider = (*KeystoreProvider)(nil)

// NewKeystoreProvider opens the keystore in dir. Keys added or removed on disk are reported to
// OnAccountsChanged listeners.
func NewKeystoreProvider(dir string, passphrase PassphraseFunc) *KeystoreProvider {
	return newKeystoreProvider(keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP), passphrase)
}

func newKeystoreProvider(ks *keystore.KeyStore, passphrase PassphraseFunc) *KeystoreProvider {
	p := &KeystoreProvider{
		ks:         ks,
		passphrase: passphrase,
		events:     make(chan accounts.WalletEvent, 16),
		done:       make(chan struct{}),
	}
	p.sub = ks.Subscribe(p.events)

	go p.loop()

	return p
}

func (p *KeystoreProvider) loop() {
	defer close(p.done)

	for {
		select {
		case ev := <-p.events:
			if ev.Kind == accounts.WalletArrived || ev.Kind == accounts.WalletDropped {
				p.emit()
			}
		case <-p.sub.Err():
			return
		}
	}
}

// Accounts returns the unlocked accounts, ordered by key file.
func (p *KeystoreProvider) Accounts(_ context.Context) ([]string, error) {
	var unlocked []string
	for _, w := range p.ks.Wallets() {
		status, err := w.Status()
		if err != nil {
			return nil, fmt.Errorf("failed to read wallet status: %w", err)
		}
		if status != "Unlocked" {
			continue
		}
		for _, acc := range w.Accounts() {
			unlocked = append(unlocked, acc.Address.Hex())
		}
	}

	return unlocked, nil
}

// RequestAccounts returns the unlocked accounts, unlocking the first key with the operator's
// passphrase when none is unlocked yet.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	unlocked, err := p.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(unlocked) > 0 {
		return unlocked, nil
	}

	all := p.ks.Accounts()
	if len(all) == 0 {
		return nil, ErrNoAccounts
	}
	if p.passphrase == nil {
		return nil, errors.New("no passphrase source configured")
	}

	acc := all[0]
	pass, err := p.passphrase(acc.Address.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	if err := p.ks.Unlock(acc, pass); err != nil {
		return nil, fmt.Errorf("failed to unlock %s: %w", acc.Address.Hex(), err)
	}
	p.emit()

	return []string{acc.Address.Hex()}, nil
}

// Lock locks the key of address, revoking its authorisation.
func (p *KeystoreProvider) Lock(address string) error {
	if err := p.ks.Lock(common.HexToAddress(address)); err != nil {
		return err
	}
	p.emit()

	return nil
}

// OnAccountsChanged implements Provider.
func (p *KeystoreProvider) OnAccountsChanged(fn func(accounts []string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners = append(p.listeners, listener{id: id, fn: fn})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.listeners = slices.DeleteFunc(p.listeners, func(l listener) bool { return l.id == id })
	}
}

// Close stops watching the keystore.
func (p *KeystoreProvider) Close() {
	p.sub.Unsubscribe()
	<-p.done
}

func (p *KeystoreProvider) emit() {
	unlocked, err := p.Accounts(context.Background())
	if err != nil {
		return
	}

	p.mu.Lock()
	listeners := slices.Clone(p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		l.fn(unlocked)
	}
}
