// Package relaytest provides an in-memory ledger that stands in for the two deployed contracts
// in tests.
package relaytest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/contracts"
	"github.com/smartcontractkit/bloodledger/relay"
)

// Ledger keeps donors and donations in memory and counts every transaction it accepts.
type Ledger struct {
	mu        sync.Mutex
	donors    []contracts.Donor
	donations []contracts.Donation
	pending   map[common.Hash]func()
	sent      []string
	block     uint64

	// TransactErr, when set, fails every Transact call.
	TransactErr error
	// CallErr, when set, fails every Call.
	CallErr error
	// RevertReason, when set, makes Confirm fail as a reverted transaction.
	RevertReason string
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{pending: make(map[common.Hash]func())}
}

// DonorRegistry returns a relay.Contract view of the ledger speaking the DonorRegistry ABI.
func (l *Ledger) DonorRegistry() relay.Contract {
	return &contract{ledger: l, abi: contracts.DonorRegistryABI}
}

// DonationRecords returns a relay.Contract view of the ledger speaking the DonationRecords ABI.
func (l *Ledger) DonationRecords() relay.Contract {
	return &contract{ledger: l, abi: contracts.DonationRecordsABI}
}

// Confirm mines a pending transaction. Transactions only take effect once confirmed.
func (l *Ledger) Confirm(_ context.Context, tx *types.Transaction) (uint64, error) {
	if tx == nil {
		return 0, errors.New("tx was nil")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	apply, ok := l.pending[tx.Hash()]
	if !ok {
		return 0, fmt.Errorf("unknown tx %s", tx.Hash().Hex())
	}
	delete(l.pending, tx.Hash())

	l.block++
	if l.RevertReason != "" {
		return 0, fmt.Errorf("tx %s reverted: %s", tx.Hash().Hex(), l.RevertReason)
	}

	apply()

	return l.block, nil
}

// SetDonors replaces the donor list.
func (l *Ledger) SetDonors(donors ...contracts.Donor) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.donors = append([]contracts.Donor(nil), donors...)
}

// Donors returns a copy of the donor list.
func (l *Ledger) Donors() []contracts.Donor {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]contracts.Donor(nil), l.donors...)
}

// Donations returns a copy of the donation list.
func (l *Ledger) Donations() []contracts.Donation {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]contracts.Donation(nil), l.donations...)
}

// Sent returns the method names of every transaction accepted so far, confirmed or not.
func (l *Ledger) Sent() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.sent...)
}

type contract struct {
	ledger *Ledger
	abi    abi.ABI
}

func (c *contract) Call(_ *bind.CallOpts, results *[]any, method string, _ ...any) error {
	l := c.ledger

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.CallErr != nil {
		return l.CallErr
	}
	if _, ok := c.abi.Methods[method]; !ok {
		return fmt.Errorf("method '%s' not found", method)
	}
	if results == nil || len(*results) != 1 {
		return errors.New("expected exactly one result destination")
	}

	var value any
	switch method {
	case contracts.MethodGetAllDonors:
		value = append([]contracts.Donor{}, l.donors...)
	case contracts.MethodGetDonations:
		value = append([]contracts.Donation{}, l.donations...)
	default:
		return fmt.Errorf("method '%s' is not a read method", method)
	}

	dst := reflect.ValueOf((*results)[0])
	if dst.Kind() != reflect.Pointer || dst.Elem().Type() != reflect.TypeOf(value) {
		return fmt.Errorf("cannot unpack %T into %T", value, (*results)[0])
	}
	dst.Elem().Set(reflect.ValueOf(value))

	return nil
}

func (c *contract) Transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error) {
	l := c.ledger

	// Packing checks the argument count and types against the ABI.
	data, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, err
	}

	var apply func()
	switch method {
	case contracts.MethodRegisterDonor:
		donor := contracts.Donor{Name: params[0].(string), BloodType: params[1].(string)}
		apply = func() { l.donors = append(l.donors, donor) }
	case contracts.MethodAddDonation:
		donation := contracts.Donation{
			DonorId:     new(big.Int).Set(params[0].(*big.Int)),
			Date:        params[1].(string),
			BloodUnitId: new(big.Int).Set(params[2].(*big.Int)),
		}
		apply = func() { l.donations = append(l.donations, donation) }
	default:
		return nil, fmt.Errorf("method '%s' is not a write method", method)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.TransactErr != nil {
		return nil, l.TransactErr
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(len(l.sent)),
		To:       &common.Address{},
		Gas:      100_000,
		GasPrice: big.NewInt(1),
		Data:     data,
	})
	if opts != nil && opts.Signer != nil {
		signed, err := opts.Signer(opts.From, tx)
		if err != nil {
			return nil, err
		}
		tx = signed
	}

	l.pending[tx.Hash()] = apply
	l.sent = append(l.sent, method)

	return tx, nil
}

// Balance is a relay.BalanceReader reporting a fixed balance for every account.
type Balance struct {
	Wei *big.Int
	Err error
}

// BalanceAt implements relay.BalanceReader.
func (b Balance) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	if b.Err != nil {
		return nil, b.Err
	}

	return new(big.Int).Set(b.Wei), nil
}

// Ether returns amount native units in wei. It panics on malformed input.
func Ether(amount string) *big.Int {
	wei, err := evm.ParseEther(amount)
	if err != nil {
		panic(err)
	}

	return wei
}
