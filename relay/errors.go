package relay

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/smartcontractkit/bloodledger/chain/evm"
)

var (
	// ErrValidation is matched by every error caused by a malformed or incomplete payload.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientFunds is matched by *InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTransport is matched by every error returned by the ledger RPC or the contract,
	// including reverted transactions.
	ErrTransport = errors.New("relay failed")
)

// ValidationError describes a rejected payload. It matches ErrValidation.
type ValidationError struct {
	Msg string
}

// Invalid returns a *ValidationError with a formatted message.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientFundsError is returned when the signing account cannot cover the minimum fee.
// Balance and Required are in wei.
type InsufficientFundsError struct {
	Balance  *big.Int
	Required *big.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, required %s",
		evm.FormatEther(e.Balance), evm.FormatEther(e.Required),
	)
}

// Is reports whether target is ErrInsufficientFunds.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

func transportError(method string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
}
