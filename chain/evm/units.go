package evm

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// etherDecimals is the number of decimal places between wei and the chain's native unit.
const etherDecimals = 18

var weiPerEther = big.NewInt(params.Ether)

// ParseEther converts a decimal amount of the native unit (e.g. "0.005") to wei. Amounts with
// more than 18 decimal places are rejected rather than truncated.
func ParseEther(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.New("amount is empty")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("amount %q must not be negative", amount)
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, etherDecimals)
	}

	digits := whole + frac + strings.Repeat("0", etherDecimals-len(frac))
	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a decimal number", amount)
	}

	return wei, nil
}

// FormatEther renders wei as a decimal amount of the native unit, keeping at least one
// fractional digit ("1.0", "0.005").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}

	sign := ""
	abs := new(big.Int).Set(wei)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}

	whole, rem := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))
	digits := rem.String()
	frac := strings.TrimRight(strings.Repeat("0", etherDecimals-len(digits))+digits, "0")
	if frac == "" {
		frac = "0"
	}

	return sign + whole.String() + "." + frac
}
