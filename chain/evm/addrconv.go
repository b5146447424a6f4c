package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress converts an EVM address string to a common.Address. The string must be a 0x
// prefixed or bare 40 character hex string. The zero address is rejected since neither a
// contract nor a donor wallet can live there.
func ParseAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid EVM address format: %q", address)
	}

	addr := common.HexToAddress(address)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("zero address is not allowed: %q", address)
	}

	return addr, nil
}
