package provider

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransactorGenerator builds the signer used for every relayed transaction once the chain ID of
// the node is known.
type TransactorGenerator interface {
	Generate(chainID *big.Int) (*bind.TransactOpts, error)
}

// keySource yields the private key a transactor signs with.
type keySource func() (*ecdsa.PrivateKey, error)

var _ TransactorGenerator = keySource(nil)

// Generate implements TransactorGenerator.
func (src keySource) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.New("chain ID must be positive")
	}

	key, err := src()
	if err != nil {
		return nil, err
	}

	return bind.NewKeyedTransactorWithChainID(key, chainID)
}

// TransactorFromRaw signs with a hex encoded private key. Surrounding whitespace and a 0x prefix
// are ignored, since wallet exports usually carry one.
func TransactorFromRaw(privKey string) TransactorGenerator {
	return keySource(func() (*ecdsa.PrivateKey, error) {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}

		return key, nil
	})
}
