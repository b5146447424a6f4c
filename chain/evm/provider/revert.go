package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// ContractCaller is the subset of the node client needed to replay a transaction.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// revertReason replays a reverted transaction as a call at the block it was mined in and
// returns the reason the node reports. Without revert data the call error message is returned.
func revertReason(
	ctx context.Context, caller ContractCaller, from common.Address, tx *types.Transaction, receipt *types.Receipt,
) (string, error) {
	_, callErr := caller.CallContract(ctx, ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Data:     tx.Data(),
		Value:    tx.Value(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	}, receipt.BlockNumber)
	if callErr == nil {
		return "", fmt.Errorf("tx %s reverted with no reason", tx.Hash().Hex())
	}

	data, err := revertData(callErr)
	if err != nil {
		return callErr.Error(), nil
	}

	return decodeRevertData(data), nil
}

// revertData extracts the hex encoded data attached to a JSON-RPC error.
func revertData(err error) (string, error) {
	if err == nil {
		return "", errors.New("cannot parse nil error")
	}

	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", fmt.Errorf("error carries no rpc data: %w", err)
	}
	if strings.Contains(dataErr.Error(), "missing trie node") {
		return "", errors.New("missing trie node, likely due to not using an archive node")
	}
	if dataErr.ErrorData() == nil {
		return "", errors.New("rpc error carries no data")
	}

	return fmt.Sprint(dataErr.ErrorData()), nil
}

// decodeRevertData decodes an Error(string) or Panic(uint256) payload. Anything else, such as a
// custom error, is returned unchanged.
func decodeRevertData(data string) string {
	raw, err := hexutil.Decode(data)
	if err != nil {
		return data
	}

	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return data
	}

	return reason
}
