package relay_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/chain/evm"
)

// answerInitCode deploys runtime code that returns the word 42 for every call.
const answerInitCode = "0x600a600c600039600a6000f3602a60005260206000f3"

func deployAnswerContract(
	t *testing.T, deployer *bind.TransactOpts, client evm.OnchainClient, confirm evm.ConfirmFunc,
) common.Address {
	t.Helper()

	addr, tx, _, err := bind.DeployContract(deployer, abi.ABI{}, hexutil.MustDecode(answerInitCode), client)
	require.NoError(t, err)

	_, err = confirm(t.Context(), tx)
	require.NoError(t, err)

	return addr
}
