package deployment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/contracts"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// DefaultVersion is recorded for contracts deployed without an explicit version.
var DefaultVersion = semver.MustParse("1.0.0")

// DeployInput holds the compiled contracts to publish.
type DeployInput struct {
	DonorRegistry   contracts.Artifact
	DonationRecords contracts.Artifact
	// Optional: Version recorded in the address book. Defaults to DefaultVersion.
	Version *semver.Version
}

// DeployOutput holds the addresses of the published contracts.
type DeployOutput struct {
	DonorRegistry   common.Address
	DonationRecords common.Address
	AddressBook     *AddressBookMap
}

type pendingDeploy struct {
	typ     ContractType
	address common.Address
	tx      *types.Transaction
}

// DeployContracts publishes DonorRegistry then DonationRecords from the chain's deployer key.
// Both transactions are sent before either confirmation is awaited. The addresses are recorded
// in a new address book under the chain ID.
func DeployContracts(ctx context.Context, chain evm.Chain, in DeployInput, lggr logger.Logger) (DeployOutput, error) {
	lggr = lggr.Named("deploy")

	if chain.DeployerKey == nil || chain.Client == nil || chain.Confirm == nil {
		return DeployOutput{}, errors.New("chain is not initialized")
	}
	if err := in.DonorRegistry.Implements(contracts.DonorRegistryABI); err != nil {
		return DeployOutput{}, err
	}
	if err := in.DonationRecords.Implements(contracts.DonationRecordsABI); err != nil {
		return DeployOutput{}, err
	}

	version := DefaultVersion
	if in.Version != nil {
		version = in.Version
	}

	opts := *chain.DeployerKey
	opts.Context = ctx

	var pending []pendingDeploy
	for _, d := range []struct {
		typ      ContractType
		artifact contracts.Artifact
	}{
		{ContractType(contracts.DonorRegistryType), in.DonorRegistry},
		{ContractType(contracts.DonationRecordsType), in.DonationRecords},
	} {
		address, tx, _, err := bind.DeployContract(&opts, d.artifact.ABI, d.artifact.Bytecode, chain.Client)
		if err != nil {
			return DeployOutput{}, fmt.Errorf("failed to deploy %s: %w", d.typ, err)
		}
		lggr.Infow("Deployment sent", "contract", d.typ, "address", address.Hex(), "txHash", tx.Hash().Hex())

		pending = append(pending, pendingDeploy{typ: d.typ, address: address, tx: tx})
	}

	ab := NewMemoryAddressBook()
	for _, p := range pending {
		block, err := chain.Confirm(ctx, p.tx)
		if err != nil {
			return DeployOutput{}, fmt.Errorf("failed to confirm %s deployment %s: %w", p.typ, p.tx.Hash().Hex(), err)
		}
		lggr.Infow("Deployment confirmed", "contract", p.typ, "address", p.address.Hex(), "block", block)

		if err := ab.Save(chain.ChainID, p.address.Hex(), NewTypeAndVersion(p.typ, *version)); err != nil {
			return DeployOutput{}, fmt.Errorf("failed to record %s: %w", p.typ, err)
		}
	}

	return DeployOutput{
		DonorRegistry:   pending[0].address,
		DonationRecords: pending[1].address,
		AddressBook:     ab,
	}, nil
}
