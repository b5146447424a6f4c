// Package contracts holds the ABIs of the two ledger contracts and binds them to a backend.
package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Contract type names, as recorded in the address book.
const (
	DonorRegistryType   = "DonorRegistry"
	DonationRecordsType = "DonationRecords"
)

// Method names of the ledger contracts.
const (
	MethodRegisterDonor = "registerDonor"
	MethodGetAllDonors  = "getAllDonors"
	MethodAddDonation   = "addDonation"
	MethodGetDonations  = "getDonations"
)

const donorRegistryABIJSON = `[
	{
		"inputs": [
			{"internalType": "string", "name": "_name", "type": "string"},
			{"internalType": "string", "name": "_bloodType", "type": "string"}
		],
		"name": "registerDonor",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getAllDonors",
		"outputs": [
			{
				"components": [
					{"internalType": "string", "name": "name", "type": "string"},
					{"internalType": "string", "name": "bloodType", "type": "string"}
				],
				"internalType": "struct DonorRegistry.Donor[]",
				"name": "",
				"type": "tuple[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

const donationRecordsABIJSON = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "_donorId", "type": "uint256"},
			{"internalType": "string", "name": "_date", "type": "string"},
			{"internalType": "uint256", "name": "_bloodUnitId", "type": "uint256"}
		],
		"name": "addDonation",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getDonations",
		"outputs": [
			{
				"components": [
					{"internalType": "uint256", "name": "donorId", "type": "uint256"},
					{"internalType": "string", "name": "date", "type": "string"},
					{"internalType": "uint256", "name": "bloodUnitId", "type": "uint256"}
				],
				"internalType": "struct DonationRecords.Donation[]",
				"name": "",
				"type": "tuple[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

var (
	// DonorRegistryABI is the parsed interface of the DonorRegistry contract.
	DonorRegistryABI = mustParseABI(donorRegistryABIJSON)
	// DonationRecordsABI is the parsed interface of the DonationRecords contract.
	DonationRecordsABI = mustParseABI(donationRecordsABIJSON)
)

func mustParseABI(abiJSON string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic("failed to parse ABI: " + err.Error())
	}

	return parsed
}

// Donor is a DonorRegistry record. Field order matches the on-chain struct.
type Donor struct {
	Name      string
	BloodType string
}

// Donation is a DonationRecords record. Field order matches the on-chain struct.
type Donation struct {
	DonorId     *big.Int //nolint:revive // matches the on-chain field name
	Date        string
	BloodUnitId *big.Int //nolint:revive // matches the on-chain field name
}

// BindDonorRegistry binds the DonorRegistry interface to the contract at address.
func BindDonorRegistry(address common.Address, backend bind.ContractBackend) *bind.BoundContract {
	return bind.NewBoundContract(address, DonorRegistryABI, backend, backend, backend)
}

// BindDonationRecords binds the DonationRecords interface to the contract at address.
func BindDonationRecords(address common.Address, backend bind.ContractBackend) *bind.BoundContract {
	return bind.NewBoundContract(address, DonationRecordsABI, backend, backend, backend)
}
