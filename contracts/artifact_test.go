package contracts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDonorRegistryArtifact = `{
	"_format": "hh-sol-artifact-1",
	"contractName": "DonorRegistry",
	"sourceName": "contracts/DonorRegistry.sol",
	"abi": ` + donorRegistryABIJSON + `,
	"bytecode": "0x600a600c600039600a6000f3602a60005260206000f3",
	"deployedBytecode": "0x602a60005260206000f3"
}`

func Test_LoadArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "DonorRegistry.json")
	require.NoError(t, os.WriteFile(path, []byte(testDonorRegistryArtifact), 0o600))

	got, err := LoadArtifact(path)
	require.NoError(t, err)

	assert.Equal(t, "DonorRegistry", got.ContractName)
	assert.Len(t, got.Bytecode, 22)
	require.NoError(t, got.Implements(DonorRegistryABI))

	err = got.Implements(DonationRecordsABI)
	require.ErrorContains(t, err, "missing method addDonation(uint256,string,uint256)")

	_, err = LoadArtifact(filepath.Join(dir, "missing.json"))
	require.ErrorContains(t, err, "failed to read artifact")
}

func Test_ParseArtifact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		wantErr string
	}{
		{
			name: "valid artifact",
			give: testDonorRegistryArtifact,
		},
		{
			name:    "not json",
			give:    "nope",
			wantErr: "failed to decode artifact",
		},
		{
			name:    "no abi",
			give:    `{"contractName": "X", "bytecode": "0x00"}`,
			wantErr: `artifact "X" has no abi`,
		},
		{
			name:    "invalid abi",
			give:    `{"contractName": "X", "abi": {"bad": true}, "bytecode": "0x00"}`,
			wantErr: `artifact "X" has an invalid abi`,
		},
		{
			name:    "invalid bytecode",
			give:    `{"contractName": "X", "abi": [], "bytecode": "zz"}`,
			wantErr: `artifact "X" has invalid bytecode`,
		},
		{
			name:    "empty bytecode",
			give:    `{"contractName": "IX", "abi": [], "bytecode": "0x"}`,
			wantErr: `artifact "IX" has no bytecode`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseArtifact([]byte(tt.give))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}
