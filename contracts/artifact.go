package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is a compiled contract ready for deployment.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

// hardhatArtifact is the subset of a Hardhat compilation artifact we read.
type hardhatArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// LoadArtifact reads a Hardhat artifact, e.g.
// artifacts/contracts/DonorRegistry.sol/DonorRegistry.json.
func LoadArtifact(path string) (Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to read artifact: %w", err)
	}

	return ParseArtifact(raw)
}

// ParseArtifact decodes the JSON content of a Hardhat artifact.
func ParseArtifact(raw []byte) (Artifact, error) {
	var ha hardhatArtifact
	if err := json.Unmarshal(raw, &ha); err != nil {
		return Artifact{}, fmt.Errorf("failed to decode artifact: %w", err)
	}

	if len(ha.ABI) == 0 {
		return Artifact{}, fmt.Errorf("artifact %q has no abi", ha.ContractName)
	}

	parsed, err := abi.JSON(bytes.NewReader(ha.ABI))
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact %q has an invalid abi: %w", ha.ContractName, err)
	}

	bytecode, err := hexutil.Decode(ha.Bytecode)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact %q has invalid bytecode: %w", ha.ContractName, err)
	}
	if len(bytecode) == 0 {
		return Artifact{}, fmt.Errorf("artifact %q has no bytecode, is it an interface?", ha.ContractName)
	}

	return Artifact{
		ContractName: ha.ContractName,
		ABI:          parsed,
		Bytecode:     bytecode,
	}, nil
}

// Implements reports an error naming every method of want that the artifact lacks or declares
// with a different signature.
func (a Artifact) Implements(want abi.ABI) error {
	var errs []error
	for name, method := range want.Methods {
		got, ok := a.ABI.Methods[name]
		if !ok {
			errs = append(errs, fmt.Errorf("missing method %s", method.Sig))
			continue
		}
		if got.Sig != method.Sig {
			errs = append(errs, fmt.Errorf("method %s has signature %s", method.Sig, got.Sig))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("artifact %q does not implement the expected interface: %w",
			a.ContractName, errors.Join(errs...),
		)
	}

	return nil
}
