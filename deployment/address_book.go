package deployment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/ethereum/go-ethereum/common"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidChainID = errors.New("invalid chain ID")
	ErrInvalidAddress = errors.New("invalid address")
	ErrChainNotFound  = errors.New("chain not found")
	ErrNotFound       = errors.New("contract not found")
)

// ContractType is a simple string type for identifying contract types.
type ContractType string

func (ct ContractType) String() string {
	return string(ct)
}

type TypeAndVersion struct {
	Type    ContractType   `json:"Type"`
	Version semver.Version `json:"Version"`
}

func (tv TypeAndVersion) String() string {
	return fmt.Sprintf("%s %s", tv.Type, tv.Version.String())
}

func NewTypeAndVersion(t ContractType, v semver.Version) TypeAndVersion {
	return TypeAndVersion{Type: t, Version: v}
}

// AddressBook stores deployed contract addresses per EVM chain ID. Addresses are always stored
// in EIP55 format and every read returns results in sorted order.
type AddressBook interface {
	Save(chainID uint64, address string, tv TypeAndVersion) error
	Addresses() (map[uint64]map[string]TypeAndVersion, error)
	AddressesForChain(chainID uint64) (map[string]TypeAndVersion, error)
	// Allows for merging address books (e.g. new deployments with existing ones)
	Merge(other AddressBook) error
}

type AddressBookMap struct {
	// TreeMap keeps chains and addresses sorted
	addressesByChain *treemap.Map // map[uint64]*treemap.Map[string]TypeAndVersion
	mtx              sync.RWMutex
}

// NewMemoryAddressBook returns an empty AddressBookMap.
func NewMemoryAddressBook() *AddressBookMap {
	return &AddressBookMap{
		addressesByChain: treemap.NewWith(utils.UInt64Comparator),
	}
}

// save stores an address for a chain. It errors if the address is already recorded.
func (m *AddressBookMap) save(chainID uint64, address string, tv TypeAndVersion) error {
	if chainID == 0 {
		return fmt.Errorf("chain ID 0: %w", ErrInvalidChainID)
	}
	if !common.IsHexAddress(address) {
		return fmt.Errorf("address %q is not a valid Ethereum address: %w", address, ErrInvalidAddress)
	}
	addr := common.HexToAddress(address)
	if addr == (common.Address{}) {
		return fmt.Errorf("address cannot be empty: %w", ErrInvalidAddress)
	}
	// Always standardize to EIP55
	address = addr.Hex()

	if tv.Type == "" {
		return errors.New("type cannot be empty")
	}

	chainAddresses, exists := m.addressesByChain.Get(chainID)
	if !exists {
		chainAddresses = treemap.NewWithStringComparator()
		m.addressesByChain.Put(chainID, chainAddresses)
	}

	chainMap := chainAddresses.(*treemap.Map)
	if _, exists := chainMap.Get(address); exists {
		return fmt.Errorf("address %s already exists for chain %d", address, chainID)
	}
	chainMap.Put(address, tv)

	return nil
}

// Save stores an address for a chain. It errors if the address is already recorded.
func (m *AddressBookMap) Save(chainID uint64, address string, tv TypeAndVersion) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.save(chainID, address, tv)
}

func (m *AddressBookMap) Addresses() (map[uint64]map[string]TypeAndVersion, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	result := make(map[uint64]map[string]TypeAndVersion)

	it := m.addressesByChain.Iterator()
	for it.Next() {
		result[it.Key().(uint64)] = toMap(it.Value().(*treemap.Map))
	}

	return result, nil
}

func (m *AddressBookMap) AddressesForChain(chainID uint64) (map[string]TypeAndVersion, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	chainAddresses, exists := m.addressesByChain.Get(chainID)
	if !exists {
		return nil, fmt.Errorf("chain ID %d: %w", chainID, ErrChainNotFound)
	}

	return toMap(chainAddresses.(*treemap.Map)), nil
}

// Merge copies the addresses of ab into m. An address already present in m is reported before
// anything is copied.
func (m *AddressBookMap) Merge(ab AddressBook) error {
	addresses, err := ab.Addresses()
	if err != nil {
		return err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	for chainID, chainAddresses := range addresses {
		existing, ok := m.addressesByChain.Get(chainID)
		if !ok {
			continue
		}
		for address := range chainAddresses {
			if _, dup := existing.(*treemap.Map).Get(common.HexToAddress(address).Hex()); dup {
				return fmt.Errorf("address %s already exists for chain %d", address, chainID)
			}
		}
	}

	for chainID, chainAddresses := range addresses {
		for address, tv := range chainAddresses {
			if err := m.save(chainID, address, tv); err != nil {
				return err
			}
		}
	}

	return nil
}

// Search returns the first address on the chain recorded with the given type.
func (m *AddressBookMap) Search(chainID uint64, typ ContractType) (common.Address, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	chainAddresses, exists := m.addressesByChain.Get(chainID)
	if !exists {
		return common.Address{}, fmt.Errorf("chain ID %d: %w", chainID, ErrChainNotFound)
	}

	it := chainAddresses.(*treemap.Map).Iterator()
	for it.Next() {
		if it.Value().(TypeAndVersion).Type == typ {
			return common.HexToAddress(it.Key().(string)), nil
		}
	}

	return common.Address{}, fmt.Errorf("%s on chain %d: %w", typ, chainID, ErrNotFound)
}

func toMap(chainMap *treemap.Map) map[string]TypeAndVersion {
	result := make(map[string]TypeAndVersion, chainMap.Size())
	it := chainMap.Iterator()
	for it.Next() {
		result[it.Key().(string)] = it.Value().(TypeAndVersion)
	}

	return result
}

// Record is one exported address book entry.
type Record struct {
	ChainID   uint64 `json:"chainId" yaml:"chainId"`
	ChainName string `json:"chainName" yaml:"chainName"`
	Address   string `json:"address" yaml:"address"`
	Type      string `json:"type" yaml:"type"`
	Version   string `json:"version" yaml:"version"`
}

// Records returns every entry, sorted by chain ID then address.
func (m *AddressBookMap) Records() []Record {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	records := []Record{}
	it := m.addressesByChain.Iterator()
	for it.Next() {
		chainID := it.Key().(uint64)
		name := chainName(chainID)

		chainIt := it.Value().(*treemap.Map).Iterator()
		for chainIt.Next() {
			tv := chainIt.Value().(TypeAndVersion)
			records = append(records, Record{
				ChainID:   chainID,
				ChainName: name,
				Address:   chainIt.Key().(string),
				Type:      tv.Type.String(),
				Version:   tv.Version.String(),
			})
		}
	}

	return records
}

// NewAddressBookFromRecords rebuilds an address book from exported records.
func NewAddressBookFromRecords(records []Record) (*AddressBookMap, error) {
	ab := NewMemoryAddressBook()
	for _, r := range records {
		v, err := semver.NewVersion(r.Version)
		if err != nil {
			return nil, fmt.Errorf("record %s: invalid version %q: %w", r.Address, r.Version, err)
		}
		if err := ab.Save(r.ChainID, r.Address, NewTypeAndVersion(ContractType(r.Type), *v)); err != nil {
			return nil, err
		}
	}

	return ab, nil
}

// WriteJSON writes the records as an indented JSON array.
func (m *AddressBookMap) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(m.Records())
}

// WriteYAML writes the records as a YAML sequence.
func (m *AddressBookMap) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m.Records()); err != nil {
		return err
	}

	return enc.Close()
}

// WriteFile exports the address book to path. Files ending in .yaml or .yml are written as
// YAML, anything else as JSON.
func (m *AddressBookMap) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = m.WriteYAML(f)
	default:
		err = m.WriteJSON(f)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}

// ReadAddressBook loads an address book written by WriteFile.
func ReadAddressBook(path string) (*AddressBookMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &records)
	default:
		err = json.Unmarshal(raw, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return NewAddressBookFromRecords(records)
}

// chainName resolves the chain-selectors name of an EVM chain, or "evm-<id>" for chains it
// does not know.
func chainName(chainID uint64) string {
	details, err := chainsel.GetChainDetailsByChainIDAndFamily(strconv.FormatUint(chainID, 10), chainsel.FamilyEVM)
	if err != nil {
		return "evm-" + strconv.FormatUint(chainID, 10)
	}

	return details.ChainName
}
