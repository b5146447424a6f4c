// Package donor relays donor registrations to the DonorRegistry contract.
package donor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/smartcontractkit/bloodledger/chain/evm"
	"github.com/smartcontractkit/bloodledger/contracts"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/relay"
)

// RegisterRequest is the payload of a donor registration.
type RegisterRequest struct {
	Name      string `json:"name"`
	BloodType string `json:"bloodType"`
	// WalletAddress is the connected wallet of the operator. It is validated and logged but
	// the ledger only stores name and blood type.
	WalletAddress string `json:"walletAddress"`
	// DonorID is sent by older clients. It is accepted and ignored; the contract assigns ids.
	DonorID json.RawMessage `json:"donorId,omitempty"`
}

// Donor is a registered donor as listed by the ledger.
type Donor struct {
	Name      string `json:"name"`
	BloodType string `json:"bloodType"`
}

// Registry relays registrations and reads the donor list.
type Registry struct {
	relay *relay.Relay
	lggr  logger.Logger
}

// NewRegistry returns a Registry writing through r, which must be bound to a DonorRegistry.
func NewRegistry(r *relay.Relay, lggr logger.Logger) *Registry {
	if lggr == nil {
		lggr = logger.Nop()
	}

	return &Registry{
		relay: r,
		lggr:  lggr.Named("donor"),
	}
}

var registerDonor = relay.Write[RegisterRequest]{
	Method:   contracts.MethodRegisterDonor,
	Validate: validateRegistration,
	Args: func(req RegisterRequest) []any {
		return []any{strings.TrimSpace(req.Name), req.BloodType}
	},
}

// validateRegistration rejects a payload with missing fields, an unknown blood type or a
// malformed wallet address, in that order.
func validateRegistration(req RegisterRequest) error {
	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.BloodType) == "" {
		missing = append(missing, "bloodType")
	}
	if strings.TrimSpace(req.WalletAddress) == "" {
		missing = append(missing, "walletAddress")
	}
	if len(missing) > 0 {
		return relay.Invalid("missing required fields: %s", strings.Join(missing, ", "))
	}

	if _, err := ParseBloodType(req.BloodType); err != nil {
		return relay.Invalid("%s", err.Error())
	}

	if _, err := evm.ParseAddress(req.WalletAddress); err != nil {
		return relay.Invalid("invalid walletAddress: %s", err.Error())
	}

	return nil
}

// Register records a new donor on the ledger and blocks until the transaction is confirmed.
// The blood type is stored in its canonical form, e.g. "ab+" becomes "AB+".
func (g *Registry) Register(ctx context.Context, req RegisterRequest) (relay.Receipt, error) {
	if bt, err := ParseBloodType(req.BloodType); err == nil {
		req.BloodType = bt.String()
	}

	g.lggr.Debugw("Registering donor", "bloodType", req.BloodType, "wallet", req.WalletAddress)

	return relay.Submit(ctx, g.relay, registerDonor, req)
}

// List returns every donor in ledger order. The result is never nil.
func (g *Registry) List(ctx context.Context) ([]Donor, error) {
	raw, err := relay.List[contracts.Donor](ctx, g.relay, contracts.MethodGetAllDonors)
	if err != nil {
		return nil, err
	}

	donors := make([]Donor, 0, len(raw))
	for _, d := range raw {
		donors = append(donors, Donor{Name: d.Name, BloodType: d.BloodType})
	}

	return donors, nil
}
