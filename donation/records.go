// Package donation relays donation records to the DonationRecords contract.
package donation

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/smartcontractkit/bloodledger/contracts"
	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/relay"
)

// RecordRequest is the payload of a donation record.
type RecordRequest struct {
	DonorID     IntegerID `json:"donorId"`
	Date        string    `json:"date"`
	BloodUnitID IntegerID `json:"bloodUnitId"`
}

// Donation is a recorded donation as listed by the ledger. The identifiers are decimal strings
// because they may exceed the range of a float64.
type Donation struct {
	DonorID     string `json:"donorId"`
	Date        string `json:"date"`
	BloodUnitID string `json:"bloodUnitId"`
}

// DonorLister lists the registered donors. *donor.Registry satisfies it.
type DonorLister interface {
	List(ctx context.Context) ([]donor.Donor, error)
}

// Option configures Records.
type Option func(*Records)

// WithDonorCheck rejects donations whose donorId does not reference a registered donor. Donor
// IDs are 1-based positions in the ledger's donor list.
func WithDonorCheck(donors DonorLister) Option {
	return func(r *Records) {
		r.donors = donors
	}
}

// Records relays donation records and reads the donation list.
type Records struct {
	relay  *relay.Relay
	donors DonorLister
	lggr   logger.Logger
}

// NewRecords returns Records writing through r, which must be bound to a DonationRecords.
func NewRecords(r *relay.Relay, lggr logger.Logger, opts ...Option) *Records {
	if lggr == nil {
		lggr = logger.Nop()
	}

	rec := &Records{
		relay: r,
		lggr:  lggr.Named("donation"),
	}
	for _, opt := range opts {
		opt(rec)
	}

	return rec
}

// validateRecord rejects missing fields first and malformed identifiers second.
func validateRecord(req RecordRequest) error {
	var missing []string
	if !req.DonorID.IsSet() {
		missing = append(missing, "donorId")
	}
	if strings.TrimSpace(req.Date) == "" {
		missing = append(missing, "date")
	}
	if !req.BloodUnitID.IsSet() {
		missing = append(missing, "bloodUnitId")
	}
	if len(missing) > 0 {
		return relay.Invalid("missing fields: %s", strings.Join(missing, ", "))
	}

	if _, err := req.DonorID.Int(); err != nil {
		return relay.Invalid("donorId must be an unsigned integer: %s", err.Error())
	}
	if _, err := req.BloodUnitID.Int(); err != nil {
		return relay.Invalid("bloodUnitId must be an unsigned integer: %s", err.Error())
	}

	return nil
}

func recordArgs(req RecordRequest) []any {
	donorID, _ := req.DonorID.Int()
	bloodUnitID, _ := req.BloodUnitID.Int()

	return []any{donorID, strings.TrimSpace(req.Date), bloodUnitID}
}

// checkDonorExists requires donorId to fall within 1..len(donors).
func (r *Records) checkDonorExists(ctx context.Context, req RecordRequest) error {
	donors, err := r.donors.List(ctx)
	if err != nil {
		return err
	}

	id, _ := req.DonorID.Int()
	if id.Sign() == 0 || id.Cmp(big.NewInt(int64(len(donors)))) > 0 {
		return relay.Invalid("donorId %s does not reference a registered donor (%d registered)",
			id, len(donors),
		)
	}

	return nil
}

// Record adds a donation to the ledger and blocks until the transaction is confirmed.
func (r *Records) Record(ctx context.Context, req RecordRequest) (relay.Receipt, error) {
	w := relay.Write[RecordRequest]{
		Method:   contracts.MethodAddDonation,
		Validate: validateRecord,
		Args:     recordArgs,
	}
	if r.donors != nil {
		w.Check = r.checkDonorExists
	}

	r.lggr.Debugw("Recording donation",
		"donorId", req.DonorID.String(), "date", req.Date, "bloodUnitId", req.BloodUnitID.String(),
	)

	return relay.Submit(ctx, r.relay, w, req)
}

// List returns every donation in ledger order. The result is never nil.
func (r *Records) List(ctx context.Context) ([]Donation, error) {
	raw, err := relay.List[contracts.Donation](ctx, r.relay, contracts.MethodGetDonations)
	if err != nil {
		return nil, err
	}

	donations := make([]Donation, 0, len(raw))
	for _, d := range raw {
		donations = append(donations, Donation{
			DonorID:     decimal(d.DonorId),
			Date:        d.Date,
			BloodUnitID: decimal(d.BloodUnitId),
		})
	}

	return donations, nil
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}

	return v.String()
}

// String renders a donation for logs and the CLI.
func (d Donation) String() string {
	return fmt.Sprintf("donor %s on %s, unit %s", d.DonorID, d.Date, d.BloodUnitID)
}
