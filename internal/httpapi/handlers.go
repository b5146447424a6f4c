package httpapi

import (
	"errors"
	"net/http"

	"github.com/smartcontractkit/bloodledger/donation"
	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/relay"
)

type donorsBody struct {
	Donors []donor.Donor `json:"donors"`
}

type donationsBody struct {
	Donations []donation.Donation `json:"donations"`
}

// Health reports the process is serving.
func (a *App) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListDonors serves GET /donors.
func (a *App) ListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := a.donors.List(r.Context())
	if err != nil {
		a.logError(r, "Error fetching donors", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve donors", "")

		return
	}

	writeJSON(w, http.StatusOK, donorsBody{Donors: donors})
}

// RegisterDonor serves POST /donors. The failure message is returned as is so insufficient
// funds and reverts reach the caller verbatim.
func (a *App) RegisterDonor(w http.ResponseWriter, r *http.Request) {
	var req donor.RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	receipt, err := a.donors.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, relay.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}

		a.logError(r, "Error registering donor", err)
		writeError(w, http.StatusInternalServerError, err.Error(), "")

		return
	}

	writeJSON(w, http.StatusOK, submitBody{
		Success:     true,
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber,
	})
}

// ListDonations serves GET /donations.
func (a *App) ListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := a.donations.List(r.Context())
	if err != nil {
		a.logError(r, "Error fetching donations", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve donations", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, donationsBody{Donations: donations})
}

// RecordDonation serves POST /donations.
func (a *App) RecordDonation(w http.ResponseWriter, r *http.Request) {
	var req donation.RecordRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	receipt, err := a.donations.Record(r.Context(), req)
	if err != nil {
		if errors.Is(err, relay.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}

		a.logError(r, "Error adding donation", err)
		writeError(w, http.StatusInternalServerError, "Failed to add donation", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, submitBody{
		Success:     true,
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber,
	})
}

func (a *App) logError(r *http.Request, msg string, err error) {
	a.lggr.Errorw(msg, "err", err, "requestID", RequestIDFromContext(r.Context()))
}
