// Package relayclient is the HTTP client the CLI front-end uses to talk to a running relay.
package relayclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/smartcontractkit/bloodledger/donation"
	"github.com/smartcontractkit/bloodledger/donor"
)

// Route paths served by the relay.
const (
	DonorsPath    = "/donors"
	DonationsPath = "/donations"
)

// APIError is a non 2xx answer from the relay.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		return fmt.Sprintf("relay returned %d: %s: %s", e.Status, msg, e.Details)
	}

	return fmt.Sprintf("relay returned %d: %s", e.Status, msg)
}

// IsValidation reports whether the relay rejected the payload itself.
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusBadRequest
}

// SubmitResult is the answer to an accepted write.
type SubmitResult struct {
	Success     bool   `json:"success"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type donorsBody struct {
	Donors []donor.Donor `json:"donors"`
}

type donationsBody struct {
	Donations []donation.Donation `json:"donations"`
}

// Client calls the relay HTTP surface.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout bounds every request. Writes wait for a confirmation so this should exceed the
// relay's confirm timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		c.SetTimeout(d)
	}
}

// WithDebug logs requests and responses.
func WithDebug(debug bool) Option {
	return func(c *resty.Client) {
		c.SetDebug(debug)
	}
}

// New returns a Client for the relay at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(5 * time.Minute)

	for _, opt := range opts {
		opt(rc)
	}

	return &Client{http: rc}
}

// ListDonors returns every registered donor in ledger order.
func (c *Client) ListDonors(ctx context.Context) ([]donor.Donor, error) {
	var body donorsBody
	if err := c.do(ctx, http.MethodGet, DonorsPath, nil, &body); err != nil {
		return nil, err
	}
	if body.Donors == nil {
		return []donor.Donor{}, nil
	}

	return body.Donors, nil
}

// RegisterDonor submits a registration and returns once the relay reports it confirmed.
func (c *Client) RegisterDonor(ctx context.Context, req donor.RegisterRequest) (SubmitResult, error) {
	var res SubmitResult
	err := c.do(ctx, http.MethodPost, DonorsPath, req, &res)

	return res, err
}

// ListDonations returns every recorded donation in ledger order.
func (c *Client) ListDonations(ctx context.Context) ([]donation.Donation, error) {
	var body donationsBody
	if err := c.do(ctx, http.MethodGet, DonationsPath, nil, &body); err != nil {
		return nil, err
	}
	if body.Donations == nil {
		return []donation.Donation{}, nil
	}

	return body.Donations, nil
}

// RecordDonation submits a donation and returns once the relay reports it confirmed.
func (c *Client) RecordDonation(ctx context.Context, req donation.RecordRequest) (SubmitResult, error) {
	var res SubmitResult
	err := c.do(ctx, http.MethodPost, DonationsPath, req, &res)

	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	req := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&errorBody{})
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		if eb, ok := resp.Error().(*errorBody); ok {
			apiErr.Message = eb.Error
			apiErr.Details = eb.Details
		}

		return apiErr
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return &APIError{Status: resp.StatusCode(), Message: "unexpected response"}
	}

	return nil
}

// AsAPIError unwraps an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)

	return apiErr, ok
}
