// Package httpapi serves the donor and donation relays as JSON over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smartcontractkit/bloodledger/donation"
	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
	"github.com/smartcontractkit/bloodledger/relay"
)

// Legacy paths kept for older front-ends.
const (
	LegacyDonorsPath    = "/api/registerDonor"
	LegacyDonationsPath = "/api/DonationRecord"
)

// DonorService is the donor registry relay. *donor.Registry satisfies it.
type DonorService interface {
	Register(ctx context.Context, req donor.RegisterRequest) (relay.Receipt, error)
	List(ctx context.Context) ([]donor.Donor, error)
}

// DonationService is the donation records relay. *donation.Records satisfies it.
type DonationService interface {
	Record(ctx context.Context, req donation.RecordRequest) (relay.Receipt, error)
	List(ctx context.Context) ([]donation.Donation, error)
}

// RequestObserver records served requests. *metrics.Metrics satisfies it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Config holds the collaborators of the router.
type Config struct {
	// Required
	Donors DonorService
	// Required
	Donations DonationService
	// Required
	Logger logger.Logger
	// Optional: Metrics observes every request.
	Metrics RequestObserver
	// Optional: MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

func (c Config) validate() error {
	if c.Donors == nil {
		return errors.New("donor service is required")
	}
	if c.Donations == nil {
		return errors.New("donation service is required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}

	return nil
}

// App holds the handlers.
type App struct {
	donors    DonorService
	donations DonationService
	lggr      logger.Logger
}

// NewRouter returns the relay HTTP handler.
func NewRouter(cfg Config) (http.Handler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	lggr := cfg.Logger.Named("httpapi")
	app := &App{donors: cfg.Donors, donations: cfg.Donations, lggr: lggr}

	r := chi.NewRouter()
	r.Use(
		RequestID,
		middleware.RealIP,
		RequestLogger(lggr, cfg.Metrics),
		middleware.Recoverer,
	)

	r.Get("/healthz", app.Health)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	for _, path := range []string{"/donors", LegacyDonorsPath} {
		r.Get(path, app.ListDonors)
		r.Post(path, app.RegisterDonor)
	}
	for _, path := range []string{"/donations", LegacyDonationsPath} {
		r.Get(path, app.ListDonations)
		r.Post(path, app.RecordDonation)
	}

	return r, nil
}
