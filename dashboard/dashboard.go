// Package dashboard aggregates the donor and donation read paths into counts and renders them
// for the terminal.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"

	"github.com/smartcontractkit/bloodledger/donation"
	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// Source provides both read paths. *relayclient.Client satisfies it.
type Source interface {
	ListDonors(ctx context.Context) ([]donor.Donor, error)
	ListDonations(ctx context.Context) ([]donation.Donation, error)
}

// Count is one bar of a chart.
type Count struct {
	Label string
	Value int
}

// Stats are the aggregates shown on the dashboard.
type Stats struct {
	TotalDonors    int
	TotalDonations int
	// BloodTypes counts donors per blood type, in the order each type was first seen.
	BloodTypes []Count
	// DonationsByUnit counts donations per bloodUnitId, in the order each unit was first seen.
	DonationsByUnit []Count
}

// Dashboard holds the last fetched donors and donations.
type Dashboard struct {
	src  Source
	lggr logger.Logger

	mu        sync.RWMutex
	donors    []donor.Donor
	donations []donation.Donation
}

// New returns an empty Dashboard reading from src.
func New(src Source, lggr logger.Logger) *Dashboard {
	return &Dashboard{
		src:       src,
		lggr:      lggr.Named("dashboard"),
		donors:    []donor.Donor{},
		donations: []donation.Donation{},
	}
}

// Load fetches donors and donations concurrently. A failed fetch leaves its list empty while
// the other list is still updated; all failures are returned joined.
func (d *Dashboard) Load(ctx context.Context) error {
	var (
		g                       errgroup.Group
		donors                  []donor.Donor
		donations               []donation.Donation
		donorsErr, donationsErr error
	)

	// Fetch errors are kept per list so one failure does not cancel the other fetch. The
	// group itself never fails.
	g.Go(func() error {
		donors, donorsErr = d.src.ListDonors(ctx)
		return nil
	})
	g.Go(func() error {
		donations, donationsErr = d.src.ListDonations(ctx)
		return nil
	})
	_ = g.Wait()

	if donorsErr != nil {
		d.lggr.Errorw("Error fetching donors", "err", donorsErr)
		donorsErr = fmt.Errorf("failed to fetch donors: %w", donorsErr)
		donors = nil
	}
	if donationsErr != nil {
		d.lggr.Errorw("Error fetching donations", "err", donationsErr)
		donationsErr = fmt.Errorf("failed to fetch donations: %w", donationsErr)
		donations = nil
	}

	d.mu.Lock()
	d.donors = nonNil(donors)
	d.donations = nonNil(donations)
	d.mu.Unlock()

	return errors.Join(donorsErr, donationsErr)
}

// Refresh re-fetches the donors only. On failure the donors list is emptied.
func (d *Dashboard) Refresh(ctx context.Context) error {
	donors, err := d.src.ListDonors(ctx)
	if err != nil {
		d.lggr.Errorw("Error fetching donors", "err", err)
		donors = nil
		err = fmt.Errorf("failed to fetch donors: %w", err)
	}

	d.mu.Lock()
	d.donors = nonNil(donors)
	d.mu.Unlock()

	return err
}

// Donors returns a copy of the last fetched donors.
func (d *Dashboard) Donors() []donor.Donor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]donor.Donor{}, d.donors...)
}

// Donations returns a copy of the last fetched donations.
func (d *Dashboard) Donations() []donation.Donation {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]donation.Donation{}, d.donations...)
}

// Stats aggregates the last fetched lists.
func (d *Dashboard) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	bloodTypes := make([]string, len(d.donors))
	for i, dn := range d.donors {
		bloodTypes[i] = dn.BloodType
	}
	units := make([]string, len(d.donations))
	for i, dn := range d.donations {
		units[i] = dn.BloodUnitID
	}

	return Stats{
		TotalDonors:     len(d.donors),
		TotalDonations:  len(d.donations),
		BloodTypes:      countInOrder(bloodTypes),
		DonationsByUnit: countInOrder(units),
	}
}

// Render writes the totals, the two charts and the two lists to w. Charts and lists are
// skipped while their data is empty.
func (d *Dashboard) Render(w io.Writer) error {
	stats := d.Stats()
	donors := d.Donors()
	donations := d.Donations()

	var b strings.Builder

	b.WriteString(pterm.DefaultSection.Sprint("Statistics"))
	b.WriteString(fmt.Sprintf("Total Donors: %d\nTotal Donations: %d\n", stats.TotalDonors, stats.TotalDonations))

	if len(donors) > 0 {
		chart, err := barChart(stats.BloodTypes)
		if err != nil {
			return fmt.Errorf("failed to render blood type chart: %w", err)
		}
		b.WriteString(pterm.DefaultSection.Sprint("Blood Type Distribution"))
		b.WriteString(chart)
	}

	if len(donations) > 0 {
		chart, err := barChart(stats.DonationsByUnit)
		if err != nil {
			return fmt.Errorf("failed to render donation chart: %w", err)
		}
		b.WriteString(pterm.DefaultSection.Sprint("Donations Per Blood Unit"))
		b.WriteString(chart)
	}

	if len(donors) > 0 {
		items := make([]string, len(donors))
		for i, dn := range donors {
			items[i] = fmt.Sprintf("#%d %s - %s", i+1, dn.Name, dn.BloodType)
		}
		list, err := bulletList(items)
		if err != nil {
			return fmt.Errorf("failed to render donor list: %w", err)
		}
		b.WriteString(pterm.DefaultSection.Sprint("Donor List"))
		b.WriteString(list)
	}

	if len(donations) > 0 {
		items := make([]string, len(donations))
		for i, dn := range donations {
			items[i] = fmt.Sprintf("Donor ID: %s | Date: %s | Blood Unit: %s", dn.DonorID, dn.Date, dn.BloodUnitID)
		}
		list, err := bulletList(items)
		if err != nil {
			return fmt.Errorf("failed to render donation list: %w", err)
		}
		b.WriteString(pterm.DefaultSection.Sprint("Donation Records"))
		b.WriteString(list)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func barChart(counts []Count) (string, error) {
	bars := make(pterm.Bars, len(counts))
	for i, c := range counts {
		bars[i] = pterm.Bar{Label: c.Label, Value: c.Value}
	}

	return pterm.DefaultBarChart.
		WithBars(bars).
		WithHorizontal().
		WithShowValue().
		Srender()
}

func bulletList(items []string) (string, error) {
	listItems := make([]pterm.BulletListItem, len(items))
	for i, item := range items {
		listItems[i] = pterm.BulletListItem{Text: item}
	}

	return pterm.DefaultBulletList.WithItems(listItems).Srender()
}

// countInOrder counts equal labels, keeping the order in which each label first appears.
func countInOrder(labels []string) []Count {
	counts := []Count{}
	index := make(map[string]int, len(labels))
	for _, l := range labels {
		if i, ok := index[l]; ok {
			counts[i].Value++
			continue
		}
		index[l] = len(counts)
		counts = append(counts, Count{Label: l, Value: 1})
	}

	return counts
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}

// String renders the counts as "label=value" pairs.
func (s Stats) String() string {
	parts := make([]string, 0, len(s.BloodTypes))
	for _, c := range s.BloodTypes {
		parts = append(parts, c.Label+"="+strconv.Itoa(c.Value))
	}

	return fmt.Sprintf("%d donors, %d donations, blood types [%s]",
		s.TotalDonors, s.TotalDonations, strings.Join(parts, " "))
}
