package dashboard

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/bloodledger/donation"
	"github.com/smartcontractkit/bloodledger/donor"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// fakeSource returns canned lists and counts the calls it receives.
type fakeSource struct {
	donors       []donor.Donor
	donations    []donation.Donation
	donorsErr    error
	donationsErr error

	donorCalls    atomic.Int32
	donationCalls atomic.Int32
}

func (f *fakeSource) ListDonors(context.Context) ([]donor.Donor, error) {
	f.donorCalls.Add(1)
	return f.donors, f.donorsErr
}

func (f *fakeSource) ListDonations(context.Context) ([]donation.Donation, error) {
	f.donationCalls.Add(1)
	return f.donations, f.donationsErr
}

var (
	testDonors = []donor.Donor{
		{Name: "Ada", BloodType: "A+"},
		{Name: "Bob", BloodType: "A+"},
		{Name: "Cy", BloodType: "O-"},
	}
	testDonations = []donation.Donation{
		{DonorID: "1", Date: "2024-05-01", BloodUnitID: "1001"},
		{DonorID: "2", Date: "2024-05-02", BloodUnitID: "7"},
		{DonorID: "3", Date: "2024-05-03", BloodUnitID: "1001"},
	}
)

func TestDashboard_Load(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		giveSource    *fakeSource
		wantDonors    []donor.Donor
		wantDonations []donation.Donation
		wantErrs      []string
	}{
		{
			name:          "both lists",
			giveSource:    &fakeSource{donors: testDonors, donations: testDonations},
			wantDonors:    testDonors,
			wantDonations: testDonations,
		},
		{
			name:          "donors fail, donations still shown",
			giveSource:    &fakeSource{donorsErr: assert.AnError, donations: testDonations},
			wantDonors:    []donor.Donor{},
			wantDonations: testDonations,
			wantErrs:      []string{"failed to fetch donors"},
		},
		{
			name:          "both fail",
			giveSource:    &fakeSource{donors: testDonors, donorsErr: assert.AnError, donationsErr: assert.AnError},
			wantDonors:    []donor.Donor{},
			wantDonations: []donation.Donation{},
			wantErrs:      []string{"failed to fetch donors", "failed to fetch donations"},
		},
		{
			name:          "nil lists are empty",
			giveSource:    &fakeSource{},
			wantDonors:    []donor.Donor{},
			wantDonations: []donation.Donation{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := New(tt.giveSource, logger.Test(t))

			err := d.Load(t.Context())
			if len(tt.wantErrs) == 0 {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, assert.AnError)
				for _, want := range tt.wantErrs {
					assert.ErrorContains(t, err, want)
				}
			}

			assert.Equal(t, tt.wantDonors, d.Donors())
			assert.Equal(t, tt.wantDonations, d.Donations())
			assert.Equal(t, int32(1), tt.giveSource.donorCalls.Load())
			assert.Equal(t, int32(1), tt.giveSource.donationCalls.Load())
		})
	}
}

func TestDashboard_Refresh(t *testing.T) {
	t.Parallel()

	src := &fakeSource{donors: testDonors[:1], donations: testDonations}
	d := New(src, logger.Test(t))
	require.NoError(t, d.Load(t.Context()))

	src.donors = testDonors
	src.donations = nil
	require.NoError(t, d.Refresh(t.Context()))

	assert.Equal(t, testDonors, d.Donors())
	assert.Equal(t, testDonations, d.Donations(), "refresh leaves donations untouched")
	assert.Equal(t, int32(2), src.donorCalls.Load())
	assert.Equal(t, int32(1), src.donationCalls.Load())

	src.donorsErr = assert.AnError
	require.ErrorContains(t, d.Refresh(t.Context()), "failed to fetch donors")
	assert.Empty(t, d.Donors())
}

func TestDashboard_Stats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		giveDonors    []donor.Donor
		giveDonations []donation.Donation
		want          Stats
	}{
		{
			name:          "grouped in first seen order",
			giveDonors:    testDonors,
			giveDonations: testDonations,
			want: Stats{
				TotalDonors:     3,
				TotalDonations:  3,
				BloodTypes:      []Count{{Label: "A+", Value: 2}, {Label: "O-", Value: 1}},
				DonationsByUnit: []Count{{Label: "1001", Value: 2}, {Label: "7", Value: 1}},
			},
		},
		{
			name:       "order follows the ledger, not the label",
			giveDonors: []donor.Donor{{BloodType: "O-"}, {BloodType: "AB+"}, {BloodType: "A-"}, {BloodType: "AB+"}},
			want: Stats{
				TotalDonors:     4,
				BloodTypes:      []Count{{Label: "O-", Value: 1}, {Label: "AB+", Value: 2}, {Label: "A-", Value: 1}},
				DonationsByUnit: []Count{},
			},
		},
		{
			name: "empty",
			want: Stats{BloodTypes: []Count{}, DonationsByUnit: []Count{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := New(&fakeSource{donors: tt.giveDonors, donations: tt.giveDonations}, logger.Nop())
			require.NoError(t, d.Load(t.Context()))

			got := d.Stats()
			assert.Equal(t, tt.want, got)

			sum := 0
			for _, c := range got.BloodTypes {
				sum += c.Value
			}
			assert.Equal(t, got.TotalDonors, sum)
		})
	}
}

func TestStats_String(t *testing.T) {
	t.Parallel()

	s := Stats{TotalDonors: 3, TotalDonations: 1, BloodTypes: []Count{{Label: "A+", Value: 2}, {Label: "O-", Value: 1}}}

	assert.Equal(t, "3 donors, 1 donations, blood types [A+=2 O-=1]", s.String())
}

func TestDashboard_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		giveDonors    []donor.Donor
		giveDonations []donation.Donation
		wantContains  []string
		wantMissing   []string
	}{
		{
			name:          "everything",
			giveDonors:    testDonors,
			giveDonations: testDonations,
			wantContains: []string{
				"Total Donors: 3",
				"Total Donations: 3",
				"Blood Type Distribution",
				"Donations Per Blood Unit",
				"#1 Ada - A+",
				"#3 Cy - O-",
				"Donor ID: 2 | Date: 2024-05-02 | Blood Unit: 7",
			},
		},
		{
			name:         "empty lists skip charts",
			wantContains: []string{"Total Donors: 0", "Total Donations: 0"},
			wantMissing:  []string{"Blood Type Distribution", "Donor List", "Donation Records"},
		},
		{
			name:         "donors only",
			giveDonors:   testDonors[:1],
			wantContains: []string{"Donor List", "#1 Ada - A+"},
			wantMissing:  []string{"Donation Records", "Donations Per Blood Unit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := New(&fakeSource{donors: tt.giveDonors, donations: tt.giveDonations}, logger.Nop())
			require.NoError(t, d.Load(t.Context()))

			var out strings.Builder
			require.NoError(t, d.Render(&out))

			for _, want := range tt.wantContains {
				assert.Contains(t, out.String(), want)
			}
			for _, missing := range tt.wantMissing {
				assert.NotContains(t, out.String(), missing)
			}
		})
	}
}
