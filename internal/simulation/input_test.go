package simulation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
)

func validInput() simulation.Input {
	return simulation.Input{
		SKUs: []domain.SKU{
			{Code: "SKU-A", InitialStock: 100, QPD: 10, LeadTimeDays: 5, SnapshotDate: date(2026, time.January, 5)},
			{Code: "SKU-B", InitialStock: 40, QPD: 2.5, LeadTimeDays: 14, SnapshotDate: date(2026, time.January, 5)},
		},
		Grid:          domain.GridSpec{RTStart: 10, RTStop: 12, DOIStart: 20, DOIStop: 25},
		Range:         domain.DateRange{Start: date(2026, time.January, 5), End: date(2026, time.March, 31)},
		DailyCapacity: 360,
		TotalCapacity: 5100,
	}
}

func TestInputValidate_Accepts(t *testing.T) {
	assert.NoError(t, validInput().Validate())
}

func TestInputValidate_RejectsMalformedShape(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*simulation.Input)
		field  string
	}{
		{"inverted RT range", func(in *simulation.Input) { in.Grid.RTStart = 20; in.Grid.RTStop = 10 }, "grid"},
		{"inverted DOI range", func(in *simulation.Input) { in.Grid.DOIStart = 40; in.Grid.DOIStop = 20 }, "grid"},
		{"missing dates", func(in *simulation.Input) { in.Range = domain.DateRange{} }, "date_range"},
		{"inverted date range", func(in *simulation.Input) { in.Range.Start, in.Range.End = in.Range.End, in.Range.Start }, "date_range"},
		{"zero daily capacity", func(in *simulation.Input) { in.DailyCapacity = 0 }, "daily_capacity"},
		{"negative total capacity", func(in *simulation.Input) { in.TotalCapacity = -5 }, "total_capacity"},
		{"empty SKU code", func(in *simulation.Input) { in.SKUs[0].Code = "" }, "sku_code"},
		{"duplicate SKU code", func(in *simulation.Input) { in.SKUs[1].Code = in.SKUs[0].Code }, "sku_code"},
		{"zero qpd", func(in *simulation.Input) { in.SKUs[1].QPD = 0 }, "qpd"},
		{"negative qpd", func(in *simulation.Input) { in.SKUs[0].QPD = -3 }, "qpd"},
		{"zero lead time", func(in *simulation.Input) { in.SKUs[0].LeadTimeDays = 0 }, "lead_time_days"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			err := in.Validate()
			require.Error(t, err)

			var invalid *simulation.InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestInputValidate_EmptySKUSetIsFatal(t *testing.T) {
	// GIVEN: a well-formed request where filtering left no SKUs
	// THEN: the sweep must not start

	in := validInput()
	in.SKUs = nil

	err := in.Validate()
	assert.ErrorIs(t, err, simulation.ErrNoEligibleSKUs)
}
