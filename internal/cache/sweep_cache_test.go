package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/inbound-planner/internal/cache"
	"github.com/andresuchdata/inbound-planner/internal/config"
	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fingerprintInput() simulation.Input {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	return simulation.Input{
		SKUs: []domain.SKU{
			{Code: "SKU-A", Name: "Widget A", InitialStock: 100, QPD: 4, LeadTimeDays: 7},
			{Code: "SKU-B", Name: "Widget B", InitialStock: 50.5, QPD: 1.25, LeadTimeDays: 14},
			{Code: "SKU-C", Name: "Widget C", InitialStock: 0, QPD: 9, LeadTimeDays: 3},
		},
		Grid:          domain.GridSpec{RTStart: 10, RTStop: 14, DOIStart: 20, DOIStop: 30},
		Range:         domain.DateRange{Start: start, End: start.AddDate(0, 0, 89)},
		DailyCapacity: 360,
		TotalCapacity: 5100,
	}
}

// ===== FINGERPRINT =====

func TestInputFingerprint_StableAcrossSKUOrder(t *testing.T) {
	// GIVEN the same dataset with SKUs listed in different orders
	a := fingerprintInput()
	b := fingerprintInput()
	b.SKUs[0], b.SKUs[2] = b.SKUs[2], b.SKUs[0]

	// WHEN both are fingerprinted
	// THEN the digests match
	assert.Equal(t, cache.InputFingerprint(a), cache.InputFingerprint(b))
}

func TestInputFingerprint_ChangesWithEveryParameter(t *testing.T) {
	base := cache.InputFingerprint(fingerprintInput())

	tests := []struct {
		name   string
		mutate func(in *simulation.Input)
	}{
		{"reorder threshold range", func(in *simulation.Input) { in.Grid.RTStop = 15 }},
		{"target DOI range", func(in *simulation.Input) { in.Grid.DOIStart = 21 }},
		{"date range", func(in *simulation.Input) { in.Range.End = in.Range.End.AddDate(0, 0, 1) }},
		{"daily capacity", func(in *simulation.Input) { in.DailyCapacity = 361 }},
		{"total capacity", func(in *simulation.Input) { in.TotalCapacity = 5000 }},
		{"sku stock", func(in *simulation.Input) { in.SKUs[1].InitialStock = 51 }},
		{"sku qpd", func(in *simulation.Input) { in.SKUs[1].QPD = 1.5 }},
		{"sku lead time", func(in *simulation.Input) { in.SKUs[1].LeadTimeDays = 15 }},
		{"sku set", func(in *simulation.Input) { in.SKUs = in.SKUs[:2] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN an input differing from the base in one parameter
			in := fingerprintInput()
			tt.mutate(&in)

			// WHEN it is fingerprinted
			// THEN the digest differs from the base
			assert.NotEqual(t, base, cache.InputFingerprint(in))
		})
	}
}

func TestInputFingerprint_IgnoresDisplayFields(t *testing.T) {
	// GIVEN two datasets differing only in product names and snapshot dates
	a := fingerprintInput()
	b := fingerprintInput()
	b.SKUs[0].Name = "Renamed Widget"
	b.SKUs[1].SnapshotDate = time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	// WHEN both are fingerprinted
	// THEN the digests match; display fields never change the summaries
	assert.Equal(t, cache.InputFingerprint(a), cache.InputFingerprint(b))
}

// ===== NOOP CACHE =====

func TestNoopSweepCache_AlwaysMisses(t *testing.T) {
	c := cache.NewNoopSweepCache()
	ctx := context.Background()
	in := fingerprintInput()

	// GIVEN a result stored through the noop cache
	stored := &domain.SweepResult{Summaries: []domain.ScenarioSummary{{Scenario: "RT10_DOI20"}}}
	require.NoError(t, c.SetResult(ctx, in, stored))

	// WHEN the same input is looked up
	result, hit, err := c.GetResult(ctx, in)

	// THEN nothing comes back and nothing fails
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, result)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestNewSweepCache_DisabledConfigYieldsNoop(t *testing.T) {
	// GIVEN caching disabled in config
	c, err := cache.NewSweepCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	// WHEN a lookup runs
	result, hit, err := c.GetResult(context.Background(), fingerprintInput())

	// THEN it misses without touching any backend
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, result)
}
