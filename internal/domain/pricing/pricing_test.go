package pricing_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"zozotech/internal/domain/models"
	"zozotech/internal/domain/pricing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

func TestComputeFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		percent  int64
		expected int64
	}{
		{"no discount", 100000, 0, 100000},
		{"full discount", 100000, 100, 0},
		{"fifteen percent", 100000, 15, 85000},
		{"floors fractional rupiah", 999, 15, 849},
		{"floors small amount", 1, 50, 0},
		{"odd price half off", 12345, 50, 6172},
		{"zero price", 0, 40, 0},
		{"unclamped percent never goes negative", 5000, 150, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pricing.ComputeFinalPrice(tt.price, tt.percent))
		})
	}
}

func TestComputeFinalPrice_FloorProperty(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		price := rnd.Int63n(1_000_000_000)
		percent := rnd.Int63n(101)

		got := pricing.ComputeFinalPrice(price, percent)
		want := int64(math.Floor(float64(price*(100-percent)) / 100))

		require.Equal(t, want, got, "price=%d percent=%d", price, percent)
		require.GreaterOrEqual(t, got, int64(0))
		require.LessOrEqual(t, got, price)
	}
}

func TestComputeFinalPrice_Boundaries(t *testing.T) {
	for _, x := range []int64{0, 1, 99, 100, 101, 85000, 1_500_000, math.MaxInt64 / 200} {
		assert.Equal(t, x, pricing.ComputeFinalPrice(x, 0))
		assert.Equal(t, int64(0), pricing.ComputeFinalPrice(x, 100))
	}
}

func TestComputeFinalPriceFloat(t *testing.T) {
	assert.Equal(t, int64(85000), pricing.ComputeFinalPriceFloat(100000, 15))
	assert.Equal(t, int64(0), pricing.ComputeFinalPriceFloat(math.NaN(), 15))
	assert.Equal(t, int64(100000), pricing.ComputeFinalPriceFloat(100000, math.Inf(1)))
	assert.Equal(t, int64(0), pricing.ComputeFinalPriceFloat(math.Inf(1), 0))
	assert.Equal(t, int64(0), pricing.ComputeFinalPriceFloat(-500, 10))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, pricing.ClampPercent(-5))
	assert.Equal(t, 42, pricing.ClampPercent(42))
	assert.Equal(t, 100, pricing.ClampPercent(250))
}

func TestResolve(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	start := now.Add(-24 * time.Hour)
	end := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		src      *pricing.Source
		state    pricing.DiscountState
		expected bool
	}{
		{"nil source", nil, pricing.Inactive{}, false},
		{"zero percent with flag", &pricing.Source{Percent: 0, Active: boolPtr(true)}, pricing.Inactive{}, false},
		{"negative percent", &pricing.Source{Percent: -10, Active: boolPtr(true)}, pricing.Inactive{}, false},
		{"nan percent", &pricing.Source{Percent: math.NaN(), Active: boolPtr(true)}, pricing.Inactive{}, false},
		{"infinite percent", &pricing.Source{Percent: math.Inf(1), Active: boolPtr(true)}, pricing.Inactive{}, false},
		{"explicit true", &pricing.Source{Percent: 10, Active: boolPtr(true)}, pricing.ExplicitFlag{Value: true}, true},
		{"explicit false", &pricing.Source{Percent: 10, Active: boolPtr(false)}, pricing.ExplicitFlag{Value: false}, false},
		{"open window", &pricing.Source{Percent: 10}, pricing.WindowBased{}, true},
		{
			"inside window",
			&pricing.Source{Percent: 10, StartAt: &start, EndAt: &end},
			pricing.WindowBased{Start: &start, End: &end},
			true,
		},
		{
			"before window",
			&pricing.Source{Percent: 10, StartAt: &end},
			pricing.WindowBased{Start: &end},
			false,
		},
		{
			"after window",
			&pricing.Source{Percent: 10, EndAt: &start},
			pricing.WindowBased{End: &start},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := pricing.Resolve(tt.src)
			assert.Equal(t, tt.state, state)
			assert.Equal(t, tt.expected, state.Active(now))
			assert.Equal(t, tt.expected, pricing.IsDiscountActive(tt.src, now))
		})
	}
}

func TestIsDiscountActive_WindowBoundsInclusive(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	src := &pricing.Source{Percent: 20, StartAt: timePtr(now), EndAt: timePtr(now)}
	assert.True(t, pricing.IsDiscountActive(src, now))
}

func TestIsDiscountActive_ExplicitFlagBeatsWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	windows := []struct{ start, end *time.Time }{
		{nil, nil},
		{&past, &future},
		{&future, nil},
		{nil, &past},
	}

	for _, w := range windows {
		for _, flag := range []bool{true, false} {
			for _, percent := range []float64{1, 50, 100} {
				src := &pricing.Source{Percent: percent, Active: boolPtr(flag), StartAt: w.start, EndAt: w.end}
				assert.Equal(t, flag, pricing.IsDiscountActive(src, now))
			}

			src := &pricing.Source{Percent: 0, Active: boolPtr(flag), StartAt: w.start, EndAt: w.end}
			assert.False(t, pricing.IsDiscountActive(src, now))
		}
	}
}

func TestParseWindowBound(t *testing.T) {
	assert.Nil(t, pricing.ParseWindowBound(""))
	assert.Nil(t, pricing.ParseWindowBound("   "))
	assert.Nil(t, pricing.ParseWindowBound("not a date"))

	got := pricing.ParseWindowBound("2025-01-31")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), *got)

	got = pricing.ParseWindowBound("2025-01-31T08:30:00+07:00")
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2025, 1, 31, 1, 30, 0, 0, time.UTC)))
}

func newPackage(name string, price int64, percent int, active *bool, featured bool) models.Package {
	return models.Package{
		ID:               uuid.New(),
		Name:             name,
		PriceOriginalIDR: price,
		DiscountPercent:  percent,
		DiscountActive:   active,
		Featured:         featured,
	}
}

func TestCompute_Scenarios(t *testing.T) {
	now := time.Now()

	a := pricing.Compute(newPackage("A", 100000, 15, boolPtr(true), false), now)
	assert.True(t, a.IsDiscountActive)
	assert.Equal(t, int64(85000), a.PriceFinalIDR)
	assert.Equal(t, "Rp 85.000", a.PriceFinalLabel)

	b := pricing.Compute(newPackage("B", 50000, 0, boolPtr(true), false), now)
	assert.False(t, b.IsDiscountActive)
	assert.Equal(t, int64(50000), b.PriceFinalIDR)

	off := pricing.Compute(newPackage("C", 50000, 30, boolPtr(false), false), now)
	assert.False(t, off.IsDiscountActive)
	assert.Equal(t, int64(50000), off.PriceFinalIDR)

	clamped := pricing.Compute(newPackage("D", 50000, 140, boolPtr(true), false), now)
	assert.True(t, clamped.IsDiscountActive)
	assert.Equal(t, int64(0), clamped.PriceFinalIDR)
}

func TestRankPackages(t *testing.T) {
	now := time.Now()
	priced := pricing.PriceAll([]models.Package{
		newPackage("basic", 300000, 0, nil, false),
		newPackage("pro", 900000, 50, boolPtr(true), true),
		newPackage("starter", 150000, 0, nil, false),
		newPackage("enterprise", 2000000, 0, nil, true),
		newPackage("starter-2", 150000, 0, nil, false),
	}, now)

	ranked := pricing.RankPackages(priced)

	names := make([]string, 0, len(ranked))
	for _, p := range ranked {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{"pro", "enterprise", "starter", "starter-2", "basic"}, names)
	assert.Equal(t, "basic", priced[0].Name, "input must not be reordered")
}

func TestHighlight(t *testing.T) {
	now := time.Now()

	_, ok := pricing.Highlight(nil)
	assert.False(t, ok)

	noneFeatured := pricing.PriceAll([]models.Package{
		newPackage("a", 300000, 0, nil, false),
		newPackage("b", 400000, 50, boolPtr(true), false),
		newPackage("c", 250000, 0, nil, false),
	}, now)

	best, ok := pricing.Highlight(noneFeatured)
	require.True(t, ok)
	assert.Equal(t, "b", best.Name)

	withFeatured := pricing.PriceAll([]models.Package{
		newPackage("cheap", 10000, 0, nil, false),
		newPackage("pro", 900000, 0, nil, true),
		newPackage("plus", 500000, 0, nil, true),
	}, now)

	best, ok = pricing.Highlight(withFeatured)
	require.True(t, ok)
	assert.Equal(t, "plus", best.Name)

	cheapest, ok := pricing.Cheapest(withFeatured)
	require.True(t, ok)
	assert.Equal(t, "cheap", cheapest.Name)
}

func TestFormatIDR(t *testing.T) {
	assert.Equal(t, "Rp 85.000", pricing.FormatIDR(85000))
	assert.Equal(t, "Rp 1.250.000", pricing.FormatIDR(1250000))
	assert.Equal(t, "Rp 0", pricing.FormatIDR(0))
	assert.Equal(t, "IDR 999", pricing.Format("IDR", 999))
	assert.NotContains(t, pricing.FormatIDR(1999999), ",")
}
