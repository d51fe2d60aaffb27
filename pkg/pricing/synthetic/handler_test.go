package synthetic_test

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxfeed/pkg/pricing"
	"fxfeed/pkg/pricing/synthetic"
)

var start = time.Date(2017, 1, 2, 0, 0, 0, 0, time.UTC)

func newWalk(t *testing.T, cfg *pricing.HandlerConfig) *synthetic.Handler {
	t.Helper()
	h := synthetic.New("walk")
	require.NoError(t, h.Initialize(context.Background(), cfg))
	return h
}

func TestFirstTicksForSeed42(t *testing.T) {
	h := newWalk(t, &pricing.HandlerConfig{StartTime: start})

	tick, ok, err := h.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "EURUSD", tick.Instrument)
	assert.Equal(t, "1.10100", pricing.FormatPrice(tick.Ask))
	assert.Equal(t, "1.09900", pricing.FormatPrice(tick.Bid))
	assert.Equal(t, start.Add(1396873*time.Microsecond), tick.Time)

	tick, ok, err = h.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1.10101", pricing.FormatPrice(tick.Ask))
	assert.Equal(t, "1.09901", pricing.FormatPrice(tick.Bid))
	assert.Equal(t, start.Add((1396873+1595609)*time.Microsecond), tick.Time)

	assert.Equal(t, []string{"EURUSD"}, h.Prices().Symbols())
	entry, _ := h.Prices().Get("EURUSD")
	assert.True(t, entry.Ask.Decimal.Equal(tick.Ask))
}

func TestWalkIsReproducible(t *testing.T) {
	seed := int64(7)
	cfg := func() *pricing.HandlerConfig {
		return &pricing.HandlerConfig{Instrument: "gbp_usd", BasePriceRaw: "1.27", SpreadRaw: "0.0003", Seed: &seed, StartTime: start}
	}
	a, b := newWalk(t, cfg()), newWalk(t, cfg())
	other := newWalk(t, &pricing.HandlerConfig{Instrument: "GBPUSD", BasePriceRaw: "1.27", SpreadRaw: "0.0003", StartTime: start})

	diverged := false
	prev := start
	for i := 0; i < 200; i++ {
		ta, ok, err := a.Next(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		tb, _, err := b.Next(context.Background())
		require.NoError(t, err)
		to, _, err := other.Next(context.Background())
		require.NoError(t, err)

		assert.Equal(t, ta.String(), tb.String())
		assert.Equal(t, "GBPUSD", ta.Instrument)
		assert.Equal(t, "0.00030", pricing.FormatPrice(ta.Spread()), "bid and ask move together")
		assert.False(t, ta.Time.Before(prev))
		assert.LessOrEqual(t, -ta.Ask.Exponent(), pricing.Places)
		prev = ta.Time
		if !ta.Time.Equal(to.Time) {
			diverged = true
		}
	}
	assert.True(t, diverged, "different seeds should produce different walks")
}

func TestZeroStdDevGivesFixedGaps(t *testing.T) {
	mean, std := 250.0, 0.0
	h := newWalk(t, &pricing.HandlerConfig{GapMeanMs: &mean, GapStdDevMs: &std, StartTime: start})
	for i := 1; i <= 3; i++ {
		tick, _, err := h.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, start.Add(time.Duration(i)*250*time.Millisecond), tick.Time)
	}
}

func TestDefaultStartTimeIsNow(t *testing.T) {
	before := time.Now().UTC()
	h := newWalk(t, &pricing.HandlerConfig{})
	tick, _, err := h.Next(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, before, tick.Time, time.Minute)
}

func TestLifecycle(t *testing.T) {
	h := synthetic.New("walk")
	_, ok, err := h.Next(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, pricing.ErrNotInitialized)
	assert.Nil(t, h.Prices())

	require.NoError(t, h.Initialize(context.Background(), &pricing.HandlerConfig{StartTime: start}))
	assert.ErrorIs(t, h.Initialize(context.Background(), &pricing.HandlerConfig{}), pricing.ErrAlreadyInitialized)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = h.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, h.Close())
	_, ok, err = h.Next(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInitializeRejectsBadConfig(t *testing.T) {
	neg := -1.0
	cases := map[string]*pricing.HandlerConfig{
		"bad instrument": {Instrument: "EURO"},
		"negative price": {BasePrice: decimal.RequireFromString("-1")},
		"wide spread":    {BasePriceRaw: "0.001", SpreadRaw: "0.01"},
		"negative gap":   {GapMeanMs: &neg},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, synthetic.New("x").Initialize(context.Background(), cfg))
		})
	}
}

func TestRegisteredWithPricingConfig(t *testing.T) {
	t.Setenv("NO_DOTENV", "1")
	cfg, err := pricing.LoadConfigFromReader(strings.NewReader(
		"handlers:\n  walk:\n    type: synthetic\n    start_time: \"2017-01-02T00:00:00Z\"\n"))
	require.NoError(t, err)
	handlers, err := cfg.BuildHandlers()
	require.NoError(t, err)
	h := handlers["walk"]
	require.NoError(t, h.Initialize(context.Background(), cfg.Handlers["walk"]))

	sink := make(chan pricing.TickEvent, 5)
	n, err := pricing.Pump(context.Background(), h, sink, pricing.WithLimit(5))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	first := <-sink
	assert.Equal(t, "1.10100", pricing.FormatPrice(first.Ask))
}

func TestSource(t *testing.T) {
	src := synthetic.NewSource(0)
	assert.Equal(t, uint64(0xe220a8397b1dcdaf), src.Uint64())

	var _ rand.Source = synthetic.NewSource(1)
	r := rand.New(synthetic.NewSource(1))
	for i := 0; i < 1000; i++ {
		f := r.Float64()
		assert.True(t, f >= 0 && f < 1)
	}

	a, b := synthetic.NewSource(99), synthetic.NewSource(99)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.NormFloat64(), b.NormFloat64())
	}
}
