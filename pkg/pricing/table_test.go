package pricing_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxfeed/pkg/pricing"
)

func TestPriceTableTracksReciprocals(t *testing.T) {
	table, err := pricing.NewPriceTable([]string{"GBPUSD", "EURUSD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD", "GBPUSD", "USDEUR", "USDGBP"}, table.Symbols())

	entry, ok := table.Get("USDGBP")
	require.True(t, ok)
	assert.False(t, entry.Ready())
	assert.True(t, entry.Time.IsZero())

	inv, ok := table.Reciprocal("GBPUSD")
	require.True(t, ok)
	assert.Equal(t, "USDGBP", inv)
	_, ok = table.Reciprocal("USDGBP")
	assert.False(t, ok)
}

func TestPriceTableUpdate(t *testing.T) {
	table, err := pricing.NewPriceTable([]string{"XXXYYY"})
	require.NoError(t, err)

	ts := time.Date(2017, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, table.Update("XXXYYY", dec("1.09900"), dec("1.10100"), ts))

	direct, _ := table.Get("XXXYYY")
	require.True(t, direct.Ready())
	assert.Equal(t, "1.09900", pricing.FormatPrice(direct.Bid.Decimal))
	assert.Equal(t, "1.10100", pricing.FormatPrice(direct.Ask.Decimal))

	recip, _ := table.Get("YYYXXX")
	require.True(t, recip.Ready())
	assert.Equal(t, "0.90827", pricing.FormatPrice(recip.Bid.Decimal))
	assert.Equal(t, "0.90992", pricing.FormatPrice(recip.Ask.Decimal))
	assert.Equal(t, ts, recip.Time)

	snap := table.Snapshot()
	assert.Len(t, snap, 2)
}

func TestPriceTableUpdateErrors(t *testing.T) {
	table, err := pricing.NewPriceTable([]string{"EURUSD"})
	require.NoError(t, err)

	err = table.Update("GBPUSD", dec("1.2"), dec("1.3"), time.Now())
	assert.ErrorIs(t, err, pricing.ErrUnknownPair)

	err = table.Update("EURUSD", dec("0"), dec("1.3"), time.Now())
	assert.ErrorIs(t, err, pricing.ErrDivisionByZero)
	entry, _ := table.Get("EURUSD")
	assert.False(t, entry.Ready(), "failed update must not leave a partial quote")

	_, err = pricing.NewPriceTable([]string{"EURUSDX"})
	assert.ErrorIs(t, err, pricing.ErrInvalidPair)
}

func TestInstrumentTableHasNoReciprocal(t *testing.T) {
	table, err := pricing.NewInstrumentTable("EURUSD")
	require.NoError(t, err)
	require.NoError(t, table.Update("EURUSD", dec("1.09900"), dec("1.10100"), time.Now()))
	assert.Equal(t, []string{"EURUSD"}, table.Symbols())
	_, tracked := table.Get("USDEUR")
	assert.False(t, tracked)
}

func TestPriceTableConcurrentReaders(t *testing.T) {
	table, err := pricing.NewPriceTable([]string{"EURUSD"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table.Snapshot()
				table.Get("USDEUR")
			}
		}()
	}
	for j := 0; j < 100; j++ {
		require.NoError(t, table.Update("EURUSD", dec("1.09900"), dec("1.10100"), time.Now()))
	}
	wg.Wait()
}

func TestTickEventString(t *testing.T) {
	tick := pricing.TickEvent{
		Instrument: "EURUSD",
		Time:       time.Date(2017, 1, 2, 3, 4, 5, 0, time.UTC),
		Bid:        dec("1.099"),
		Ask:        dec("1.101"),
	}
	assert.Equal(t, "TICK", tick.Type())
	assert.Equal(t, "0.00200", pricing.FormatPrice(tick.Spread()))
	assert.Equal(t, "Type: TICK, Instrument: EURUSD, Time: 2017-01-02T03:04:05Z, Bid: 1.09900, Ask: 1.10100", tick.String())
}
