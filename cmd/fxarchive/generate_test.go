package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxfeed/pkg/pricing"
	"fxfeed/pkg/pricing/historic"
)

func TestMonthWeekdays(t *testing.T) {
	days := monthWeekdays(2017, time.January)
	require.Len(t, days, 22)
	assert.Equal(t, time.Date(2017, 1, 2, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2017, 1, 31, 0, 0, 0, 0, time.UTC), days[len(days)-1])
	for _, d := range days {
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
}

func TestGenerateMonthReplays(t *testing.T) {
	dir := t.TempDir()
	files, err := generateMonth(context.Background(), archiveOptions{
		Pair: "gbp_usd", Dir: dir, Year: 2017, Month: time.February, Seed: 42, GapMeanMs: 5 * 60 * 1000,
	})
	require.NoError(t, err)
	require.Len(t, files, 20)
	assert.Equal(t, filepath.Join(dir, "GBPUSD_20170201.csv"), files[0])

	h := historic.New("replay")
	require.NoError(t, h.Initialize(context.Background(), &pricing.HandlerConfig{Pairs: []string{"GBPUSD"}, CSVDir: dir}))
	defer h.Close()

	var prev time.Time
	perDay := map[int]int{}
	for {
		tick, ok, err := h.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		assert.Equal(t, "GBPUSD", tick.Instrument)
		assert.True(t, tick.Ask.GreaterThan(tick.Bid))
		assert.False(t, tick.Time.Before(prev))
		prev = tick.Time
		perDay[tick.Time.Day()]++
	}
	assert.Len(t, perDay, 20)
	for day, n := range perDay {
		assert.InDelta(t, 288, n, 2, "day %d", day)
	}

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Time,Ask,Bid,AskVolume,BidVolume\n01.02.2017 00:")
}

func TestGenerateMonthRejectsBadInput(t *testing.T) {
	_, err := generateMonth(context.Background(), archiveOptions{Pair: "EURO", Dir: t.TempDir(), Year: 2017, Month: 1})
	assert.ErrorIs(t, err, pricing.ErrInvalidPair)
	_, err = generateMonth(context.Background(), archiveOptions{Pair: "EURUSD", Dir: t.TempDir(), Year: 2017, Month: 13})
	assert.Error(t, err)
}
