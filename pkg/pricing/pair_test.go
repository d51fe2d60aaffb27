package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxfeed/pkg/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestInvertPair(t *testing.T) {
	inv, bid, ask, err := pricing.InvertPair("XXXYYY", dec("1.09900"), dec("1.10100"))
	require.NoError(t, err)
	assert.Equal(t, "YYYXXX", inv)
	assert.Equal(t, "0.90827", pricing.FormatPrice(bid))
	assert.Equal(t, "0.90992", pricing.FormatPrice(ask))
}

func TestInvertPairRoundTrip(t *testing.T) {
	tolerance := dec("0.00001")
	quotes := [][2]string{
		{"1.09900", "1.10100"},
		{"1.27345", "1.27361"},
		{"0.71234", "0.71250"},
		{"1.50000", "1.50020"},
		{"0.95001", "0.95013"},
	}
	for _, q := range quotes {
		bid, ask := dec(q[0]), dec(q[1])
		inv, invBid, invAsk, err := pricing.InvertPair("GBPUSD", bid, ask)
		require.NoError(t, err)
		back, backBid, backAsk, err := pricing.InvertPair(inv, invBid, invAsk)
		require.NoError(t, err)
		assert.Equal(t, "GBPUSD", back)
		assert.True(t, backBid.Sub(bid).Abs().LessThanOrEqual(tolerance), "bid %s -> %s", bid, backBid)
		assert.True(t, backAsk.Sub(ask).Abs().LessThanOrEqual(tolerance), "ask %s -> %s", ask, backAsk)
	}
}

func TestInvertPairErrors(t *testing.T) {
	_, _, _, err := pricing.InvertPair("EURUSD", decimal.Zero, dec("1.1"))
	assert.ErrorIs(t, err, pricing.ErrDivisionByZero)
	_, _, _, err = pricing.InvertPair("EURUSD", dec("1.1"), decimal.Zero)
	assert.ErrorIs(t, err, pricing.ErrDivisionByZero)
	_, _, _, err = pricing.InvertPair("EURUS", dec("1.1"), dec("1.2"))
	assert.ErrorIs(t, err, pricing.ErrInvalidPair)
}

func TestPairHelpers(t *testing.T) {
	assert.NoError(t, pricing.ValidatePair("EURUSD"))
	for _, bad := range []string{"", "eurusd", "EUR_USD", "EURUSDX", "EUR1SD"} {
		assert.ErrorIs(t, pricing.ValidatePair(bad), pricing.ErrInvalidPair, bad)
	}

	inv, err := pricing.ReciprocalSymbol("GBPUSD")
	require.NoError(t, err)
	assert.Equal(t, "USDGBP", inv)

	assert.Equal(t, "EURUSD", pricing.NormalizeInstrument(" eur_usd "))
	assert.Equal(t, "GBPJPY", pricing.NormalizeInstrument("GBP/JPY"))
	assert.Equal(t, "EUR_USD", pricing.BrokerInstrument("EURUSD"))
	assert.Equal(t, "EUR", pricing.BrokerInstrument("EUR"))
}
