package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// divisionPrecision bounds the digits kept by 1/x before quantization.
const divisionPrecision int32 = 20

var one = decimal.NewFromInt(1)

// ValidatePair checks that pair is six upper-case ASCII letters.
func ValidatePair(pair string) error {
	if len(pair) != 6 {
		return fmt.Errorf("%w: %q", ErrInvalidPair, pair)
	}
	for i := 0; i < len(pair); i++ {
		if pair[i] < 'A' || pair[i] > 'Z' {
			return fmt.Errorf("%w: %q", ErrInvalidPair, pair)
		}
	}
	return nil
}

// ReciprocalSymbol swaps base and quote, e.g. GBPUSD -> USDGBP.
func ReciprocalSymbol(pair string) (string, error) {
	if err := ValidatePair(pair); err != nil {
		return "", err
	}
	return pair[3:] + pair[:3], nil
}

// NormalizeInstrument strips broker separators and upper-cases the symbol,
// e.g. "eur_usd" -> "EURUSD".
func NormalizeInstrument(symbol string) string {
	r := strings.NewReplacer("_", "", "/", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(symbol)))
}

// BrokerInstrument renders a pair in underscore form, e.g. EURUSD -> EUR_USD.
func BrokerInstrument(pair string) string {
	if len(pair) != 6 {
		return pair
	}
	return pair[:3] + "_" + pair[3:]
}

// InvertPair derives the reciprocal quote. The reciprocal bid comes from the
// original ask and the reciprocal ask from the original bid.
func InvertPair(pair string, bid, ask decimal.Decimal) (string, decimal.Decimal, decimal.Decimal, error) {
	invPair, err := ReciprocalSymbol(pair)
	if err != nil {
		return "", decimal.Zero, decimal.Zero, err
	}
	if bid.IsZero() || ask.IsZero() {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s bid=%s ask=%s", ErrDivisionByZero, pair, bid, ask)
	}
	invBid := RoundHalfDown(one.DivRound(ask, divisionPrecision), Places)
	invAsk := RoundHalfDown(one.DivRound(bid, divisionPrecision), Places)
	return invPair, invBid, invAsk, nil
}
