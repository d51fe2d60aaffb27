package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every price carries.
const Places int32 = 5

// Quantize converts x to a decimal rounded to Places digits using round-half-down.
// Floats are converted through their shortest decimal representation so that
// binary rounding artifacts never reach the stored value.
func Quantize(x any) (decimal.Decimal, error) {
	d, err := toDecimal(x)
	if err != nil {
		return decimal.Zero, err
	}
	return RoundHalfDown(d, Places), nil
}

// MustQuantize is Quantize for values known to be numeric. It panics on error.
func MustQuantize(x any) decimal.Decimal {
	d, err := Quantize(x)
	if err != nil {
		panic(err)
	}
	return d
}

// RoundHalfDown rounds d to places fractional digits; ties go toward zero.
func RoundHalfDown(d decimal.Decimal, places int32) decimal.Decimal {
	truncated := d.Truncate(places)
	rem := d.Sub(truncated).Abs()
	half := decimal.New(5, -(places + 1))
	if !rem.GreaterThan(half) {
		return truncated
	}
	step := decimal.New(1, -places)
	if d.Sign() < 0 {
		return truncated.Sub(step)
	}
	return truncated.Add(step)
}

// FormatPrice renders a price with exactly Places fractional digits.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

func toDecimal(x any) (decimal.Decimal, error) {
	switch v := x.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, fmt.Errorf("%w: nil decimal", ErrInvalidPriceFormat)
		}
		return *v, nil
	case float64:
		return fromFloat(v, 64)
	case float32:
		return fromFloat(float64(v), 32)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case json.Number:
		return fromString(string(v))
	case string:
		return fromString(v)
	case []byte:
		return fromString(string(v))
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidPriceFormat, x)
	}
}

func fromFloat(f float64, bits int) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidPriceFormat, f)
	}
	return fromString(strconv.FormatFloat(f, 'f', -1, bits))
}

func fromString(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidPriceFormat)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPriceFormat, s)
	}
	return d, nil
}
