// Package synthetic generates an endless random walk of ticks for a single
// instrument. The walk is fully determined by its seed and start time.
package synthetic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"fxfeed/pkg/pricing"
)

// TypeName is the handler type used in pricing configuration.
const TypeName = "synthetic"

const (
	DefaultInstrument  = "EURUSD"
	DefaultGapMeanMs   = 1400.0
	DefaultGapStdDevMs = 100.0
	DefaultSeed        = int64(42)
	msPerDay           = 1000.0 * 86400.0
)

var (
	DefaultBasePrice = decimal.RequireFromString("1.1")
	DefaultSpread    = decimal.RequireFromString("0.002")
)

func init() {
	pricing.RegisterHandler(TypeName, func(name string, _ *pricing.HandlerConfig) (pricing.Handler, error) {
		return New(name), nil
	})
}

// Handler walks bid and ask together. Each step advances the clock by
// |N(mean, stddev)| milliseconds and shifts both prices by a normal draw
// scaled to that gap expressed in days.
type Handler struct {
	name string
	now  func() time.Time

	src        *Source
	instrument string
	bid, ask   decimal.Decimal
	clock      time.Time
	gapMean    float64
	gapStd     float64
	table      *pricing.PriceTable

	initialized bool
	closed      bool
}

// New returns an uninitialized synthetic handler.
func New(name string) *Handler {
	return &Handler{name: name, now: time.Now}
}

func (h *Handler) Name() string { return h.name }

func (h *Handler) Prices() *pricing.PriceTable { return h.table }

// Initialize seeds the walk. Unset fields take the package defaults and an
// unset start time means now.
func (h *Handler) Initialize(ctx context.Context, cfg *pricing.HandlerConfig) error {
	if h.initialized {
		return fmt.Errorf("synthetic %s: %w", h.name, pricing.ErrAlreadyInitialized)
	}
	if cfg == nil {
		return errors.New("synthetic: nil config")
	}
	if err := cfg.Normalise(h.name); err != nil {
		return err
	}

	instrument := cfg.Instrument
	if instrument == "" {
		instrument = DefaultInstrument
	}
	table, err := pricing.NewInstrumentTable(instrument)
	if err != nil {
		return fmt.Errorf("synthetic: %w", err)
	}

	base, spread := cfg.BasePrice, cfg.Spread
	if base.IsZero() {
		base = DefaultBasePrice
	}
	if spread.IsZero() {
		spread = DefaultSpread
	}
	if base.Sign() < 0 || spread.Sign() < 0 {
		return fmt.Errorf("synthetic: base_price %s and spread %s must be positive", base, spread)
	}
	half := spread.Div(decimal.NewFromInt(2))
	ask, err := pricing.Quantize(base.Add(half))
	if err != nil {
		return err
	}
	bid, err := pricing.Quantize(base.Sub(half))
	if err != nil {
		return err
	}
	if bid.Sign() <= 0 {
		return fmt.Errorf("synthetic: spread %s too wide for base_price %s", spread, base)
	}

	gapMean, gapStd := DefaultGapMeanMs, DefaultGapStdDevMs
	if cfg.GapMeanMs != nil {
		gapMean = *cfg.GapMeanMs
	}
	if cfg.GapStdDevMs != nil {
		gapStd = *cfg.GapStdDevMs
	}
	if gapMean < 0 || gapStd < 0 || math.IsNaN(gapMean) || math.IsNaN(gapStd) {
		return fmt.Errorf("synthetic: gap_mean_ms %v and gap_stddev_ms %v must be non-negative", gapMean, gapStd)
	}
	seed := DefaultSeed
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	start := cfg.StartTime
	if start.IsZero() {
		start = h.now().UTC()
	}

	h.src = NewSource(seed)
	h.instrument = instrument
	h.bid, h.ask = bid, ask
	h.clock = start
	h.gapMean, h.gapStd = gapMean, gapStd
	h.table = table
	h.initialized = true
	logx.WithContext(ctx).Infof("synthetic %s: %s walk from bid=%s ask=%s at %s (seed %d)",
		h.name, instrument, pricing.FormatPrice(bid), pricing.FormatPrice(ask), start.Format(time.RFC3339), seed)
	return nil
}

// Next takes one step of the walk. It only reports exhaustion after Close.
func (h *Handler) Next(ctx context.Context) (*pricing.TickEvent, bool, error) {
	if !h.initialized {
		return nil, false, pricing.ErrNotInitialized
	}
	if h.closed {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	gap := math.Abs(h.gapMean + h.gapStd*h.src.NormFloat64())
	shift, err := pricing.Quantize(h.src.NormFloat64() * gap / msPerDay)
	if err != nil {
		return nil, false, fmt.Errorf("synthetic: %w", err)
	}
	h.ask = h.ask.Add(shift)
	h.bid = h.bid.Add(shift)
	h.clock = h.clock.Add(time.Duration(math.Round(gap*1000)) * time.Microsecond)

	if err := h.table.Update(h.instrument, h.bid, h.ask, h.clock); err != nil {
		return nil, false, fmt.Errorf("synthetic: %w", err)
	}
	return &pricing.TickEvent{Instrument: h.instrument, Time: h.clock, Bid: h.bid, Ask: h.ask}, true, nil
}

// Seek moves the walk clock to t, keeping the current prices.
func (h *Handler) Seek(t time.Time) {
	h.clock = t
}

// Clock is the timestamp of the last emitted tick, or the start time.
func (h *Handler) Clock() time.Time { return h.clock }

// Close ends the walk.
func (h *Handler) Close() error {
	h.closed = true
	return nil
}
