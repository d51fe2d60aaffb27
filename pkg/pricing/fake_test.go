package pricing_test

import (
	"context"
	"time"

	"fxfeed/pkg/pricing"
)

// scriptedHandler replays a fixed list of quotes for one pair.
type scriptedHandler struct {
	name   string
	quotes [][2]string
	pos    int
	table  *pricing.PriceTable
	err    error
	closed bool
}

func init() {
	pricing.RegisterHandler("scripted", func(name string, _ *pricing.HandlerConfig) (pricing.Handler, error) {
		return &scriptedHandler{name: name}, nil
	})
}

func (h *scriptedHandler) Name() string { return h.name }

func (h *scriptedHandler) Initialize(_ context.Context, cfg *pricing.HandlerConfig) error {
	table, err := pricing.NewPriceTable(cfg.Pairs)
	if err != nil {
		return err
	}
	h.table = table
	return nil
}

func (h *scriptedHandler) Next(context.Context) (*pricing.TickEvent, bool, error) {
	if h.pos >= len(h.quotes) {
		return nil, false, h.err
	}
	q := h.quotes[h.pos]
	h.pos++
	tick := &pricing.TickEvent{
		Instrument: "EURUSD",
		Time:       time.Unix(int64(h.pos), 0).UTC(),
		Bid:        pricing.MustQuantize(q[0]),
		Ask:        pricing.MustQuantize(q[1]),
	}
	if h.table != nil {
		if err := h.table.Update(tick.Instrument, tick.Bid, tick.Ask, tick.Time); err != nil {
			return nil, false, err
		}
	}
	return tick, true, nil
}

func (h *scriptedHandler) Prices() *pricing.PriceTable { return h.table }

func (h *scriptedHandler) Close() error {
	h.closed = true
	return nil
}
