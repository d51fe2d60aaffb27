package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EventTypeTick labels tick events for downstream consumers.
const EventTypeTick = "TICK"

// TickEvent is the canonical bid/ask observation emitted by every handler.
type TickEvent struct {
	Instrument string
	Time       time.Time
	Bid        decimal.Decimal
	Ask        decimal.Decimal
}

// Type returns the event type label.
func (e TickEvent) Type() string { return EventTypeTick }

// Spread is ask minus bid.
func (e TickEvent) Spread() decimal.Decimal {
	return e.Ask.Sub(e.Bid)
}

func (e TickEvent) String() string {
	return fmt.Sprintf("Type: %s, Instrument: %s, Time: %s, Bid: %s, Ask: %s",
		EventTypeTick, e.Instrument, e.Time.Format(time.RFC3339Nano), FormatPrice(e.Bid), FormatPrice(e.Ask))
}
