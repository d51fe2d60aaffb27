// Package journal persists emitted ticks: line-delimited JSON or msgpack
// streams for downstream consumers, and day archives in the CSV layout the
// historic handler replays.
package journal

import (
	"fmt"
	"strings"
	"time"

	"fxfeed/pkg/pricing"
)

// Format selects the tick stream encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat accepts json or msgpack, case-insensitively. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("journal: unsupported format %q", s)
	}
}

// TickRecord is the wire form of a tick. Prices travel as fixed 5-digit
// strings.
type TickRecord struct {
	Type       string `json:"type" msgpack:"type"`
	Instrument string `json:"instrument" msgpack:"instrument"`
	Time       string `json:"time" msgpack:"time"`
	Bid        string `json:"bid" msgpack:"bid"`
	Ask        string `json:"ask" msgpack:"ask"`
}

// NewTickRecord converts a tick to its wire form.
func NewTickRecord(tick pricing.TickEvent) TickRecord {
	return TickRecord{
		Type:       tick.Type(),
		Instrument: tick.Instrument,
		Time:       tick.Time.Format(time.RFC3339Nano),
		Bid:        pricing.FormatPrice(tick.Bid),
		Ask:        pricing.FormatPrice(tick.Ask),
	}
}

// Tick parses the record back into a tick.
func (r TickRecord) Tick() (pricing.TickEvent, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Time)
	if err != nil {
		return pricing.TickEvent{}, fmt.Errorf("journal: %s time: %w", r.Instrument, err)
	}
	bid, err := pricing.Quantize(r.Bid)
	if err != nil {
		return pricing.TickEvent{}, fmt.Errorf("journal: %s bid: %w", r.Instrument, err)
	}
	ask, err := pricing.Quantize(r.Ask)
	if err != nil {
		return pricing.TickEvent{}, fmt.Errorf("journal: %s ask: %w", r.Instrument, err)
	}
	return pricing.TickEvent{Instrument: r.Instrument, Time: ts, Bid: bid, Ask: ask}, nil
}
