package oanda

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"fxfeed/pkg/pricing"
)

// lineKind classifies one line of the price stream.
type lineKind int

const (
	lineBlank lineKind = iota
	lineMalformed
	lineHeartbeat
	lineOther
	lineTick
)

// quote is a tick as read off the wire, before quantization.
type quote struct {
	instrument string
	time       time.Time
	bid        string
	ask        string
}

func classify(line []byte) (lineKind, gjson.Result) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return lineBlank, gjson.Result{}
	}
	if !gjson.ValidBytes(line) {
		return lineMalformed, gjson.Result{}
	}
	doc := gjson.ParseBytes(line)
	if tick := doc.Get("tick"); tick.IsObject() {
		return lineTick, tick
	}
	if doc.Get("heartbeat").Exists() {
		return lineHeartbeat, doc
	}
	return lineOther, doc
}

func parseQuote(tick gjson.Result) (quote, error) {
	q := quote{instrument: pricing.NormalizeInstrument(tick.Get("instrument").String())}
	if q.instrument == "" {
		return q, fmt.Errorf("oanda: tick without instrument: %s", tick.Raw)
	}
	var err error
	if q.bid, err = priceText(tick.Get("bid")); err != nil {
		return q, fmt.Errorf("oanda: %s bid: %w", q.instrument, err)
	}
	if q.ask, err = priceText(tick.Get("ask")); err != nil {
		return q, fmt.Errorf("oanda: %s ask: %w", q.instrument, err)
	}
	if q.time, err = parseTimestamp(tick.Get("time")); err != nil {
		return q, fmt.Errorf("oanda: %s time: %w", q.instrument, err)
	}
	return q, nil
}

// priceText returns the literal number text so that no binary float sits
// between the wire and the decimal.
func priceText(v gjson.Result) (string, error) {
	switch v.Type {
	case gjson.Number:
		return v.Raw, nil
	case gjson.String:
		return v.Str, nil
	default:
		return "", fmt.Errorf("%w: %s", pricing.ErrInvalidPriceFormat, strings.TrimSpace(v.Raw))
	}
}

// parseTimestamp accepts RFC3339 strings and UNIX microsecond values, the two
// datetime formats the stream can be asked for.
func parseTimestamp(v gjson.Result) (time.Time, error) {
	var raw string
	switch v.Type {
	case gjson.String:
		raw = v.Str
	case gjson.Number:
		raw = v.Raw
	default:
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts.UTC(), nil
	}
	micros, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
	}
	return time.UnixMicro(micros).UTC(), nil
}
