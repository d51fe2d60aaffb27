package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"fxfeed/pkg/pricing"
)

// ReadTicks decodes every record of a stream written by TickWriter.
func ReadTicks(r io.Reader, format Format) ([]pricing.TickEvent, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	var next func(*TickRecord) error
	switch format {
	case FormatMsgpack:
		dec := msgpack.NewDecoder(bufio.NewReader(r))
		next = func(rec *TickRecord) error { return dec.Decode(rec) }
	default:
		scanner := bufio.NewScanner(r)
		next = func(rec *TickRecord) error {
			for scanner.Scan() {
				line := bytes.TrimSpace(scanner.Bytes())
				if len(line) == 0 {
					continue
				}
				return json.Unmarshal(line, rec)
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			return io.EOF
		}
	}

	var ticks []pricing.TickEvent
	for {
		var rec TickRecord
		if err := next(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return ticks, nil
			}
			return nil, fmt.Errorf("journal: decode record %d: %w", len(ticks)+1, err)
		}
		tick, err := rec.Tick()
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}
}
