package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"fxfeed/pkg/pricing"
)

// TickWriter appends ticks to a stream in one Format.
type TickWriter struct {
	format Format
	buf    *bufio.Writer
	json   *json.Encoder
	mp     *msgpack.Encoder
	closer io.Closer
	count  int
}

// NewTickWriter wraps w. Call Flush (or Close) to push buffered records.
func NewTickWriter(w io.Writer, format Format) (*TickWriter, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	tw := &TickWriter{format: format, buf: bufio.NewWriter(w)}
	switch format {
	case FormatMsgpack:
		tw.mp = msgpack.NewEncoder(tw.buf)
	default:
		tw.json = json.NewEncoder(tw.buf)
	}
	return tw, nil
}

// Create opens path for appending, creating parent directories, and returns a
// writer that owns the file. The path "-" writes to stdout.
func Create(path string, format Format) (*TickWriter, error) {
	if path == "" || path == "-" {
		return NewTickWriter(os.Stdout, format)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	tw, err := NewTickWriter(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	tw.closer = f
	return tw, nil
}

// Write appends one tick.
func (w *TickWriter) Write(tick pricing.TickEvent) error {
	rec := NewTickRecord(tick)
	var err error
	if w.mp != nil {
		err = w.mp.Encode(&rec)
	} else {
		err = w.json.Encode(&rec)
	}
	if err != nil {
		return fmt.Errorf("journal: encode %s tick: %w", w.format, err)
	}
	w.count++
	return nil
}

// Count is the number of ticks written so far.
func (w *TickWriter) Count() int { return w.count }

// Flush pushes buffered records to the underlying writer.
func (w *TickWriter) Flush() error {
	return w.buf.Flush()
}

// Close flushes and, for writers from Create, closes the file.
func (w *TickWriter) Close() error {
	err := w.Flush()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
		w.closer = nil
	}
	return err
}
