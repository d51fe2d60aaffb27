// Package historic replays archived tick files as if they were a live feed.
//
// An archive is a directory of files named <PAIR>_<YYYYMMDD>.<ext>. Each file
// holds one day of Time,Ask,Bid[,AskVolume,BidVolume] rows. Days are replayed
// in ascending order and, within a day, rows of all pairs are merged by time.
package historic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"fxfeed/pkg/pricing"
)

// TypeName is the handler type used in pricing configuration.
const TypeName = "historic"

const defaultExtension = "csv"

func init() {
	pricing.RegisterHandler(TypeName, func(name string, _ *pricing.HandlerConfig) (pricing.Handler, error) {
		return New(name), nil
	})
}

// Handler replays archive files day by day.
type Handler struct {
	name  string
	dir   string
	ext   string
	loc   *time.Location
	pairs []string
	table *pricing.PriceTable

	days   []string
	dayIdx int
	rows   []row
	pos    int

	initialized bool
	exhausted   bool
}

// New returns an uninitialized historic handler.
func New(name string) *Handler {
	return &Handler{name: name}
}

func (h *Handler) Name() string { return h.name }

func (h *Handler) Prices() *pricing.PriceTable { return h.table }

// Initialize discovers archive days for the configured pairs and loads the
// first one.
func (h *Handler) Initialize(ctx context.Context, cfg *pricing.HandlerConfig) error {
	if h.initialized {
		return fmt.Errorf("historic %s: %w", h.name, pricing.ErrAlreadyInitialized)
	}
	if cfg == nil {
		return errors.New("historic: nil config")
	}
	if err := cfg.Normalise(h.name); err != nil {
		return err
	}
	if len(cfg.Pairs) == 0 {
		return errors.New("historic: at least one pair is required")
	}
	if cfg.CSVDir == "" {
		return errors.New("historic: csv_dir is required")
	}

	table, err := pricing.NewPriceTable(cfg.Pairs)
	if err != nil {
		return fmt.Errorf("historic: %w", err)
	}
	loc := time.UTC
	if cfg.Location != "" {
		if loc, err = time.LoadLocation(cfg.Location); err != nil {
			return fmt.Errorf("historic: location %q: %w", cfg.Location, err)
		}
	}
	ext := cfg.Extension
	if ext == "" {
		ext = defaultExtension
	}

	days, err := listDays(cfg.CSVDir, ext, cfg.Pairs)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("historic: %s: %w", cfg.CSVDir, pricing.ErrEmptyArchive)
	}
	rows, err := loadDay(cfg.CSVDir, ext, days[0], cfg.Pairs, loc)
	if err != nil {
		return err
	}

	h.dir, h.ext, h.loc = cfg.CSVDir, ext, loc
	h.pairs = append([]string(nil), cfg.Pairs...)
	h.table = table
	h.days, h.dayIdx = days, 0
	h.rows, h.pos = rows, 0
	h.initialized = true
	logx.WithContext(ctx).Infof("historic %s: %d pairs, %d archive days from %s to %s",
		h.name, len(h.pairs), len(days), days[0], days[len(days)-1])
	return nil
}

// Next returns the next archived tick. Once the last day is drained every call
// reports exhaustion.
func (h *Handler) Next(ctx context.Context) (*pricing.TickEvent, bool, error) {
	if !h.initialized {
		return nil, false, pricing.ErrNotInitialized
	}
	for !h.exhausted && h.pos >= len(h.rows) {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if err := h.advanceDay(ctx); err != nil {
			return nil, false, err
		}
	}
	if h.exhausted {
		return nil, false, nil
	}

	r := h.rows[h.pos]
	h.pos++
	if err := h.table.Update(r.pair, r.bid, r.ask, r.time); err != nil {
		return nil, false, fmt.Errorf("historic: %s: %w", r.src, err)
	}
	return &pricing.TickEvent{Instrument: r.pair, Time: r.time, Bid: r.bid, Ask: r.ask}, true, nil
}

func (h *Handler) advanceDay(ctx context.Context) error {
	if h.dayIdx+1 >= len(h.days) {
		h.exhausted = true
		h.rows = nil
		logx.WithContext(ctx).Infof("historic %s: archive exhausted", h.name)
		return nil
	}
	h.dayIdx++
	rows, err := loadDay(h.dir, h.ext, h.days[h.dayIdx], h.pairs, h.loc)
	if err != nil {
		return err
	}
	logx.WithContext(ctx).Debugf("historic %s: loaded %s with %d rows", h.name, h.days[h.dayIdx], len(rows))
	h.rows, h.pos = rows, 0
	return nil
}

// Close drops buffered rows. Later Next calls report exhaustion.
func (h *Handler) Close() error {
	h.rows = nil
	h.exhausted = true
	return nil
}
