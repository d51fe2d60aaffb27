package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"fxfeed/pkg/journal"
	"fxfeed/pkg/pricing"
	"fxfeed/pkg/pricing/historic"
	"fxfeed/pkg/pricing/synthetic"
)

type archiveOptions struct {
	Pair  string
	Dir   string
	Year  int
	Month time.Month
	Seed  int64
	// GapMeanMs overrides the synthetic tick spacing when positive.
	GapMeanMs float64
}

// monthWeekdays lists Monday to Friday dates of month in UTC.
func monthWeekdays(year int, month time.Month) []time.Time {
	var days []time.Time
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}

// generateMonth writes one archive file per weekday, each holding a continuous
// random walk from midnight until the clock crosses into the next day.
func generateMonth(ctx context.Context, opts archiveOptions) ([]string, error) {
	pair := pricing.NormalizeInstrument(opts.Pair)
	if err := pricing.ValidatePair(pair); err != nil {
		return nil, err
	}
	if opts.Month < time.January || opts.Month > time.December {
		return nil, fmt.Errorf("invalid month %d", opts.Month)
	}
	days := monthWeekdays(opts.Year, opts.Month)
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	seed := opts.Seed
	cfg := &pricing.HandlerConfig{Instrument: pair, Seed: &seed, StartTime: days[0]}
	if opts.GapMeanMs > 0 {
		cfg.GapMeanMs = &opts.GapMeanMs
	}
	walk := synthetic.New("archive")
	if err := walk.Initialize(ctx, cfg); err != nil {
		return nil, err
	}
	defer walk.Close()
	volumes := rand.New(synthetic.NewSource(seed + 1))

	files := make([]string, 0, len(days))
	for _, day := range days {
		path := filepath.Join(opts.Dir, historic.FileName(pair, day, "csv"))
		if err := writeDay(ctx, walk, day, path, volumes); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeDay(ctx context.Context, walk *synthetic.Handler, day time.Time, path string, volumes *rand.Rand) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	walk.Seek(day)
	midnight := day.AddDate(0, 0, 1)
	out := journal.NewArchiveWriter(f, volumes)
	for {
		tick, ok, err := walk.Next(ctx)
		if err != nil {
			return err
		}
		if !ok || !walk.Clock().Before(midnight) {
			break
		}
		if err := out.Write(*tick); err != nil {
			return err
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logx.WithContext(ctx).Infof("fxarchive: %s (%d ticks)", path, out.Rows())
	return nil
}
