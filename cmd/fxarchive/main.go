package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"fxfeed/pkg/confkit"
)

var (
	pair  = flag.String("pair", "GBPUSD", "currency pair to simulate")
	dir   = flag.String("dir", "", "archive directory (default $FXFEED_CSV_DIR or data/ticks)")
	year  = flag.Int("year", 0, "year to generate (default current)")
	month = flag.Int("month", 0, "month to generate, 1-12 (default current)")
	seed  = flag.Int64("seed", 42, "random walk seed")
)

func main() {
	flag.Parse()
	confkit.LoadDotenvOnce()
	logx.MustSetup(logx.LogConf{ServiceName: "fxarchive", Mode: "console", Encoding: "plain"})
	defer logx.Close()

	now := time.Now()
	opts := archiveOptions{
		Pair:  *pair,
		Dir:   *dir,
		Year:  *year,
		Month: time.Month(*month),
		Seed:  *seed,
	}
	if opts.Dir == "" {
		opts.Dir = confkit.EnvOr("FXFEED_CSV_DIR", "data/ticks")
	}
	if opts.Year == 0 {
		opts.Year = now.Year()
	}
	if opts.Month == 0 {
		opts.Month = now.Month()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := generateMonth(ctx, opts)
	if err != nil {
		logx.Errorf("fxarchive: %v", err)
		logx.Close()
		os.Exit(1)
	}
	logx.Infof("fxarchive: wrote %d files to %s", len(files), opts.Dir)
}
