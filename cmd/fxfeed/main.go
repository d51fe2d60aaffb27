package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeromicro/go-zero/core/logx"

	"fxfeed/internal/cli"
	"fxfeed/internal/config"

	// Register price handler types.
	_ "fxfeed/pkg/pricing/historic"
	_ "fxfeed/pkg/pricing/oanda"
	_ "fxfeed/pkg/pricing/synthetic"
)

var (
	configFile = flag.String("f", "etc/fxfeed.yaml", "the config file")
	limit      = flag.Int("n", -1, "stop each handler after n ticks (overrides Feed.Limit when >= 0)")
	output     = flag.String("o", "", "tick output path (overrides Output.Path)")
)

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	logx.MustSetup(cfg.Log)
	defer logx.Close()

	if *limit >= 0 {
		cfg.Feed.Limit = *limit
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	cli.LogConfigSummary(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total, err := runFeed(ctx, cfg)
	if err != nil {
		logx.Errorf("fxfeed: %v", err)
		logx.Close()
		os.Exit(1)
	}
	logx.Infof("fxfeed: wrote %d ticks", total)
}
