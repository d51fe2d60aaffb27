package main

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"fxfeed/internal/cli"
	"fxfeed/internal/config"
	"fxfeed/internal/svc"
	"fxfeed/pkg/journal"
	"fxfeed/pkg/pricing"
)

// runFeed pumps every selected handler into one channel drained by a single
// journal writer. It returns the number of ticks written. Cancelling ctx is a
// clean shutdown.
func runFeed(ctx context.Context, cfg *config.Config) (int, error) {
	svcCtx, err := svc.NewServiceContext(*cfg)
	if err != nil {
		return 0, err
	}

	format, err := journal.ParseFormat(cfg.Output.Format)
	if err != nil {
		return 0, err
	}
	writer, err := journal.Create(cfg.Output.Path, format)
	if err != nil {
		return 0, err
	}

	opts := []pricing.PumpOption{pricing.WithLimit(cfg.Feed.Limit)}
	if d := cfg.Interval(); d > 0 {
		opts = append(opts, pricing.WithInterval(d))
	}

	sink := make(chan pricing.TickEvent, cfg.Feed.Buffer)
	written := make(chan error, 1)
	go func() {
		var werr error
		for tick := range sink {
			if werr != nil {
				continue
			}
			werr = writer.Write(tick)
		}
		written <- werr
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range svcCtx.Order {
		h := svcCtx.Handlers[name]
		g.Go(func() error {
			if err := h.Initialize(gctx, svcCtx.HandlerConfig(name)); err != nil {
				return err
			}
			defer h.Close()
			n, err := pricing.Pump(gctx, h, sink, opts...)
			logx.WithContext(gctx).Infof("fxfeed: handler %s forwarded %d ticks", name, n)
			cli.LogQuoteSummary(name, h.Prices())
			return err
		})
	}

	err = g.Wait()
	close(sink)
	err = errors.Join(ignoreShutdown(ctx, err), <-written, writer.Close())
	return writer.Count(), err
}

func ignoreShutdown(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
