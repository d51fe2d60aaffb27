package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

type pumpOptions struct {
	limit    int
	interval time.Duration
}

// PumpOption customises Pump.
type PumpOption func(*pumpOptions)

// WithLimit stops the pump after n ticks. Zero or negative means unlimited.
func WithLimit(n int) PumpOption {
	return func(o *pumpOptions) { o.limit = n }
}

// WithInterval waits d between ticks.
func WithInterval(d time.Duration) PumpOption {
	return func(o *pumpOptions) { o.interval = d }
}

// Pump forwards ticks from an initialized handler into sink until the handler
// is exhausted, an error occurs, the limit is reached or ctx is cancelled. It
// returns how many ticks were forwarded. Exhaustion is not an error.
func Pump(ctx context.Context, h Handler, sink chan<- TickEvent, opts ...PumpOption) (int, error) {
	var o pumpOptions
	for _, opt := range opts {
		opt(&o)
	}

	var ticker *time.Ticker
	if o.interval > 0 {
		ticker = time.NewTicker(o.interval)
		defer ticker.Stop()
	}

	sent := 0
	for o.limit <= 0 || sent < o.limit {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		tick, ok, err := h.Next(ctx)
		if err != nil {
			return sent, fmt.Errorf("pump %s: %w", h.Name(), err)
		}
		if !ok {
			logx.WithContext(ctx).Infof("pricing: handler %s exhausted after %d ticks", h.Name(), sent)
			return sent, nil
		}
		select {
		case sink <- *tick:
			sent++
		case <-ctx.Done():
			return sent, ctx.Err()
		}
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return sent, ctx.Err()
			}
		}
	}
	return sent, nil
}
