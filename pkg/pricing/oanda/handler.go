// Package oanda streams live prices from the OANDA v1 rates endpoint.
package oanda

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/zeromicro/go-zero/core/logx"

	"fxfeed/pkg/confkit"
	"fxfeed/pkg/pricing"
)

// TypeName is the handler type used in pricing configuration.
const TypeName = "oanda"

// Environment variables consulted when the configuration leaves a field empty.
const (
	EnvAccessToken = "OANDA_API_ACCESS_TOKEN"
	EnvAccountID   = "OANDA_API_ACCOUNT_ID"
	EnvDomain      = "OANDA_API_DOMAIN"
)

func init() {
	pricing.RegisterHandler(TypeName, func(name string, _ *pricing.HandlerConfig) (pricing.Handler, error) {
		return New(name), nil
	})
}

// Handler reads ticks from a long-lived HTTP stream.
type Handler struct {
	name string
	opts []Option

	table  *pricing.PriceTable
	body   io.ReadCloser
	reader *bufio.Reader
	cancel context.CancelFunc

	initialized bool
	exhausted   bool
	closed      atomic.Bool
	closeOnce   sync.Once
}

// New returns an uninitialized streaming handler. opts are applied to the
// client built during Initialize, after the configured values.
func New(name string, opts ...Option) *Handler {
	return &Handler{name: name, opts: opts}
}

func (h *Handler) Name() string { return h.name }

func (h *Handler) Prices() *pricing.PriceTable { return h.table }

// Initialize resolves credentials and opens the stream. A non-2xx response or
// transport failure yields ErrConnectionFailed.
func (h *Handler) Initialize(ctx context.Context, cfg *pricing.HandlerConfig) error {
	if h.initialized {
		return fmt.Errorf("oanda %s: %w", h.name, pricing.ErrAlreadyInitialized)
	}
	if cfg == nil {
		return errors.New("oanda: nil config")
	}
	confkit.LoadDotenvOnce()
	if err := cfg.Normalise(h.name); err != nil {
		return err
	}
	if len(cfg.Pairs) == 0 {
		return errors.New("oanda: at least one pair is required")
	}
	table, err := pricing.NewPriceTable(cfg.Pairs)
	if err != nil {
		return fmt.Errorf("oanda: %w", err)
	}

	client, err := h.buildClient(cfg)
	if err != nil {
		return err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)
	body, err := client.Open(streamCtx, cfg.Pairs)
	if !stop() || err != nil {
		cancel()
		if body != nil {
			body.Close()
		}
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("oanda %s: %w", h.name, err)
	}

	h.table = table
	h.body = body
	h.reader = bufio.NewReader(body)
	h.cancel = cancel
	h.initialized = true
	logx.WithContext(ctx).Infof("oanda %s: streaming %v from %s", h.name, cfg.Pairs, client.baseURL)
	return nil
}

func (h *Handler) buildClient(cfg *pricing.HandlerConfig) (*Client, error) {
	token := cfg.AccessToken
	if token == "" {
		token = confkit.EnvOr(EnvAccessToken, "")
	}
	if token == "" {
		return nil, fmt.Errorf("oanda: access_token is required (or set %s)", EnvAccessToken)
	}
	accountID := cfg.AccountID
	if accountID == "" {
		accountID = confkit.EnvOr(EnvAccountID, "")
	}

	domain := cfg.Domain
	if domain == "" && cfg.Environment == "" {
		domain = confkit.EnvOr(EnvDomain, "")
	}
	if domain == "" {
		var err error
		if domain, err = StreamDomain(cfg.Environment); err != nil {
			return nil, err
		}
	}

	opts := []Option{
		WithBaseURL(cfg.BaseURL),
		WithConnectTimeout(cfg.ConnectTimeout),
		WithDatetimeFormat(cfg.DatetimeFormat),
	}
	return NewClient(domain, token, accountID, append(opts, h.opts...)...), nil
}

// Next blocks until the stream delivers a tick for a configured pair. Heartbeats,
// malformed lines, ticks with missing or unreadable fields and ticks for other
// instruments are skipped. End of stream and
// reads failing after Close report exhaustion. Cancelling ctx tears the
// connection down.
func (h *Handler) Next(ctx context.Context) (*pricing.TickEvent, bool, error) {
	if !h.initialized {
		return nil, false, pricing.ErrNotInitialized
	}
	if h.exhausted {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	stop := context.AfterFunc(ctx, h.cancel)
	defer stop()

	for {
		line, readErr := h.reader.ReadBytes('\n')
		if len(line) > 0 {
			tick, err := h.processLine(ctx, line)
			if err != nil {
				return nil, false, err
			}
			if tick != nil {
				return tick, true, nil
			}
		}
		if readErr == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			h.exhausted = true
			return nil, false, ctxErr
		}
		if errors.Is(readErr, io.EOF) || h.closed.Load() {
			h.exhausted = true
			logx.WithContext(ctx).Infof("oanda %s: stream ended", h.name)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("oanda %s: read stream: %w", h.name, readErr)
	}
}

func (h *Handler) processLine(ctx context.Context, line []byte) (*pricing.TickEvent, error) {
	kind, doc := classify(line)
	switch kind {
	case lineBlank:
		return nil, nil
	case lineMalformed:
		logx.WithContext(ctx).Errorf("oanda %s: discarding malformed line: %q", h.name, line)
		return nil, nil
	case lineHeartbeat:
		logx.WithContext(ctx).Debugf("oanda %s: heartbeat %s", h.name, doc.Get("heartbeat.time").String())
		return nil, nil
	case lineOther:
		logx.WithContext(ctx).Debugf("oanda %s: ignoring message %s", h.name, doc.Raw)
		return nil, nil
	}

	q, err := parseQuote(doc)
	if err != nil {
		logx.WithContext(ctx).Errorf("oanda %s: discarding tick: %v", h.name, err)
		return nil, nil
	}
	if _, tracked := h.table.Reciprocal(q.instrument); !tracked {
		logx.WithContext(ctx).Infof("oanda %s: skipping tick for unsubscribed instrument %s", h.name, q.instrument)
		return nil, nil
	}
	bid, err := pricing.Quantize(q.bid)
	if err != nil {
		logx.WithContext(ctx).Errorf("oanda %s: discarding %s tick: bid: %v", h.name, q.instrument, err)
		return nil, nil
	}
	ask, err := pricing.Quantize(q.ask)
	if err != nil {
		logx.WithContext(ctx).Errorf("oanda %s: discarding %s tick: ask: %v", h.name, q.instrument, err)
		return nil, nil
	}
	if err := h.table.Update(q.instrument, bid, ask, q.time); err != nil {
		return nil, fmt.Errorf("oanda: %w", err)
	}
	return &pricing.TickEvent{Instrument: q.instrument, Time: q.time, Bid: bid, Ask: ask}, nil
}

// Close tears down the stream. It may be called from another goroutine to
// unblock a pending Next.
func (h *Handler) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		if h.cancel != nil {
			h.cancel()
		}
		if h.body != nil {
			err = h.body.Close()
		}
	})
	return err
}
