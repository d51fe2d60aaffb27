package pricing

import "context"

// Handler produces normalized ticks from one price source. Implementations are
// driven by a single caller: Initialize once, then Next until it reports
// exhaustion or an error, then Close.
type Handler interface {
	// Name returns the configured handler name.
	Name() string
	// Initialize builds the price table and opens the underlying source.
	Initialize(ctx context.Context, cfg *HandlerConfig) error
	// Next advances the source by one tick. ok=false with a nil error means the
	// source is exhausted; every later call reports the same.
	Next(ctx context.Context) (tick *TickEvent, ok bool, err error)
	// Prices exposes the handler's price table. Nil before Initialize.
	Prices() *PriceTable
	// Close releases the source.
	Close() error
}
