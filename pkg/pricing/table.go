package pricing

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is the latest quote held for one symbol. Bid and Ask stay invalid and
// Time stays zero until the first update.
type Entry struct {
	Bid  decimal.NullDecimal
	Ask  decimal.NullDecimal
	Time time.Time
}

// Ready reports whether the entry has received a quote.
func (e Entry) Ready() bool {
	return e.Bid.Valid && e.Ask.Valid
}

// PriceTable maps symbols to their latest quote. For every quoted pair it also
// tracks the reciprocal pair, updated in the same call.
type PriceTable struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	reciprocal map[string]string // quoted pair -> reciprocal symbol
}

// NewPriceTable builds a table for pairs and their reciprocals.
func NewPriceTable(pairs []string) (*PriceTable, error) {
	t := &PriceTable{
		entries:    make(map[string]*Entry, len(pairs)*2),
		reciprocal: make(map[string]string, len(pairs)),
	}
	for _, pair := range pairs {
		inv, err := ReciprocalSymbol(pair)
		if err != nil {
			return nil, err
		}
		t.entries[pair] = &Entry{}
		t.entries[inv] = &Entry{}
		t.reciprocal[pair] = inv
	}
	return t, nil
}

// NewInstrumentTable builds a single-symbol table without a reciprocal entry.
func NewInstrumentTable(symbol string) (*PriceTable, error) {
	if err := ValidatePair(symbol); err != nil {
		return nil, err
	}
	return &PriceTable{
		entries:    map[string]*Entry{symbol: {}},
		reciprocal: map[string]string{},
	}, nil
}

// Update stores an already quantized quote for pair and, when tracked, the
// inverted quote for its reciprocal.
func (t *PriceTable) Update(pair string, bid, ask decimal.Decimal, ts time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[pair]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPair, pair)
	}
	inv, hasInv := t.reciprocal[pair]
	var invBid, invAsk decimal.Decimal
	if hasInv {
		var err error
		if _, invBid, invAsk, err = InvertPair(pair, bid, ask); err != nil {
			return err
		}
	}

	entry.Bid = decimal.NewNullDecimal(bid)
	entry.Ask = decimal.NewNullDecimal(ask)
	entry.Time = ts
	if hasInv {
		invEntry := t.entries[inv]
		invEntry.Bid = decimal.NewNullDecimal(invBid)
		invEntry.Ask = decimal.NewNullDecimal(invAsk)
		invEntry.Time = ts
	}
	return nil
}

// Get returns a copy of the entry for symbol.
func (t *PriceTable) Get(symbol string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[symbol]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Reciprocal returns the reciprocal symbol tracked for a quoted pair.
func (t *PriceTable) Reciprocal(pair string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	inv, ok := t.reciprocal[pair]
	return inv, ok
}

// Symbols lists every tracked symbol in lexical order.
func (t *PriceTable) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.entries))
	for sym := range t.entries {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Snapshot copies all entries.
func (t *PriceTable) Snapshot() map[string]Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Entry, len(t.entries))
	for sym, entry := range t.entries {
		out[sym] = *entry
	}
	return out
}
