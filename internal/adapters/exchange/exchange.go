// Package exchange adapts the external conversion capability. The in-memory
// implementation executes at the oracle rate minus a configurable spread,
// which is enough to exercise the router's slippage bound end to end.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// ErrNoLiquidity marks a pair the venue cannot execute.
var ErrNoLiquidity = errors.New("no liquidity for pair")

// Quotes is the oracle view the in-memory venue prices against.
type Quotes interface {
	Convert(from, to types.Currency, amount int64, now time.Time) int64
}

// Clock reads execution time for quote lookups.
type Clock interface {
	Now() time.Time
}

// Memory executes swaps at the oracle rate minus spreadBps.
type Memory struct {
	quotes    Quotes
	clock     Clock
	spreadBps int
}

// NewMemory creates an in-memory venue with the given spread.
func NewMemory(quotes Quotes, clk Clock, spreadBps int) *Memory {
	if spreadBps < 0 {
		spreadBps = 0
	}
	return &Memory{quotes: quotes, clock: clk, spreadBps: spreadBps}
}

// Swap implements the router's Exchange contract.
func (m *Memory) Swap(_ context.Context, from, to types.Currency, amount, _ int64) (int64, error) {
	rate := m.quotes.Convert(from, to, amount, m.clock.Now())
	if rate <= 0 {
		return 0, fmt.Errorf("%s -> %s: %w", from, to, ErrNoLiquidity)
	}
	return rate - rate*int64(m.spreadBps)/10_000, nil
}
