package exchange_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/exchange"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/clock"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

type fixedQuotes struct {
	rate map[[2]types.Currency]int64
}

func (f fixedQuotes) Convert(from, to types.Currency, amount int64, _ time.Time) int64 {
	r, ok := f.rate[[2]types.Currency{from, to}]
	if !ok {
		return 0
	}
	return amount * r / types.UnitScale
}

func TestSwapAtOracleRateMinusSpread(t *testing.T) {
	quotes := fixedQuotes{rate: map[[2]types.Currency]int64{
		{"USDC", "XLM"}: 2 * types.UnitScale,
	}}
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	venue := exchange.NewMemory(quotes, clk, 30)

	out, err := venue.Swap(context.Background(), "USDC", "XLM", types.Units(1), 0)
	require.NoError(t, err)

	// 2.0 output minus 30 bps spread.
	expected := types.Units(2) - types.Units(2)*30/10_000
	assert.Equal(t, expected, out)
}

func TestSwapZeroSpread(t *testing.T) {
	quotes := fixedQuotes{rate: map[[2]types.Currency]int64{
		{"USDC", "XLM"}: types.UnitScale,
	}}
	clk := clock.NewManual(time.Now())
	venue := exchange.NewMemory(quotes, clk, -5) // negative clamps to zero

	out, err := venue.Swap(context.Background(), "USDC", "XLM", types.Units(3), 0)
	require.NoError(t, err)
	assert.Equal(t, types.Units(3), out)
}

func TestSwapNoLiquidity(t *testing.T) {
	clk := clock.NewManual(time.Now())
	venue := exchange.NewMemory(fixedQuotes{}, clk, 30)

	_, err := venue.Swap(context.Background(), "DOGE", "XLM", types.Units(1), 0)
	assert.ErrorIs(t, err, exchange.ErrNoLiquidity)
}
