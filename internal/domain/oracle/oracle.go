// Package oracle maintains per-asset price quotes with confidence gating,
// deviation guarding, and staleness checks.
package oracle

import (
	"fmt"
	"math/big"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// Default aggregator configuration constants.
const (
	defaultMaxAge          = time.Hour
	defaultMinConfidence   = 50
	defaultMaxDeviationBps = 1_000 // 10%
)

// AssetConfig overrides the aggregator defaults for a single asset.
type AssetConfig struct {
	MinConfidence   int
	MaxDeviationBps int
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithMaxAge sets the maximum quote age usable in live computations.
func WithMaxAge(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.maxAge = d
		}
	}
}

// WithMinConfidence sets the default minimum confidence for accepted quotes.
func WithMinConfidence(c int) Option {
	return func(a *Aggregator) {
		if c >= 0 && c <= 100 {
			a.minConfidence = c
		}
	}
}

// WithMaxDeviationBps sets the default deviation bound in basis points.
func WithMaxDeviationBps(bps int) Option {
	return func(a *Aggregator) {
		if bps > 0 {
			a.maxDeviationBps = bps
		}
	}
}

// WithAssetConfig sets per-asset overrides.
func WithAssetConfig(asset types.Currency, cfg AssetConfig) Option {
	return func(a *Aggregator) {
		a.assetCfg[asset] = cfg
	}
}

// Aggregator holds the last accepted quote per asset. It is not internally
// synchronized: the engine serializes all access.
type Aggregator struct {
	quotes          map[types.Currency]model.PriceQuote
	assetCfg        map[types.Currency]AssetConfig
	maxAge          time.Duration
	minConfidence   int
	maxDeviationBps int

	accepted uint64
	rejected uint64
}

// New constructs an Aggregator with defaults and options applied.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		quotes:          make(map[types.Currency]model.PriceQuote),
		assetCfg:        make(map[types.Currency]AssetConfig),
		maxAge:          defaultMaxAge,
		minConfidence:   defaultMinConfidence,
		maxDeviationBps: defaultMaxDeviationBps,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UpdateQuote replaces the asset's quote wholesale when accepted. Privileged
// sources bypass the deviation guard but not the confidence gate.
func (a *Aggregator) UpdateQuote(asset types.Currency, price int64, confidence int, source string, privileged bool, now time.Time) error {
	if asset == "" || price <= 0 {
		a.rejected++
		return fmt.Errorf("asset %q price %d: %w", asset, price, ErrInvalidQuote)
	}
	if confidence < 0 || confidence > 100 {
		a.rejected++
		return fmt.Errorf("confidence %d: %w", confidence, ErrInvalidQuote)
	}
	minConf, maxDev := a.minConfidence, a.maxDeviationBps
	if cfg, ok := a.assetCfg[asset]; ok {
		if cfg.MinConfidence > 0 {
			minConf = cfg.MinConfidence
		}
		if cfg.MaxDeviationBps > 0 {
			maxDev = cfg.MaxDeviationBps
		}
	}
	if confidence < minConf {
		a.rejected++
		return fmt.Errorf("confidence %d < %d: %w", confidence, minConf, ErrLowConfidence)
	}
	if prev, ok := a.quotes[asset]; ok && !privileged {
		if dev := deviationBps(prev.Price, price); dev > int64(maxDev) {
			a.rejected++
			return fmt.Errorf("deviation %d bps > %d bps: %w", dev, maxDev, ErrPriceDeviation)
		}
	}
	a.quotes[asset] = model.PriceQuote{
		Asset:      asset,
		Price:      price,
		At:         now,
		Confidence: confidence,
		Source:     source,
	}
	a.accepted++
	return nil
}

// GetQuote returns the last accepted quote, failing on staleness rather than
// silently returning an old value.
func (a *Aggregator) GetQuote(asset types.Currency, now time.Time) (model.PriceQuote, error) {
	q, ok := a.quotes[asset]
	if !ok {
		return model.PriceQuote{}, fmt.Errorf("asset %q: %w", asset, ErrNoPriceData)
	}
	if q.Age(now) > a.maxAge {
		return model.PriceQuote{}, fmt.Errorf("asset %q age %s: %w", asset, q.Age(now), ErrStalePrice)
	}
	return q, nil
}

// Convert computes amount priced in from-units as to-units, flooring the
// result. It returns zero when either quote is unavailable or stale; callers
// must treat zero as "conversion unavailable", never as a valid rate.
func (a *Aggregator) Convert(from, to types.Currency, amount int64, now time.Time) int64 {
	if amount <= 0 {
		return 0
	}
	fq, err := a.GetQuote(from, now)
	if err != nil {
		return 0
	}
	tq, err := a.GetQuote(to, now)
	if err != nil {
		return 0
	}
	// amount * priceFrom / priceTo with a wide intermediate so large ledgers
	// cannot overflow int64 mid-computation.
	n := new(big.Int).Mul(big.NewInt(amount), big.NewInt(fq.Price))
	n.Quo(n, big.NewInt(tq.Price))
	if !n.IsInt64() {
		return 0
	}
	return n.Int64()
}

// Stats reports accepted and rejected update counts.
func (a *Aggregator) Stats() (accepted, rejected uint64) {
	return a.accepted, a.rejected
}

// deviationBps returns |next-prev| relative to prev in basis points.
func deviationBps(prev, next int64) int64 {
	diff := next - prev
	if diff < 0 {
		diff = -diff
	}
	d := new(big.Int).Mul(big.NewInt(diff), big.NewInt(10_000))
	d.Quo(d, big.NewInt(prev))
	if !d.IsInt64() {
		return int64(^uint64(0) >> 1)
	}
	return d.Int64()
}
