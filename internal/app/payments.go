package service

import (
	"context"
	"fmt"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/dev-tnsq/spacelink-sub000/pkg/logger"
	"github.com/dev-tnsq/spacelink-sub000/pkg/metrics"
)

// UpdateQuote submits a price quote. The admin identity is the privileged
// path that bypasses the deviation guard.
func (e *Engine) UpdateQuote(ctx context.Context, caller types.Identity, asset types.Currency, price int64, confidence int, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	privileged := caller == e.admin
	if err := e.oracle.UpdateQuote(asset, price, confidence, source, privileged, e.clock.Now()); err != nil {
		metrics.RecordQuoteRejected()
		return fmt.Errorf("quote for %s: %w", asset, err)
	}

	metrics.RecordQuoteAccepted()
	metrics.UpdateQuotePrice(string(asset), price)
	e.emit(model.EventPriceUpdated, model.PriceUpdatedPayload{
		Asset: asset, Price: price, Confidence: confidence, Source: source,
	})
	e.log.Info(ctx, "price quote accepted",
		logger.String("asset", string(asset)),
		logger.Int64("price", price),
		logger.Int("confidence", confidence),
	)
	return nil
}

// GetQuote returns the current quote for an asset, failing on staleness.
func (e *Engine) GetQuote(asset types.Currency) (model.PriceQuote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.oracle.GetQuote(asset, e.clock.Now())
}

// ConvertQuote converts an amount between assets at current quotes. A zero
// result means the conversion is unavailable, never a valid rate.
func (e *Engine) ConvertQuote(from, to types.Currency, amount int64) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.oracle.Convert(from, to, amount, e.clock.Now())
}

// RoutePayment moves value between two identities in one currency.
func (e *Engine) RoutePayment(ctx context.Context, currency types.Currency, payer, payee types.Identity, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return ErrSystemPaused
	}
	if err := e.router.RoutePayment(currency, payer, payee, amount); err != nil {
		return err
	}
	metrics.RecordPaymentRouted(string(currency))
	e.log.Info(ctx, "payment routed",
		logger.String("currency", string(currency)),
		logger.Int64("amount", amount),
	)
	return nil
}

// RouteWithConversion converts amount from one currency into another through
// the external exchange and delivers the output to the payee. Returns the
// executed output amount.
func (e *Engine) RouteWithConversion(ctx context.Context, from, to types.Currency, payer, payee types.Identity, amount int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrSystemPaused
	}
	out, err := e.router.RouteWithConversion(ctx, from, to, payer, payee, amount, e.clock.Now())
	if err != nil {
		metrics.RecordConversionFailure()
		return 0, err
	}
	metrics.RecordConversion()
	e.log.Info(ctx, "conversion routed",
		logger.String("from", string(from)),
		logger.String("to", string(to)),
		logger.Int64("in", amount),
		logger.Int64("out", out),
	)
	return out, nil
}

// Approve grants a spender an allowance on the owner's balance.
func (e *Engine) Approve(ctx context.Context, currency types.Currency, owner, spender types.Identity, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Approve(currency, owner, spender, amount)
}

// Mint credits freshly issued units to an identity. Admin only.
func (e *Engine) Mint(ctx context.Context, caller types.Identity, currency types.Currency, to types.Identity, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return notAuthorized(caller, "mint")
	}
	if err := e.router.Mint(currency, to, amount); err != nil {
		return err
	}
	e.log.Info(ctx, "minted",
		logger.String("currency", string(currency)),
		logger.String("to", string(to)),
		logger.Int64("amount", amount),
	)
	return nil
}

// Balance reads an identity's balance in one currency.
func (e *Engine) Balance(currency types.Currency, id types.Identity) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Balance(currency, id)
}

// FundRewardPool moves native units from the caller into the reward pool.
func (e *Engine) FundRewardPool(ctx context.Context, caller types.Identity, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return ErrSystemPaused
	}
	if err := e.router.RoutePayment(e.native, caller, RewardPoolIdentity, amount); err != nil {
		return fmt.Errorf("fund reward pool: %w", err)
	}
	metrics.UpdateRewardPool(e.router.Balance(e.native, RewardPoolIdentity))
	e.log.Info(ctx, "reward pool funded", logger.Int64("amount", amount))
	return nil
}

// RewardPoolBalance reads the reward pool balance in the native currency.
func (e *Engine) RewardPoolBalance() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Balance(e.native, RewardPoolIdentity)
}
