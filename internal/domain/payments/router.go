// Package payments moves value between identities in any registered
// currency, converting across currencies through the price oracle and an
// external exchange capability.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// Default router configuration constants.
const (
	defaultMaxSlippageBps = 100 // 1%
)

// Quotes is the read-only oracle view the router converts through. A zero
// result means "conversion unavailable", never a valid rate.
type Quotes interface {
	Convert(from, to types.Currency, amount int64, now time.Time) int64
}

// Exchange executes a conversion for the router. The router only supplies
// the minimum acceptable output computed from its own quotes; matching is
// the exchange's concern.
type Exchange interface {
	Swap(ctx context.Context, from, to types.Currency, amount, minOut int64) (int64, error)
}

// Option applies a configuration option to the Router.
type Option func(*Router)

// WithMaxSlippageBps sets the conversion slippage bound in basis points.
func WithMaxSlippageBps(bps int) Option {
	return func(r *Router) {
		if bps > 0 {
			r.maxSlippageBps = bps
		}
	}
}

// WithCurrencies registers foreign currencies at construction.
func WithCurrencies(currencies ...types.Currency) Option {
	return func(r *Router) {
		for _, c := range currencies {
			r.supported[c] = true
		}
	}
}

// Router is the multi-currency ledger. Balances and allowances are
// ledger-internal; the native currency is always supported. Not internally
// synchronized: the engine serializes all access.
type Router struct {
	native         types.Currency
	supported      map[types.Currency]bool
	balances       map[types.Currency]map[types.Identity]int64
	allowances     map[types.Currency]map[allowanceKey]int64
	quotes         Quotes
	exchange       Exchange
	maxSlippageBps int
}

type allowanceKey struct {
	owner   types.Identity
	spender types.Identity
}

// New constructs a Router for the given native currency.
func New(native types.Currency, quotes Quotes, exchange Exchange, opts ...Option) *Router {
	r := &Router{
		native:         native,
		supported:      map[types.Currency]bool{native: true},
		balances:       make(map[types.Currency]map[types.Identity]int64),
		allowances:     make(map[types.Currency]map[allowanceKey]int64),
		quotes:         quotes,
		exchange:       exchange,
		maxSlippageBps: defaultMaxSlippageBps,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Native returns the native currency code.
func (r *Router) Native() types.Currency { return r.native }

// RegisterCurrency adds a foreign currency to the supported set.
func (r *Router) RegisterCurrency(c types.Currency) {
	r.supported[c] = true
}

// Supported reports whether c is registered.
func (r *Router) Supported(c types.Currency) bool { return r.supported[c] }

// Balance reads an identity's balance in a currency.
func (r *Router) Balance(c types.Currency, id types.Identity) int64 {
	return r.balances[c][id]
}

// Mint credits freshly issued units to an identity. Administrative; used to
// fund ledgers, the reward pool, and test fixtures.
func (r *Router) Mint(c types.Currency, id types.Identity, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}
	if !r.supported[c] {
		return fmt.Errorf("currency %q: %w", c, ErrUnsupportedCurrency)
	}
	r.credit(c, id, amount)
	return nil
}

// Burn destroys units held by an identity.
func (r *Router) Burn(c types.Currency, id types.Identity, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}
	return r.debit(c, id, amount)
}

// Approve lets spender move up to amount of owner's balance in c. The
// allowance is replaced wholesale, mirroring the external token standard.
func (r *Router) Approve(c types.Currency, owner, spender types.Identity, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}
	if !r.supported[c] {
		return fmt.Errorf("currency %q: %w", c, ErrUnsupportedCurrency)
	}
	if r.allowances[c] == nil {
		r.allowances[c] = make(map[allowanceKey]int64)
	}
	r.allowances[c][allowanceKey{owner: owner, spender: spender}] = amount
	return nil
}

// Allowance reads the remaining allowance owner has granted spender in c.
func (r *Router) Allowance(c types.Currency, owner, spender types.Identity) int64 {
	return r.allowances[c][allowanceKey{owner: owner, spender: spender}]
}

// RoutePayment moves amount of currency from payer to payee. Native-currency
// transfers are direct; foreign currencies must be registered and move
// through the same ledger-internal balances.
func (r *Router) RoutePayment(currency types.Currency, payer, payee types.Identity, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}
	if !r.supported[currency] {
		return fmt.Errorf("currency %q: %w", currency, ErrUnsupportedCurrency)
	}
	if err := r.debit(currency, payer, amount); err != nil {
		return err
	}
	r.credit(currency, payee, amount)
	return nil
}

// RoutePaymentFrom moves amount of currency from owner to payee on behalf of
// spender, consuming allowance.
func (r *Router) RoutePaymentFrom(currency types.Currency, spender, owner, payee types.Identity, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}
	if !r.supported[currency] {
		return fmt.Errorf("currency %q: %w", currency, ErrUnsupportedCurrency)
	}
	key := allowanceKey{owner: owner, spender: spender}
	if r.allowances[currency][key] < amount {
		return fmt.Errorf("allowance %d < %d: %w", r.allowances[currency][key], amount, ErrInsufficientAllowance)
	}
	if err := r.debit(currency, owner, amount); err != nil {
		return err
	}
	r.allowances[currency][key] -= amount
	r.credit(currency, payee, amount)
	return nil
}

// RouteWithConversion debits payer in the source currency, converts through
// the external exchange, and credits payee with the executed output in the
// target currency. The expected output comes from the router's own quotes;
// execution below the slippage bound fails the whole routing.
func (r *Router) RouteWithConversion(ctx context.Context, from, to types.Currency, payer, payee types.Identity, amount int64, now time.Time) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}
	if !r.supported[from] {
		return 0, fmt.Errorf("currency %q: %w", from, ErrUnsupportedCurrency)
	}
	if !r.supported[to] {
		return 0, fmt.Errorf("currency %q: %w", to, ErrUnsupportedCurrency)
	}
	if r.Balance(from, payer) < amount {
		return 0, fmt.Errorf("balance %d < %d: %w", r.Balance(from, payer), amount, ErrInsufficientPayment)
	}
	expected := r.quotes.Convert(from, to, amount, now)
	if expected <= 0 {
		return 0, fmt.Errorf("%s -> %s: %w", from, to, ErrConversionUnavailable)
	}
	minOut := expected - expected*int64(r.maxSlippageBps)/10_000

	// Debit before the external call so a reentrant exchange observes the
	// payer already charged.
	if err := r.debit(from, payer, amount); err != nil {
		return 0, err
	}
	out, err := r.exchange.Swap(ctx, from, to, amount, minOut)
	if err != nil {
		r.credit(from, payer, amount)
		return 0, err
	}
	if out < minOut {
		r.credit(from, payer, amount)
		return 0, fmt.Errorf("executed %d < bound %d: %w", out, minOut, ErrSlippageExceeded)
	}
	r.credit(to, payee, out)
	return out, nil
}

func (r *Router) credit(c types.Currency, id types.Identity, amount int64) {
	if r.balances[c] == nil {
		r.balances[c] = make(map[types.Identity]int64)
	}
	r.balances[c][id] += amount
}

func (r *Router) debit(c types.Currency, id types.Identity, amount int64) error {
	if r.balances[c][id] < amount {
		return fmt.Errorf("balance %d < %d: %w", r.balances[c][id], amount, ErrInsufficientPayment)
	}
	r.balances[c][id] -= amount
	return nil
}
