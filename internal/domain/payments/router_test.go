package payments_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/oracle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/payments"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedExchange executes at a configurable output regardless of the bound.
type fixedExchange struct {
	out int64
	err error
}

func (f *fixedExchange) Swap(_ context.Context, _, _ types.Currency, _, _ int64) (int64, error) {
	return f.out, f.err
}

func TestRoutePayment(t *testing.T) {
	Convey("Given a router with a funded payer", t, func() {
		agg := oracle.New()
		r := payments.New("XLM", agg, &fixedExchange{}, payments.WithCurrencies("USDC"))
		So(r.Mint("XLM", "alice", types.Units(10)), ShouldBeNil)

		Convey("Native transfers are direct", func() {
			So(r.RoutePayment("XLM", "alice", "bob", types.Units(3)), ShouldBeNil)
			So(r.Balance("XLM", "alice"), ShouldEqual, types.Units(7))
			So(r.Balance("XLM", "bob"), ShouldEqual, types.Units(3))
		})

		Convey("Unregistered currencies are rejected", func() {
			err := r.RoutePayment("DOGE", "alice", "bob", types.Units(1))
			So(errors.Is(err, payments.ErrUnsupportedCurrency), ShouldBeTrue)
		})

		Convey("Overdrafts are rejected without partial mutation", func() {
			err := r.RoutePayment("XLM", "alice", "bob", types.Units(11))
			So(errors.Is(err, payments.ErrInsufficientPayment), ShouldBeTrue)
			So(r.Balance("XLM", "alice"), ShouldEqual, types.Units(10))
			So(r.Balance("XLM", "bob"), ShouldEqual, 0)
		})

		Convey("Foreign transfers move ledger-internal balances", func() {
			So(r.Mint("USDC", "alice", types.Units(5)), ShouldBeNil)
			So(r.RoutePayment("USDC", "alice", "bob", types.Units(2)), ShouldBeNil)
			So(r.Balance("USDC", "bob"), ShouldEqual, types.Units(2))
		})
	})
}

func TestAllowances(t *testing.T) {
	Convey("Given an approved spender", t, func() {
		agg := oracle.New()
		r := payments.New("XLM", agg, &fixedExchange{}, payments.WithCurrencies("USDC"))
		So(r.Mint("USDC", "alice", types.Units(10)), ShouldBeNil)
		So(r.Approve("USDC", "alice", "market", types.Units(4)), ShouldBeNil)

		Convey("Spending within the allowance succeeds and consumes it", func() {
			So(r.RoutePaymentFrom("USDC", "market", "alice", "bob", types.Units(3)), ShouldBeNil)
			So(r.Allowance("USDC", "alice", "market"), ShouldEqual, types.Units(1))
			So(r.Balance("USDC", "bob"), ShouldEqual, types.Units(3))
		})

		Convey("Spending beyond the allowance is rejected", func() {
			err := r.RoutePaymentFrom("USDC", "market", "alice", "bob", types.Units(5))
			So(errors.Is(err, payments.ErrInsufficientAllowance), ShouldBeTrue)
		})
	})
}

func TestRouteWithConversion(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	Convey("Given quotes XLM=2.0 and USDC=1.0", t, func() {
		agg := oracle.New()
		So(agg.UpdateQuote("XLM", types.Units(2), 95, "feed", false, now), ShouldBeNil)
		So(agg.UpdateQuote("USDC", types.Units(1), 95, "feed", false, now), ShouldBeNil)

		expected := types.Units(20) // 10 XLM -> 20 USDC

		Convey("Execution at the expected amount routes fully", func() {
			r := payments.New("XLM", agg, &fixedExchange{out: expected}, payments.WithCurrencies("USDC"))
			So(r.Mint("XLM", "alice", types.Units(10)), ShouldBeNil)

			out, err := r.RouteWithConversion(ctx, "XLM", "USDC", "alice", "bob", types.Units(10), now)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, expected)
			So(r.Balance("XLM", "alice"), ShouldEqual, 0)
			So(r.Balance("USDC", "bob"), ShouldEqual, expected)
		})

		Convey("Execution below the slippage bound fails and refunds the payer", func() {
			poor := expected - expected/50 // 2% under with a 1% bound
			r := payments.New("XLM", agg, &fixedExchange{out: poor}, payments.WithCurrencies("USDC"))
			So(r.Mint("XLM", "alice", types.Units(10)), ShouldBeNil)

			_, err := r.RouteWithConversion(ctx, "XLM", "USDC", "alice", "bob", types.Units(10), now)
			So(errors.Is(err, payments.ErrSlippageExceeded), ShouldBeTrue)
			So(r.Balance("XLM", "alice"), ShouldEqual, types.Units(10))
			So(r.Balance("USDC", "bob"), ShouldEqual, 0)
		})

		Convey("A missing quote makes the conversion unavailable", func() {
			r := payments.New("XLM", agg, &fixedExchange{out: expected}, payments.WithCurrencies("USDC", "BTC"))
			So(r.Mint("XLM", "alice", types.Units(10)), ShouldBeNil)

			_, err := r.RouteWithConversion(ctx, "XLM", "BTC", "alice", "bob", types.Units(10), now)
			So(errors.Is(err, payments.ErrConversionUnavailable), ShouldBeTrue)
		})

		Convey("An exchange failure refunds the payer", func() {
			r := payments.New("XLM", agg, &fixedExchange{err: errors.New("venue down")}, payments.WithCurrencies("USDC"))
			So(r.Mint("XLM", "alice", types.Units(10)), ShouldBeNil)

			_, err := r.RouteWithConversion(ctx, "XLM", "USDC", "alice", "bob", types.Units(10), now)
			So(err, ShouldNotBeNil)
			So(r.Balance("XLM", "alice"), ShouldEqual, types.Units(10))
		})
	})
}
