package credit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/repository"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/credit"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func newEngine(opts ...credit.Option) *credit.Engine {
	store := repository.NewMemory()
	return credit.New(store, store, opts...)
}

func TestScoring(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given a fresh participant", t, func() {
		e := newEngine()

		Convey("The profile initializes lazily at 600", func() {
			p := e.Profile("alice", now)
			So(p.Score, ShouldEqual, 600)
			So(p.History, ShouldHaveLength, 1)
			So(p.History[0].Reason, ShouldEqual, credit.ReasonInitial)
		})

		Convey("A relay success adds 10 points", func() {
			_, updated := e.RecordRelaySuccess("alice", now)
			So(updated, ShouldEqual, 610)
		})

		Convey("A relay failure removes 50 points, floored at 0", func() {
			_, updated := e.RecordRelayFailure("alice", now)
			So(updated, ShouldEqual, 550)
			for i := 0; i < 20; i++ {
				_, updated = e.RecordRelayFailure("alice", now)
			}
			So(updated, ShouldEqual, 0)
		})

		Convey("Successes cap at the maximum score", func() {
			var updated int
			for i := 0; i < 50; i++ {
				_, updated = e.RecordRelaySuccess("alice", now)
			}
			So(updated, ShouldEqual, 1000)
		})

		Convey("The history log is internally consistent", func() {
			e.RecordRelaySuccess("alice", now)
			e.RecordRelayFailure("alice", now.Add(time.Minute))
			e.RecordRelaySuccess("alice", now.Add(2*time.Minute))
			p := e.Profile("alice", now.Add(3*time.Minute))
			for i := 1; i < len(p.History); i++ {
				So(p.History[i].Old, ShouldEqual, p.History[i-1].New)
				So(p.History[i].New, ShouldBeBetweenOrEqual, 0, 1000)
			}
		})
	})
}

func TestPeriodicBonus(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given a 30 day bonus interval", t, func() {
		e := newEngine()
		e.Profile("bob", now) // initialize at now

		Convey("No bonus accrues within the interval", func() {
			So(e.ApplyPeriodicBonus("bob", now.Add(29*24*time.Hour)), ShouldEqual, 600)
		})

		Convey("One bonus accrues per elapsed interval, applied lazily", func() {
			So(e.ApplyPeriodicBonus("bob", now.Add(31*24*time.Hour)), ShouldEqual, 625)
		})

		Convey("Two idle intervals catch up in one read", func() {
			So(e.ApplyPeriodicBonus("bob", now.Add(65*24*time.Hour)), ShouldEqual, 650)
		})
	})
}

func TestBNPLEligibility(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	base, cap := types.Units(10), types.Units(100)

	Convey("Given the default loan band", t, func() {
		e := newEngine(credit.WithLoanBand(650, base, cap, types.Units(1)))

		Convey("At the threshold score the max loan equals the base", func() {
			e.AdminOverride("carol", 650, "admin", now)
			eligible, score, maxLoan := e.CheckBNPLEligibility("carol", now)
			So(eligible, ShouldBeTrue)
			So(score, ShouldEqual, 650)
			So(maxLoan, ShouldEqual, base)
		})

		Convey("At the maximum score the max loan equals the cap", func() {
			e.AdminOverride("carol", 1000, "admin", now)
			_, _, maxLoan := e.CheckBNPLEligibility("carol", now)
			So(maxLoan, ShouldEqual, cap)
		})

		Convey("Below the threshold the caller is ineligible", func() {
			e.AdminOverride("carol", 649, "admin", now)
			eligible, _, maxLoan := e.CheckBNPLEligibility("carol", now)
			So(eligible, ShouldBeFalse)
			So(maxLoan, ShouldEqual, 0)
		})

		Convey("Max loan is monotonic non-decreasing in score", func() {
			prev := int64(-1)
			for score := 650; score <= 1000; score++ {
				ml := e.MaxLoan(score)
				So(ml, ShouldBeGreaterThanOrEqualTo, prev)
				prev = ml
			}
		})
	})
}

func TestLoanLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given an eligible borrower", t, func() {
		e := newEngine()
		e.AdminOverride("dave", 800, "admin", now)
		principal := types.Units(10)
		collateral := types.Units(15) // exactly 150%

		Convey("A loan originates with collateral at the required ratio", func() {
			l, err := e.RequestLoan("dave", principal, "USDC", collateral, collateral, now)
			So(err, ShouldBeNil)
			So(l.Active, ShouldBeTrue)
			So(l.Outstanding(), ShouldEqual, principal+principal/10) // 10% interest

			Convey("A second loan is rejected while one is active", func() {
				_, err := e.RequestLoan("dave", principal, "USDC", collateral, collateral, now)
				So(errors.Is(err, credit.ErrLoanActive), ShouldBeTrue)
			})

			Convey("Overpayment is rejected", func() {
				_, _, err := e.Repay("dave", l.Outstanding()+1, now)
				So(errors.Is(err, credit.ErrOverpayment), ShouldBeTrue)
			})

			Convey("Full repayment closes the loan and awards the bonus", func() {
				_, closed, err := e.Repay("dave", l.Outstanding(), now.Add(24*time.Hour))
				So(err, ShouldBeNil)
				So(closed, ShouldBeTrue)
				p := e.Profile("dave", now.Add(24*time.Hour))
				So(p.Score, ShouldEqual, 805)
				So(p.Outstanding, ShouldEqual, 0)
			})

			Convey("Partial repayment keeps the loan open", func() {
				_, closed, err := e.Repay("dave", principal/2, now.Add(24*time.Hour))
				So(err, ShouldBeNil)
				So(closed, ShouldBeFalse)

				Convey("And resets the default grace period", func() {
					_, defaulted, err := e.CheckDefault("dave", now.Add(25*24*time.Hour))
					So(err, ShouldBeNil)
					So(defaulted, ShouldBeFalse)
				})
			})

			Convey("A loan with no payments defaults after the grace period", func() {
				_, defaulted, err := e.CheckDefault("dave", now.Add(31*24*time.Hour))
				So(err, ShouldBeNil)
				So(defaulted, ShouldBeTrue)

				Convey("And the default is penalized in the history log", func() {
					p := e.Profile("dave", now.Add(31*24*time.Hour))
					So(p.Score, ShouldEqual, 750)
					last := p.History[len(p.History)-1]
					So(last.Reason, ShouldEqual, credit.ReasonDefault)
				})
			})
		})

		Convey("Undersized collateral is rejected", func() {
			_, err := e.RequestLoan("dave", principal, "USDC", collateral-1, collateral-1, now)
			So(errors.Is(err, credit.ErrInsufficientCollateral), ShouldBeTrue)
		})

		Convey("An amount above the score-tier ceiling is rejected", func() {
			tooMuch := e.MaxLoan(800) + 1
			_, err := e.RequestLoan("dave", tooMuch, "USDC", tooMuch*2, tooMuch*2, now)
			So(errors.Is(err, credit.ErrAmountOutOfBand), ShouldBeTrue)
		})

		Convey("An ineligible borrower is rejected", func() {
			e.AdminOverride("eve", 500, "admin", now)
			_, err := e.RequestLoan("eve", principal, "USDC", collateral, collateral, now)
			So(errors.Is(err, credit.ErrScoreTooLow), ShouldBeTrue)
		})
	})
}
