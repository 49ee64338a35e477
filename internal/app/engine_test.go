package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/token"
	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/verify"
	service "github.com/dev-tnsq/spacelink-sub000/internal/app"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/clock"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/credit"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/lifecycle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/oracle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/payments"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// Known-good ISS element set used across registration tests.
const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"

	proofRef = "QmYwAPJzy5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

	admin = types.Identity("admin")
	xlm   = types.Currency("XLM")
)

func newEngine(t *testing.T, opts ...service.Option) (*service.Engine, *clock.Manual) {
	t.Helper()
	mc := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	opts = append([]service.Option{
		service.WithClock(mc),
		service.WithAdmin(admin),
	}, opts...)
	e := service.New(opts...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	t.Cleanup(e.Stop)
	return e, mc
}

func fund(t *testing.T, e *service.Engine, id types.Identity, units int64) {
	t.Helper()
	if err := e.Mint(context.Background(), admin, xlm, id, types.Units(units)); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func registerStation(t *testing.T, e *service.Engine, owner types.Identity) types.StationID {
	t.Helper()
	id, err := e.RegisterStation(context.Background(), owner, 140583, 777093, "S-band 5m dish", 99, "", types.Units(1))
	if err != nil {
		t.Fatalf("register station: %v", err)
	}
	return id
}

func registerSatellite(t *testing.T, e *service.Engine, owner types.Identity) types.SatelliteID {
	t.Helper()
	id, err := e.RegisterSatellite(context.Background(), owner, issLine1, issLine2, "", types.Units(1))
	if err != nil {
		t.Fatalf("register satellite: %v", err)
	}
	return id
}

func TestStationRegistration(t *testing.T) {
	Convey("Given a funded station operator", t, func() {
		e, _ := newEngine(t)
		ctx := context.Background()
		fund(t, e, "alice", 10)

		Convey("When registering with stake 1.0 and scaled coordinates", func() {
			id, err := e.RegisterStation(ctx, "alice", 140583, 777093, "S-band 5m dish", 99, "", types.Units(1))

			Convey("Then the first station id is 1 and the stake is escrowed", func() {
				So(err, ShouldBeNil)
				So(id, ShouldEqual, types.StationID(1))
				So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(9))

				station, err := e.Station(id)
				So(err, ShouldBeNil)
				So(station.Active, ShouldBeTrue)
				So(station.Stake, ShouldEqual, types.Units(1))
			})
		})

		Convey("When registering with out-of-range coordinates", func() {
			_, err := e.RegisterStation(ctx, "alice", 900001, 0, "dish", 99, "", types.Units(1))
			So(errors.Is(err, service.ErrInvalidCoordinates), ShouldBeTrue)
		})

		Convey("When registering with empty specs", func() {
			_, err := e.RegisterStation(ctx, "alice", 140583, 777093, "", 99, "", types.Units(1))
			So(errors.Is(err, service.ErrInvalidSpecs), ShouldBeTrue)
		})

		Convey("When registering below the minimum stake", func() {
			_, err := e.RegisterStation(ctx, "alice", 140583, 777093, "dish", 99, "", types.Units(1)-1)
			So(errors.Is(err, service.ErrInsufficientStake), ShouldBeTrue)
		})

		Convey("When registering with a malformed metadata reference", func() {
			_, err := e.RegisterStation(ctx, "alice", 140583, 777093, "dish", 99, "not-a-ref", types.Units(1))
			So(errors.Is(err, service.ErrInvalidMetadataReference), ShouldBeTrue)
		})
	})
}

func TestSatelliteRegistration(t *testing.T) {
	Convey("Given a funded satellite operator", t, func() {
		e, _ := newEngine(t)
		ctx := context.Background()
		fund(t, e, "sat-co", 10)

		Convey("When registering with a valid element set", func() {
			id, err := e.RegisterSatellite(ctx, "sat-co", issLine1, issLine2, "", types.Units(1))
			So(err, ShouldBeNil)
			So(id, ShouldEqual, types.SatelliteID(1))
		})

		Convey("When the element-line checksum digit is wrong", func() {
			bad := issLine1[:68] + "9"
			_, err := e.RegisterSatellite(ctx, "sat-co", bad, issLine2, "", types.Units(1))

			Convey("Then registration fails and no satellite id is allocated", func() {
				So(errors.Is(err, service.ErrInvalidElementSet), ShouldBeTrue)
				So(e.Stats().Satellites, ShouldEqual, 0)
			})
		})
	})
}

func TestPassSettlementScenario(t *testing.T) {
	Convey("Given a registered station and satellite and a funded pool", t, func() {
		e, mc := newEngine(t)
		ctx := context.Background()
		fund(t, e, "op", 10)
		fund(t, e, "sat-co", 10)
		fund(t, e, "alice", 10)
		fund(t, e, admin, 100)
		stationID := registerStation(t, e, "op")
		satID := registerSatellite(t, e, "sat-co")
		So(e.FundRewardPool(ctx, admin, types.Units(100)), ShouldBeNil)

		Convey("When booking a 7 minute pass paying 1.0 native", func() {
			start := mc.Now().Add(2 * time.Hour)
			passID, err := e.BookPass(ctx, "alice", stationID, satID, start, 7*time.Minute, xlm, types.Units(1))
			So(err, ShouldBeNil)

			pass, err := e.Pass(passID)
			So(err, ShouldBeNil)
			So(pass.State, ShouldEqual, lifecycle.StateBooked)
			So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(9))
			So(pass.TokenID, ShouldNotBeEmpty)

			Convey("And completing with a proof reference under a confirming verifier", func() {
				So(e.ConfirmPass(ctx, "sat-co", passID), ShouldBeNil)
				err := e.CompletePass(ctx, "op", passID, proofRef, passMetrics(), pass.SnapshotHash)
				So(err, ShouldBeNil)

				got, _ := e.Pass(passID)
				So(got.State, ShouldEqual, lifecycle.StateVerified)
				So(got.Verified, ShouldBeTrue)

				Convey("Then claiming pays the reward once and lifts the score 600 to 610", func() {
					before := e.Balance(xlm, "op")
					reward, err := e.ClaimReward(ctx, "alice", passID)
					So(err, ShouldBeNil)
					So(reward, ShouldEqual, types.Units(1))

					// reward plus release of the escrowed booking payment
					So(e.Balance(xlm, "op"), ShouldEqual, before+types.Units(2))
					So(e.CreditProfile("op").Score, ShouldEqual, 610)

					settled, _ := e.Pass(passID)
					So(settled.State, ShouldEqual, lifecycle.StateSettled)
					So(settled.Claimed, ShouldBeTrue)

					station, _ := e.Station(stationID)
					So(station.RelayCount, ShouldEqual, uint64(1))
					So(station.Rewards, ShouldEqual, types.Units(1))

					Convey("And a second claim fails with AlreadyClaimed", func() {
						_, err := e.ClaimReward(ctx, "alice", passID)
						So(errors.Is(err, service.ErrAlreadyClaimed), ShouldBeTrue)
						So(e.CreditProfile("op").Score, ShouldEqual, 610)
					})
				})

				Convey("Then a drained escrow surfaces a payout failure while the claim sticks", func() {
					held := e.Balance(xlm, service.EscrowIdentity)
					So(e.RoutePayment(ctx, xlm, service.EscrowIdentity, "sink", held), ShouldBeNil)

					reward, err := e.ClaimReward(ctx, "alice", passID)
					So(errors.Is(err, service.ErrPayoutFailed), ShouldBeTrue)
					So(reward, ShouldEqual, types.Units(1))

					settled, _ := e.Pass(passID)
					So(settled.State, ShouldEqual, lifecycle.StateSettled)
					So(settled.Claimed, ShouldBeTrue)

					Convey("And the stuck pass still cannot be claimed twice", func() {
						_, err := e.ClaimReward(ctx, "alice", passID)
						So(errors.Is(err, service.ErrAlreadyClaimed), ShouldBeTrue)
					})
				})
			})

			Convey("And claiming before verification fails with NotVerified", func() {
				_, err := e.ClaimReward(ctx, "alice", passID)
				So(errors.Is(err, service.ErrNotVerified), ShouldBeTrue)
			})
		})

		Convey("When booking with an out-of-bounds duration", func() {
			start := mc.Now().Add(2 * time.Hour)
			_, err := e.BookPass(ctx, "alice", stationID, satID, start, 20*time.Minute, xlm, types.Units(1))
			So(errors.Is(err, service.ErrInvalidDuration), ShouldBeTrue)
		})

		Convey("When booking against stale elements", func() {
			mc.Advance(8 * 24 * time.Hour)
			start := mc.Now().Add(2 * time.Hour)
			_, err := e.BookPass(ctx, "alice", stationID, satID, start, 7*time.Minute, xlm, types.Units(1))
			So(errors.Is(err, service.ErrStaleElements), ShouldBeTrue)
		})
	})
}

func TestPassTransferAndAutoLock(t *testing.T) {
	Convey("Given a confirmed transferable pass", t, func() {
		e, mc := newEngine(t)
		ctx := context.Background()
		fund(t, e, "op", 10)
		fund(t, e, "sat-co", 10)
		fund(t, e, "alice", 10)
		stationID := registerStation(t, e, "op")
		satID := registerSatellite(t, e, "sat-co")

		start := mc.Now().Add(2 * time.Hour)
		passID, err := e.BookPass(ctx, "alice", stationID, satID, start, 7*time.Minute, xlm, types.Units(1))
		So(err, ShouldBeNil)
		So(e.ConfirmPass(ctx, "sat-co", passID), ShouldBeNil)

		Convey("When the owner transfers it before the lock window", func() {
			So(e.TransferPass(ctx, "alice", passID, "bob"), ShouldBeNil)
			pass, _ := e.Pass(passID)
			So(pass.Owner, ShouldEqual, types.Identity("bob"))

			Convey("Then only the new owner may transfer again", func() {
				err := e.TransferPass(ctx, "alice", passID, "carol")
				So(errors.Is(err, service.ErrNotAuthorized), ShouldBeTrue)
			})
		})

		Convey("When the lock window opens", func() {
			mc.Advance(95 * time.Minute) // 25 minutes before start

			Convey("Then transfer is rejected and the state reads locked", func() {
				err := e.TransferPass(ctx, "alice", passID, "bob")
				So(errors.Is(err, lifecycle.ErrInvalidStateTransition), ShouldBeTrue)

				pass, _ := e.Pass(passID)
				So(pass.State, ShouldEqual, lifecycle.StateLocked)
			})

			Convey("And the station owner can still complete the locked pass", func() {
				pass, _ := e.Pass(passID)
				So(e.CompletePass(ctx, "op", passID, proofRef, passMetrics(), pass.SnapshotHash), ShouldBeNil)
			})
		})

		Convey("When a non-owner tries to complete", func() {
			pass, _ := e.Pass(passID)
			err := e.CompletePass(ctx, "alice", passID, proofRef, passMetrics(), pass.SnapshotHash)
			So(errors.Is(err, service.ErrNotAuthorized), ShouldBeTrue)
		})

		Convey("When completing with a mismatched element snapshot", func() {
			err := e.CompletePass(ctx, "op", passID, proofRef, passMetrics(), "deadbeef")
			So(errors.Is(err, service.ErrSnapshotMismatch), ShouldBeTrue)
		})
	})
}

func TestPassCancellation(t *testing.T) {
	Convey("Given a booked pass", t, func() {
		e, mc := newEngine(t)
		ctx := context.Background()
		fund(t, e, "op", 10)
		fund(t, e, "sat-co", 10)
		fund(t, e, "alice", 10)
		stationID := registerStation(t, e, "op")
		satID := registerSatellite(t, e, "sat-co")

		start := mc.Now().Add(2 * time.Hour)
		passID, err := e.BookPass(ctx, "alice", stationID, satID, start, 7*time.Minute, xlm, types.Units(1))
		So(err, ShouldBeNil)
		So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(9))

		Convey("When the requester cancels before lock", func() {
			So(e.CancelPass(ctx, "alice", passID), ShouldBeNil)

			Convey("Then the exact payment is refunded and the pass is cancelled", func() {
				So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(10))
				pass, _ := e.Pass(passID)
				So(pass.State, ShouldEqual, lifecycle.StateCancelled)
			})

			Convey("And a second cancel fails as an order violation", func() {
				err := e.CancelPass(ctx, "alice", passID)
				So(errors.Is(err, lifecycle.ErrInvalidStateTransition), ShouldBeTrue)
				So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(10))
			})
		})

		Convey("When a stranger tries to cancel", func() {
			err := e.CancelPass(ctx, "mallory", passID)
			So(errors.Is(err, service.ErrNotAuthorized), ShouldBeTrue)
		})

		Convey("When the pass has auto-locked", func() {
			mc.Advance(100 * time.Minute)
			err := e.CancelPass(ctx, "alice", passID)
			So(errors.Is(err, lifecycle.ErrInvalidStateTransition), ShouldBeTrue)
		})
	})
}

func TestPendingVerification(t *testing.T) {
	Convey("Given an engine wired to an asynchronous verifier", t, func() {
		recorder := &verify.Recorder{}
		e, mc := newEngine(t, service.WithVerifier(recorder))
		ctx := context.Background()
		fund(t, e, "op", 10)
		fund(t, e, "sat-co", 10)
		fund(t, e, "alice", 10)
		stationID := registerStation(t, e, "op")
		satID := registerSatellite(t, e, "sat-co")

		start := mc.Now().Add(2 * time.Hour)
		passID, err := e.BookPass(ctx, "alice", stationID, satID, start, 7*time.Minute, xlm, types.Units(1))
		So(err, ShouldBeNil)
		pass, _ := e.Pass(passID)

		Convey("When the station owner completes the pass", func() {
			So(e.CompletePass(ctx, "op", passID, proofRef, passMetrics(), pass.SnapshotHash), ShouldBeNil)

			Convey("Then the request is pending, not failed", func() {
				got, _ := e.Pass(passID)
				So(got.State, ShouldEqual, lifecycle.StateCompleted)
				So(len(recorder.Requests), ShouldEqual, 1)
				So(e.Stats().PendingVerifications, ShouldEqual, 1)
			})

			Convey("And a second completion attempt fails with RequestPending", func() {
				err := e.CompletePass(ctx, "op", passID, proofRef, passMetrics(), pass.SnapshotHash)
				So(errors.Is(err, service.ErrRequestPending), ShouldBeTrue)
			})

			Convey("And a confirming callback resolves it to verified", func() {
				So(e.ResolveVerification(ctx, passID, true), ShouldBeNil)
				got, _ := e.Pass(passID)
				So(got.State, ShouldEqual, lifecycle.StateVerified)

				Convey("With no second resolution allowed", func() {
					err := e.ResolveVerification(ctx, passID, true)
					So(errors.Is(err, service.ErrNoPendingVerification), ShouldBeTrue)
				})
			})

			Convey("And a rejecting callback disputes it and debits the operator", func() {
				So(e.ResolveVerification(ctx, passID, false), ShouldBeNil)
				got, _ := e.Pass(passID)
				So(got.State, ShouldEqual, lifecycle.StateDisputed)
				So(e.CreditProfile("op").Score, ShouldEqual, 550)
			})
		})
	})
}

func TestStakeWithdrawal(t *testing.T) {
	Convey("Given a registered station", t, func() {
		e, _ := newEngine(t)
		ctx := context.Background()
		fund(t, e, "alice", 10)
		id := registerStation(t, e, "alice")

		Convey("When withdrawing while still active", func() {
			_, err := e.WithdrawStationStake(ctx, "alice", id)
			So(errors.Is(err, service.ErrEntityActive), ShouldBeTrue)
		})

		Convey("When deactivating then withdrawing", func() {
			So(e.DeactivateStation(ctx, "alice", id), ShouldBeNil)
			amount, err := e.WithdrawStationStake(ctx, "alice", id)

			Convey("Then exactly the original stake comes back once", func() {
				So(err, ShouldBeNil)
				So(amount, ShouldEqual, types.Units(1))
				So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(10))

				Convey("And a second withdrawal fails with a resource error", func() {
					_, err := e.WithdrawStationStake(ctx, "alice", id)
					So(errors.Is(err, service.ErrNothingToWithdraw), ShouldBeTrue)
					So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(10))
				})
			})
		})

		Convey("When a stranger tries to withdraw", func() {
			So(e.DeactivateStation(ctx, "alice", id), ShouldBeNil)
			_, err := e.WithdrawStationStake(ctx, "mallory", id)
			So(errors.Is(err, service.ErrNotAuthorized), ShouldBeTrue)
		})
	})
}

func TestQuoteStaleness(t *testing.T) {
	Convey("Given an accepted quote", t, func() {
		e, mc := newEngine(t)
		ctx := context.Background()
		So(e.UpdateQuote(ctx, admin, "USDC", 2*types.UnitScale, 90, "feed-a"), ShouldBeNil)
		So(e.UpdateQuote(ctx, admin, xlm, types.UnitScale, 90, "feed-a"), ShouldBeNil)

		Convey("When read within the max age", func() {
			q, err := e.GetQuote("USDC")
			So(err, ShouldBeNil)
			So(q.Price, ShouldEqual, 2*types.UnitScale)
			So(e.ConvertQuote("USDC", xlm, types.Units(1)), ShouldEqual, types.Units(2))
		})

		Convey("When the quote ages past the threshold", func() {
			mc.Advance(2 * time.Hour)

			Convey("Then reads fail stale rather than returning the old value", func() {
				_, err := e.GetQuote("USDC")
				So(errors.Is(err, oracle.ErrStalePrice), ShouldBeTrue)
			})

			Convey("And conversion reports unavailable as zero", func() {
				So(e.ConvertQuote("USDC", xlm, types.Units(1)), ShouldEqual, 0)
			})
		})

		Convey("When an unprivileged source moves the price beyond the bound", func() {
			err := e.UpdateQuote(ctx, "rando", "USDC", 3*types.UnitScale, 90, "feed-b")
			So(errors.Is(err, oracle.ErrPriceDeviation), ShouldBeTrue)
		})
	})
}

func TestLoanLifecycle(t *testing.T) {
	Convey("Given a borrower whose lazy bonus lifts them to the threshold", t, func() {
		e, mc := newEngine(t)
		ctx := context.Background()
		fund(t, e, "borrower", 20)
		fund(t, e, admin, 200)
		So(e.RoutePayment(ctx, xlm, admin, service.TreasuryIdentity, types.Units(100)), ShouldBeNil)

		// first touch pins the profile at 600
		So(e.CreditProfile("borrower").Score, ShouldEqual, 600)

		Convey("When below the threshold", func() {
			_, err := e.RequestLoan(ctx, "borrower", types.Units(10), xlm, types.Units(15))
			So(errors.Is(err, credit.ErrScoreTooLow), ShouldBeTrue)
		})

		Convey("When two bonus intervals have elapsed", func() {
			mc.Advance(60 * 24 * time.Hour)
			eligible, score, maxLoan := e.CheckBNPLEligibility("borrower")
			So(eligible, ShouldBeTrue)
			So(score, ShouldEqual, 650)
			So(maxLoan, ShouldEqual, types.Units(10))

			Convey("And the loan respects the band and the collateral ratio", func() {
				_, err := e.RequestLoan(ctx, "borrower", types.Units(11), xlm, types.Units(20))
				So(errors.Is(err, credit.ErrAmountOutOfBand), ShouldBeTrue)

				_, err = e.RequestLoan(ctx, "borrower", types.Units(10), xlm, types.Units(14))
				So(errors.Is(err, credit.ErrInsufficientCollateral), ShouldBeTrue)
			})

			Convey("And a valid request disburses and locks collateral", func() {
				loanID, err := e.RequestLoan(ctx, "borrower", types.Units(10), xlm, types.Units(15))
				So(err, ShouldBeNil)
				So(loanID, ShouldEqual, types.LoanID(1))
				// 20 - 15 collateral + 10 principal
				So(e.Balance(xlm, "borrower"), ShouldEqual, types.Units(15))

				Convey("With a second concurrent loan rejected", func() {
					_, err := e.RequestLoan(ctx, "borrower", types.Units(10), xlm, types.Units(15))
					So(errors.Is(err, credit.ErrLoanActive), ShouldBeTrue)
				})

				Convey("When fully repaid with interest", func() {
					// 10% simple interest on 10.0
					So(e.RepayLoan(ctx, "borrower", types.Units(11)), ShouldBeNil)

					Convey("Then the collateral returns and the score grows", func() {
						// 15 - 11 repaid + 15 collateral back
						So(e.Balance(xlm, "borrower"), ShouldEqual, types.Units(19))
						So(e.CreditProfile("borrower").Score, ShouldEqual, 655)
						err := e.RepayLoan(ctx, "borrower", types.Units(1))
						So(errors.Is(err, credit.ErrNoActiveLoan), ShouldBeTrue)
					})
				})

				Convey("When overpaying", func() {
					err := e.RepayLoan(ctx, "borrower", types.Units(12))
					So(errors.Is(err, credit.ErrOverpayment), ShouldBeTrue)
				})

				Convey("When the collateral release cannot be routed", func() {
					held := e.Balance(xlm, service.EscrowIdentity)
					So(e.RoutePayment(ctx, xlm, service.EscrowIdentity, "sink", held), ShouldBeNil)

					err := e.RepayLoan(ctx, "borrower", types.Units(11))
					So(errors.Is(err, service.ErrPayoutFailed), ShouldBeTrue)

					Convey("Then the loan is still closed", func() {
						err := e.RepayLoan(ctx, "borrower", types.Units(1))
						So(errors.Is(err, credit.ErrNoActiveLoan), ShouldBeTrue)
					})
				})

				Convey("When the grace period lapses unpaid", func() {
					mc.Advance(31 * 24 * time.Hour)
					defaulted, err := e.CheckDefault(ctx, "borrower")
					So(err, ShouldBeNil)
					So(defaulted, ShouldBeTrue)

					Convey("Then the collateral is forfeited to the treasury", func() {
						So(e.Balance(xlm, service.TreasuryIdentity), ShouldEqual, types.Units(100)-types.Units(10)+types.Units(15))
					})
				})

				Convey("When the grace period lapses while the system is paused", func() {
					mc.Advance(31 * 24 * time.Hour)
					So(e.Pause(admin), ShouldBeNil)

					defaulted, err := e.CheckDefault(ctx, "borrower")
					So(errors.Is(err, service.ErrSystemPaused), ShouldBeTrue)
					So(defaulted, ShouldBeFalse)

					// no collateral moved while paused
					So(e.Balance(xlm, service.TreasuryIdentity), ShouldEqual, types.Units(90))
					So(e.Balance(xlm, service.EscrowIdentity), ShouldEqual, types.Units(15))
				})

				Convey("When the collateral forfeit cannot be routed", func() {
					mc.Advance(31 * 24 * time.Hour)
					held := e.Balance(xlm, service.EscrowIdentity)
					So(e.RoutePayment(ctx, xlm, service.EscrowIdentity, "sink", held), ShouldBeNil)

					defaulted, err := e.CheckDefault(ctx, "borrower")
					So(defaulted, ShouldBeTrue)
					So(errors.Is(err, service.ErrPayoutFailed), ShouldBeTrue)
				})
			})
		})
	})
}

func TestPauseGate(t *testing.T) {
	Convey("Given a paused engine", t, func() {
		e, mc := newEngine(t)
		ctx := context.Background()
		fund(t, e, "op", 10)
		fund(t, e, "sat-co", 10)
		fund(t, e, "alice", 10)
		stationID := registerStation(t, e, "op")
		satID := registerSatellite(t, e, "sat-co")

		Convey("When a non-admin tries to pause", func() {
			So(errors.Is(e.Pause("mallory"), service.ErrNotAuthorized), ShouldBeTrue)
		})

		Convey("When the admin pauses", func() {
			So(e.Pause(admin), ShouldBeNil)
			So(e.Paused(), ShouldBeTrue)

			Convey("Then payment-moving operations fail fast", func() {
				start := mc.Now().Add(2 * time.Hour)
				_, err := e.BookPass(ctx, "alice", stationID, satID, start, 7*time.Minute, xlm, types.Units(1))
				So(errors.Is(err, service.ErrSystemPaused), ShouldBeTrue)
				So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(10))

				So(errors.Is(e.RoutePayment(ctx, xlm, "alice", "bob", 1), service.ErrSystemPaused), ShouldBeTrue)
			})

			Convey("And resuming restores service", func() {
				So(e.Resume(admin), ShouldBeNil)
				start := mc.Now().Add(2 * time.Hour)
				_, err := e.BookPass(ctx, "alice", stationID, satID, start, 7*time.Minute, xlm, types.Units(1))
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestEventEmission(t *testing.T) {
	Convey("Given a subscriber on the engine bus", t, func() {
		e, _ := newEngine(t)
		ctx := context.Background()
		ch, cancel := e.Subscribe()
		defer cancel()
		fund(t, e, "alice", 10)

		Convey("When a station registers", func() {
			_, err := e.RegisterStation(ctx, "alice", 140583, 777093, "dish", 99, "", types.Units(1))
			So(err, ShouldBeNil)

			Convey("Then a typed event arrives", func() {
				ev := <-ch
				So(string(ev.Kind), ShouldEqual, "StationRegistered")
				So(ev.ID, ShouldNotBeEmpty)
			})
		})
	})
}

func TestRouteWithConversion(t *testing.T) {
	Convey("Given quotes for both legs", t, func() {
		e, _ := newEngine(t, service.WithCurrencies("USDC"))
		ctx := context.Background()
		So(e.UpdateQuote(ctx, admin, xlm, types.UnitScale, 90, "feed"), ShouldBeNil)
		So(e.UpdateQuote(ctx, admin, "USDC", 2*types.UnitScale, 90, "feed"), ShouldBeNil)
		So(e.Mint(ctx, admin, "USDC", "alice", types.Units(10)), ShouldBeNil)

		Convey("When converting 1 USDC to the native currency", func() {
			out, err := e.RouteWithConversion(ctx, "USDC", xlm, "alice", "bob", types.Units(1))

			Convey("Then the exchange executes within the slippage bound", func() {
				So(err, ShouldBeNil)
				// 2.0 expected minus the venue spread, above the 1% bound
				So(out, ShouldBeGreaterThan, types.Units(2)-types.Units(2)/100)
				So(e.Balance(xlm, "bob"), ShouldEqual, out)
				So(e.Balance("USDC", "alice"), ShouldEqual, types.Units(9))
			})
		})

		Convey("When converting an unregistered currency", func() {
			_, err := e.RouteWithConversion(ctx, "DOGE", xlm, "alice", "bob", types.Units(1))
			So(errors.Is(err, payments.ErrUnsupportedCurrency), ShouldBeTrue)
		})
	})
}

func TestCreditScoreOverride(t *testing.T) {
	Convey("Given a user with a default score", t, func() {
		e, _ := newEngine(t)
		ctx := context.Background()
		So(e.CreditProfile("alice").Score, ShouldEqual, 600)

		Convey("When the admin overrides the score", func() {
			So(e.SetCreditScore(ctx, admin, "alice", 800), ShouldBeNil)

			Convey("Then the new score holds and the history records the actor", func() {
				p := e.CreditProfile("alice")
				So(p.Score, ShouldEqual, 800)
				So(len(p.History), ShouldBeGreaterThan, 0)
				last := p.History[len(p.History)-1]
				So(last.Actor, ShouldEqual, admin)
				So(last.Reason, ShouldEqual, credit.ReasonAdminOverride)
			})
		})

		Convey("When a non-admin tries", func() {
			err := e.SetCreditScore(ctx, "mallory", "alice", 1000)
			So(errors.Is(err, service.ErrNotAuthorized), ShouldBeTrue)
		})
	})
}

func TestBookingMintFailure(t *testing.T) {
	Convey("Given an ownership registry that refuses to mint", t, func() {
		e, mc := newEngine(t, service.WithTokenRegistry(unavailableRegistry{}))
		ctx := context.Background()
		fund(t, e, "op", 10)
		fund(t, e, "sat-co", 10)
		fund(t, e, "alice", 10)
		stationID := registerStation(t, e, "op")
		satID := registerSatellite(t, e, "sat-co")

		Convey("When a booking fails at the mint step", func() {
			start := mc.Now().Add(2 * time.Hour)
			_, err := e.BookPass(ctx, "alice", stationID, satID, start, 7*time.Minute, xlm, types.Units(1))
			So(err, ShouldNotBeNil)

			Convey("Then the payment is refunded and no pass record remains", func() {
				So(e.Balance(xlm, "alice"), ShouldEqual, types.Units(10))
				So(e.Stats().Passes, ShouldEqual, 0)
				So(e.Passes(), ShouldBeEmpty)
			})
		})
	})
}

func passMetrics() model.RelayMetrics {
	return model.RelayMetrics{SignalStrengthDB: -92, PayloadBytes: 2 << 20, Band: "S"}
}

// unavailableRegistry fails every mint, standing in for an unreachable
// ownership backend.
type unavailableRegistry struct{}

func (unavailableRegistry) Mint(types.PassID, types.Identity) (string, error) {
	return "", errors.New("registry unavailable")
}

func (unavailableRegistry) Transfer(string, types.Identity, types.Identity) error { return nil }

func (unavailableRegistry) Burn(string) error { return nil }

func (unavailableRegistry) OwnerOf(string) (types.Identity, error) {
	return "", token.ErrUnknownToken
}
