package repository_test

import (
	"testing"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/repository"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryIDs(t *testing.T) {
	Convey("Given an empty store", t, func() {
		m := repository.NewMemory()

		Convey("Station ids are allocated from 1 upward", func() {
			a := m.InsertStation(&model.Station{Owner: "alice"})
			b := m.InsertStation(&model.Station{Owner: "bob"})
			So(a, ShouldEqual, types.StationID(1))
			So(b, ShouldEqual, types.StationID(2))

			got, ok := m.Station(a)
			So(ok, ShouldBeTrue)
			So(got.Owner, ShouldEqual, types.Identity("alice"))
		})

		Convey("Lookups on unknown ids miss cleanly", func() {
			_, ok := m.Station(types.StationID(7))
			So(ok, ShouldBeFalse)
			_, ok = m.Pass(types.PassID(7))
			So(ok, ShouldBeFalse)
			_, ok = m.Loan(types.LoanID(7))
			So(ok, ShouldBeFalse)
		})

		Convey("Deleted passes disappear without reusing the id", func() {
			a := m.InsertPass(&model.Pass{Requester: "r", Owner: "o"})
			m.DeletePass(a)

			_, ok := m.Pass(a)
			So(ok, ShouldBeFalse)
			So(m.Passes(), ShouldBeEmpty)

			b := m.InsertPass(&model.Pass{Requester: "r", Owner: "o"})
			So(b, ShouldBeGreaterThan, a)
		})

		Convey("Listings come back ordered by id", func() {
			for _, ref := range []string{"c", "a", "b"} {
				m.InsertPass(&model.Pass{Requester: "r", Owner: "o", ProofRef: ref})
			}
			passes := m.Passes()
			So(passes, ShouldHaveLength, 3)
			So(passes[0].ID, ShouldBeLessThan, passes[1].ID)
			So(passes[1].ID, ShouldBeLessThan, passes[2].ID)
		})
	})
}

func TestMemoryLoans(t *testing.T) {
	Convey("Given loans for one borrower", t, func() {
		m := repository.NewMemory()
		closed := &model.Loan{Borrower: "dave", Active: false, StartedAt: time.Now()}
		active := &model.Loan{Borrower: "dave", Active: true, StartedAt: time.Now()}
		m.InsertLoan(closed)
		m.InsertLoan(active)

		Convey("ActiveLoan resolves only the active one", func() {
			got, ok := m.ActiveLoan("dave")
			So(ok, ShouldBeTrue)
			So(got.ID, ShouldEqual, active.ID)
		})

		Convey("Other borrowers have no active loan", func() {
			_, ok := m.ActiveLoan("mallory")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestMemoryProfiles(t *testing.T) {
	Convey("Given a stored profile", t, func() {
		m := repository.NewMemory()
		m.PutProfile(&model.CreditProfile{User: "alice", Score: 600})

		Convey("It reads back and replaces wholesale", func() {
			p, ok := m.Profile("alice")
			So(ok, ShouldBeTrue)
			So(p.Score, ShouldEqual, 600)

			m.PutProfile(&model.CreditProfile{User: "alice", Score: 610})
			p, _ = m.Profile("alice")
			So(p.Score, ShouldEqual, 610)
		})
	})
}
