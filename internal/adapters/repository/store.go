// Package repository defines the typed in-memory stores backing the
// settlement engine. Next-id counters live behind the store interfaces;
// ordered containers appear only where order is observable (history logs
// keep their order inside the entities themselves).
package repository

import (
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// StationStore persists stations indexed by StationID.
type StationStore interface {
	InsertStation(s *model.Station) types.StationID
	Station(id types.StationID) (*model.Station, bool)
	Stations() []*model.Station
}

// SatelliteStore persists satellites indexed by SatelliteID.
type SatelliteStore interface {
	InsertSatellite(s *model.Satellite) types.SatelliteID
	Satellite(id types.SatelliteID) (*model.Satellite, bool)
	Satellites() []*model.Satellite
}

// PassStore persists passes indexed by PassID. DeletePass exists for
// unwinding a booking whose external mint failed; settled history is never
// deleted.
type PassStore interface {
	InsertPass(p *model.Pass) types.PassID
	Pass(id types.PassID) (*model.Pass, bool)
	Passes() []*model.Pass
	DeletePass(id types.PassID)
}

// ProfileStore persists credit profiles indexed by identity.
type ProfileStore interface {
	Profile(user types.Identity) (*model.CreditProfile, bool)
	PutProfile(p *model.CreditProfile)
	Profiles() []*model.CreditProfile
}

// LoanStore persists loans and resolves the single active loan per borrower.
type LoanStore interface {
	InsertLoan(l *model.Loan) types.LoanID
	Loan(id types.LoanID) (*model.Loan, bool)
	ActiveLoan(borrower types.Identity) (*model.Loan, bool)
	Loans() []*model.Loan
}

// Store bundles every store the engine needs.
type Store interface {
	StationStore
	SatelliteStore
	PassStore
	ProfileStore
	LoanStore
}
