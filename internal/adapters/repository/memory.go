package repository

import (
	"sort"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// Memory implements Store with plain maps and monotonic id counters. It is
// not internally synchronized: the engine serializes all access.
type Memory struct {
	nextStation   types.StationID
	nextSatellite types.SatelliteID
	nextPass      types.PassID
	nextLoan      types.LoanID

	stations   map[types.StationID]*model.Station
	satellites map[types.SatelliteID]*model.Satellite
	passes     map[types.PassID]*model.Pass
	profiles   map[types.Identity]*model.CreditProfile
	loans      map[types.LoanID]*model.Loan
}

// NewMemory creates an empty Memory store. Ids start at 1.
func NewMemory() *Memory {
	return &Memory{
		stations:   make(map[types.StationID]*model.Station),
		satellites: make(map[types.SatelliteID]*model.Satellite),
		passes:     make(map[types.PassID]*model.Pass),
		profiles:   make(map[types.Identity]*model.CreditProfile),
		loans:      make(map[types.LoanID]*model.Loan),
	}
}

// InsertStation allocates the next id and stores s.
func (m *Memory) InsertStation(s *model.Station) types.StationID {
	m.nextStation++
	s.ID = m.nextStation
	m.stations[s.ID] = s
	return s.ID
}

// Station looks up a station by id.
func (m *Memory) Station(id types.StationID) (*model.Station, bool) {
	s, ok := m.stations[id]
	return s, ok
}

// Stations returns all stations ordered by id.
func (m *Memory) Stations() []*model.Station {
	out := make([]*model.Station, 0, len(m.stations))
	for _, s := range m.stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InsertSatellite allocates the next id and stores s.
func (m *Memory) InsertSatellite(s *model.Satellite) types.SatelliteID {
	m.nextSatellite++
	s.ID = m.nextSatellite
	m.satellites[s.ID] = s
	return s.ID
}

// Satellite looks up a satellite by id.
func (m *Memory) Satellite(id types.SatelliteID) (*model.Satellite, bool) {
	s, ok := m.satellites[id]
	return s, ok
}

// Satellites returns all satellites ordered by id.
func (m *Memory) Satellites() []*model.Satellite {
	out := make([]*model.Satellite, 0, len(m.satellites))
	for _, s := range m.satellites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InsertPass allocates the next id and stores p.
func (m *Memory) InsertPass(p *model.Pass) types.PassID {
	m.nextPass++
	p.ID = m.nextPass
	m.passes[p.ID] = p
	return p.ID
}

// Pass looks up a pass by id.
func (m *Memory) Pass(id types.PassID) (*model.Pass, bool) {
	p, ok := m.passes[id]
	return p, ok
}

// DeletePass removes a pass record. Ids are not reused.
func (m *Memory) DeletePass(id types.PassID) {
	delete(m.passes, id)
}

// Passes returns all passes ordered by id.
func (m *Memory) Passes() []*model.Pass {
	out := make([]*model.Pass, 0, len(m.passes))
	for _, p := range m.passes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Profile looks up a credit profile by identity.
func (m *Memory) Profile(user types.Identity) (*model.CreditProfile, bool) {
	p, ok := m.profiles[user]
	return p, ok
}

// PutProfile stores or replaces a credit profile.
func (m *Memory) PutProfile(p *model.CreditProfile) {
	m.profiles[p.User] = p
}

// Profiles returns all profiles ordered by identity.
func (m *Memory) Profiles() []*model.CreditProfile {
	out := make([]*model.CreditProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}

// InsertLoan allocates the next id and stores l.
func (m *Memory) InsertLoan(l *model.Loan) types.LoanID {
	m.nextLoan++
	l.ID = m.nextLoan
	m.loans[l.ID] = l
	return l.ID
}

// Loan looks up a loan by id.
func (m *Memory) Loan(id types.LoanID) (*model.Loan, bool) {
	l, ok := m.loans[id]
	return l, ok
}

// ActiveLoan resolves the borrower's active loan, if any.
func (m *Memory) ActiveLoan(borrower types.Identity) (*model.Loan, bool) {
	for _, l := range m.loans {
		if l.Borrower == borrower && l.Active {
			return l, true
		}
	}
	return nil, false
}

// Loans returns all loans ordered by id.
func (m *Memory) Loans() []*model.Loan {
	out := make([]*model.Loan, 0, len(m.loans))
	for _, l := range m.loans {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
