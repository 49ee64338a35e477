// Package model contains domain entities passed between layers.
package model

import (
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// Station is a registered ground station.
type Station struct {
	ID          types.StationID
	Owner       types.Identity
	LatE4       int32 // latitude in degrees scaled by types.CoordScale
	LonE4       int32 // longitude in degrees scaled by types.CoordScale
	Specs       string
	UptimePct   int // 0..100
	MetadataRef string
	Stake       int64 // base units of the native currency
	RelayCount  uint64
	Rewards     int64 // lifetime rewards in base units
	Active      bool
	CreatedAt   time.Time
}

// Satellite is a registered satellite with its current orbital element set.
type Satellite struct {
	ID                types.SatelliteID
	Owner             types.Identity
	ElementsLine1     string
	ElementsLine2     string
	ElementsUpdatedAt time.Time
	MetadataRef       string
	Stake             int64
	Active            bool
	CreatedAt         time.Time
}

// Payment records the currency and amount collected for a pass at booking.
// The amount is fixed at booking and only moves again on refund or settlement.
type Payment struct {
	Currency types.Currency `json:"currency"`
	Amount   int64          `json:"amount"`
}

// RelayMetrics are the measurements reported when a pass completes.
type RelayMetrics struct {
	SignalStrengthDB int    `json:"signal_strength_db"`
	PayloadBytes     int64  `json:"payload_bytes"`
	Band             string `json:"band"`
}

// Pass is a booked relay session between one station and one satellite.
type Pass struct {
	ID           types.PassID
	Requester    types.Identity
	Owner        types.Identity // current holder of the transferable record
	StationID    types.StationID
	SatelliteID  types.SatelliteID
	Start        time.Time
	Duration     time.Duration
	Payment      Payment
	SnapshotHash string // hash of the element set used for scheduling
	ProofRef     string
	Metrics      RelayMetrics
	Verified     bool
	Claimed      bool
	State        string // one of the lifecycle states
	TokenID      string // ownership record in the external token registry
	BookedAt     time.Time
}

// ScoreChange is one append-only entry in a credit profile's history.
type ScoreChange struct {
	Old    int            `json:"old"`
	New    int            `json:"new"`
	Reason string         `json:"reason"`
	At     time.Time      `json:"at"`
	Actor  types.Identity `json:"actor"`
}

// CreditProfile tracks a participant's creditworthiness.
type CreditProfile struct {
	User        types.Identity
	Score       int
	Successes   uint64
	Failures    uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Outstanding int64 // outstanding BNPL balance in base units
	Repaid      int64 // cumulative repaid amount
	History     []ScoreChange
}

// Loan is a collateralized BNPL loan. At most one active loan per borrower.
type Loan struct {
	ID                 types.LoanID
	Borrower           types.Identity
	Principal          int64
	InterestBps        int
	Term               time.Duration
	StartedAt          time.Time
	Paid               int64
	LastPaymentAt      time.Time
	Active             bool
	Defaulted          bool
	CollateralCurrency types.Currency
	CollateralAmount   int64
}

// TotalDue is the principal plus simple interest over the full term.
// Interest is floored so repayment amounts are reproducible.
func (l *Loan) TotalDue() int64 {
	return l.Principal + l.Principal*int64(l.InterestBps)/10_000
}

// Outstanding is the unpaid remainder of TotalDue.
func (l *Loan) Outstanding() int64 {
	out := l.TotalDue() - l.Paid
	if out < 0 {
		return 0
	}
	return out
}

// PriceQuote is the last accepted price for an asset. Replaced wholesale on
// each accepted update.
type PriceQuote struct {
	Asset      types.Currency `json:"asset"`
	Price      int64          `json:"price"` // scaled by types.UnitScale
	At         time.Time      `json:"at"`
	Confidence int            `json:"confidence"` // 0..100
	Source     string         `json:"source"`
}

// Age reports how old the quote is relative to now.
func (q PriceQuote) Age(now time.Time) time.Duration { return now.Sub(q.At) }
