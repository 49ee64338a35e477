package model

import (
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// EventKind names an outbound event emitted on state-changing success.
type EventKind string

const (
	EventStationRegistered   EventKind = "StationRegistered"
	EventSatelliteRegistered EventKind = "SatelliteRegistered"
	EventStakeWithdrawn      EventKind = "StakeWithdrawn"
	EventPassBooked          EventKind = "PassBooked"
	EventPassStateChanged    EventKind = "PassStateChanged"
	EventPassVerified        EventKind = "PassVerified"
	EventRewardClaimed       EventKind = "RewardClaimed"
	EventCreditScoreChanged  EventKind = "CreditScoreChanged"
	EventLoanOriginated      EventKind = "LoanOriginated"
	EventLoanRepaid          EventKind = "LoanRepaid"
	EventLoanDefaulted       EventKind = "LoanDefaulted"
	EventPriceUpdated        EventKind = "PriceUpdated"
)

// Event is one entry in the outbound feed. Payloads carry enough data for an
// external indexer to reconstruct state without re-querying.
type Event struct {
	ID      string    `json:"id"`
	Kind    EventKind `json:"kind"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// StationRegisteredPayload accompanies EventStationRegistered.
type StationRegisteredPayload struct {
	StationID types.StationID `json:"station_id"`
	Owner     types.Identity  `json:"owner"`
	LatE4     int32           `json:"lat_e4"`
	LonE4     int32           `json:"lon_e4"`
	Stake     int64           `json:"stake"`
}

// SatelliteRegisteredPayload accompanies EventSatelliteRegistered.
type SatelliteRegisteredPayload struct {
	SatelliteID types.SatelliteID `json:"satellite_id"`
	Owner       types.Identity    `json:"owner"`
	Stake       int64             `json:"stake"`
}

// StakeWithdrawnPayload accompanies EventStakeWithdrawn.
type StakeWithdrawnPayload struct {
	Entity string         `json:"entity"` // "station" or "satellite"
	ID     uint64         `json:"id"`
	Owner  types.Identity `json:"owner"`
	Amount int64          `json:"amount"`
}

// PassBookedPayload accompanies EventPassBooked.
type PassBookedPayload struct {
	PassID      types.PassID      `json:"pass_id"`
	Requester   types.Identity    `json:"requester"`
	StationID   types.StationID   `json:"station_id"`
	SatelliteID types.SatelliteID `json:"satellite_id"`
	Start       time.Time         `json:"start"`
	DurationSec int64             `json:"duration_sec"`
	Payment     Payment           `json:"payment"`
	TokenID     string            `json:"token_id"`
}

// PassStateChangedPayload accompanies EventPassStateChanged.
type PassStateChangedPayload struct {
	PassID types.PassID `json:"pass_id"`
	From   string       `json:"from"`
	To     string       `json:"to"`
}

// PassVerifiedPayload accompanies EventPassVerified.
type PassVerifiedPayload struct {
	PassID   types.PassID `json:"pass_id"`
	Verified bool         `json:"verified"`
	ProofRef string       `json:"proof_ref"`
}

// RewardClaimedPayload accompanies EventRewardClaimed.
type RewardClaimedPayload struct {
	PassID  types.PassID    `json:"pass_id"`
	Station types.StationID `json:"station_id"`
	Owner   types.Identity  `json:"owner"`
	Reward  int64           `json:"reward"`
	Payout  int64           `json:"payout"` // escrowed payment released at settlement
}

// CreditScoreChangedPayload accompanies EventCreditScoreChanged.
type CreditScoreChangedPayload struct {
	User   types.Identity `json:"user"`
	Old    int            `json:"old"`
	New    int            `json:"new"`
	Reason string         `json:"reason"`
}

// LoanOriginatedPayload accompanies EventLoanOriginated.
type LoanOriginatedPayload struct {
	LoanID             types.LoanID   `json:"loan_id"`
	Borrower           types.Identity `json:"borrower"`
	Principal          int64          `json:"principal"`
	InterestBps        int            `json:"interest_bps"`
	CollateralCurrency types.Currency `json:"collateral_currency"`
	CollateralAmount   int64          `json:"collateral_amount"`
}

// LoanRepaidPayload accompanies EventLoanRepaid.
type LoanRepaidPayload struct {
	LoanID      types.LoanID   `json:"loan_id"`
	Borrower    types.Identity `json:"borrower"`
	Amount      int64          `json:"amount"`
	Outstanding int64          `json:"outstanding"`
	Closed      bool           `json:"closed"`
}

// LoanDefaultedPayload accompanies EventLoanDefaulted.
type LoanDefaultedPayload struct {
	LoanID             types.LoanID   `json:"loan_id"`
	Borrower           types.Identity `json:"borrower"`
	Outstanding        int64          `json:"outstanding"`
	CollateralCurrency types.Currency `json:"collateral_currency"`
	CollateralAmount   int64          `json:"collateral_amount"`
}

// PriceUpdatedPayload accompanies EventPriceUpdated.
type PriceUpdatedPayload struct {
	Asset      types.Currency `json:"asset"`
	Price      int64          `json:"price"`
	Confidence int            `json:"confidence"`
	Source     string         `json:"source"`
}
