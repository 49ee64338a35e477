// Package types contains identifier and value types shared across the engine.
package types

// StationID identifies a registered ground station.
type StationID uint64

// SatelliteID identifies a registered satellite.
type SatelliteID uint64

// PassID identifies a booked relay pass.
type PassID uint64

// LoanID identifies a BNPL loan.
type LoanID uint64

// Identity is an opaque caller identity (wallet address, account id).
type Identity string

// Currency is an asset code, e.g. "XLM" or "USDC".
type Currency string

// UnitScale is the fixed-point scale for all value amounts and prices:
// one whole unit equals 1e7 base units.
const UnitScale int64 = 10_000_000

// CoordScale is the fixed-point scale for latitude/longitude degrees.
const CoordScale int32 = 10_000

// Units converts a whole-unit count to base units.
func Units(n int64) int64 { return n * UnitScale }
