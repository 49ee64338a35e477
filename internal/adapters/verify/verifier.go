// Package verify adapts the external verification oracle that confirms
// relay proofs. The engine treats a delayed callback as "still pending",
// never as failure.
package verify

import (
	"context"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// Result is the oracle's answer for one proof.
type Result int

const (
	// Pending means no answer yet; the engine keeps the request open.
	Pending Result = iota
	// Confirmed means the relay proof checked out.
	Confirmed
	// Rejected means the proof failed verification.
	Rejected
)

// Request carries everything the oracle needs to verify one pass.
type Request struct {
	Pass      types.PassID
	Station   types.StationID
	Satellite types.SatelliteID
	Scheduled time.Time
	ProofRef  string
}

// Verifier is the collaborator contract. A synchronous integration answers
// immediately; an asynchronous one returns Pending and resolves later via
// the engine's callback entry point.
type Verifier interface {
	Verify(ctx context.Context, req Request) (Result, error)
}

// Static answers every request the same way; the simplest integration and
// the test default.
type Static struct {
	Answer Result
}

// Verify implements Verifier.
func (s Static) Verify(_ context.Context, _ Request) (Result, error) {
	return s.Answer, nil
}

// Recorder returns Pending and remembers each request so tests can drive the
// callback path explicitly.
type Recorder struct {
	Requests []Request
}

// Verify implements Verifier.
func (r *Recorder) Verify(_ context.Context, req Request) (Result, error) {
	r.Requests = append(r.Requests, req)
	return Pending, nil
}
