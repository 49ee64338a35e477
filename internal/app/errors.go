package service

import (
	"errors"
	"fmt"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/repository"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// Sentinel kinds for engine errors. Component-level sentinels (payments,
// oracle, credit, lifecycle) pass through wrapped; these cover the checks
// the engine itself owns.
var (
	ErrSystemPaused             = errors.New("system is paused")
	ErrNotAuthorized            = errors.New("caller not authorized")
	ErrRequestPending           = errors.New("verification request already pending")
	ErrNoPendingVerification    = errors.New("no pending verification for pass")
	ErrInsufficientStake        = errors.New("stake below required minimum")
	ErrInvalidCoordinates       = errors.New("coordinates out of range")
	ErrInvalidSpecs             = errors.New("invalid station specs")
	ErrInvalidElementSet        = errors.New("invalid orbital element set")
	ErrInvalidMetadataReference = errors.New("invalid metadata reference")
	ErrInvalidProofReference    = errors.New("invalid proof reference")
	ErrEntityInactive           = errors.New("entity is not active")
	ErrEntityActive             = errors.New("entity is still active")
	ErrNothingToWithdraw        = errors.New("no stake to withdraw")
	ErrStaleElements            = errors.New("orbital elements exceed freshness window")
	ErrInvalidDuration          = errors.New("pass duration out of bounds")
	ErrSnapshotMismatch         = errors.New("element snapshot does not match booking")
	ErrAlreadyClaimed           = errors.New("reward already claimed for pass")
	ErrNotVerified              = errors.New("pass is not verified")
	ErrInsufficientRewardPool   = errors.New("reward pool balance too low")
	ErrPayoutFailed             = errors.New("payout failed after state change")
)

func notAuthorized(caller types.Identity, op string) error {
	return fmt.Errorf("%s: caller %s: %w", op, caller, ErrNotAuthorized)
}

// errNotFound returns the store's not-found sentinel so callers can match it
// with errors.Is without importing the repository package.
func errNotFound() error { return repository.ErrNotFound }

