// Package lifecycle defines the pass state machine: the named states, the
// legal transition table, and the lazy auto-lock rule.
package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// Pass states. Cancelled and Disputed are distinct terminals: Cancelled is
// reached only through a party cancelling before lock, Disputed only through
// failed or timed-out verification.
const (
	StateBooked       = "booked"
	StateTransferable = "transferable"
	StateLocked       = "locked"
	StateCompleted    = "completed"
	StateVerified     = "verified"
	StateSettled      = "settled"
	StateDisputed     = "disputed"
	StateCancelled    = "cancelled"
)

// Sentinel kinds for lifecycle errors.
var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrUnknownState           = errors.New("unknown pass state")
)

// transitions is the legal edge set of the state machine.
var transitions = map[string]map[string]bool{
	StateBooked: {
		StateTransferable: true,
		StateLocked:       true,
		StateCancelled:    true,
		StateDisputed:     true,
	},
	StateTransferable: {
		StateLocked:    true,
		StateCancelled: true,
		StateDisputed:  true,
	},
	StateLocked: {
		StateCompleted: true,
	},
	StateCompleted: {
		StateVerified: true,
		StateDisputed: true,
	},
	StateVerified: {
		StateSettled: true,
	},
	StateSettled:   {},
	StateDisputed:  {},
	StateCancelled: {},
}

// Known reports whether s names a lifecycle state.
func Known(s string) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s admits no further transitions.
func Terminal(s string) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Transition validates the edge from -> to.
func Transition(from, to string) error {
	next, ok := transitions[from]
	if !ok {
		return fmt.Errorf("%q: %w", from, ErrUnknownState)
	}
	if !next[to] {
		return fmt.Errorf("%q -> %q: %w", from, to, ErrInvalidStateTransition)
	}
	return nil
}

// Cancellable reports whether a pass in state s may still be cancelled: only
// states strictly before Locked qualify.
func Cancellable(s string) bool {
	return s == StateBooked || s == StateTransferable
}

// PreCompletion reports whether a pass in state s has not yet completed:
// completion is accepted from any of these, recording the implicit lock.
func PreCompletion(s string) bool {
	return s == StateBooked || s == StateTransferable || s == StateLocked
}

// Effective materializes the lazy auto-lock: a Booked or Transferable pass
// whose lock window has opened reads as Locked without a stored transition,
// so an unconfirmed pass cannot be cancelled for a refund right up to its
// start. All state checks must go through this rather than the stored field.
func Effective(stored string, start, now time.Time, lockWindow time.Duration) string {
	if (stored == StateBooked || stored == StateTransferable) && !now.Before(start.Add(-lockWindow)) {
		return StateLocked
	}
	return stored
}
