package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/storage"
	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/verify"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/elements"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/lifecycle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/dev-tnsq/spacelink-sub000/pkg/logger"
	"github.com/dev-tnsq/spacelink-sub000/pkg/metrics"
)

// BookPass books a relay session against an active station and satellite,
// collecting the payment into escrow and minting a transferable ownership
// record. The satellite's element set is snapshot-hashed into the pass.
func (e *Engine) BookPass(ctx context.Context, requester types.Identity, stationID types.StationID, satelliteID types.SatelliteID, start time.Time, duration time.Duration, currency types.Currency, amount int64) (types.PassID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrSystemPaused
	}
	station, ok := e.store.Station(stationID)
	if !ok {
		return 0, fmt.Errorf("station %d: %w", stationID, errNotFound())
	}
	if !station.Active {
		return 0, fmt.Errorf("station %d: %w", stationID, ErrEntityInactive)
	}
	sat, ok := e.store.Satellite(satelliteID)
	if !ok {
		return 0, fmt.Errorf("satellite %d: %w", satelliteID, errNotFound())
	}
	if !sat.Active {
		return 0, fmt.Errorf("satellite %d: %w", satelliteID, ErrEntityInactive)
	}

	now := e.clock.Now()
	if !elements.Fresh(sat.ElementsUpdatedAt, now, e.elementMaxAge) {
		return 0, fmt.Errorf("satellite %d elements from %s: %w",
			satelliteID, sat.ElementsUpdatedAt.Format(time.RFC3339), ErrStaleElements)
	}
	if duration < e.minPassDuration || duration > e.maxPassDuration {
		return 0, fmt.Errorf("duration %s outside [%s, %s]: %w",
			duration, e.minPassDuration, e.maxPassDuration, ErrInvalidDuration)
	}

	if err := e.router.RoutePayment(currency, requester, EscrowIdentity, amount); err != nil {
		return 0, fmt.Errorf("collect payment: %w", err)
	}

	pass := &model.Pass{
		Requester:    requester,
		Owner:        requester,
		StationID:    stationID,
		SatelliteID:  satelliteID,
		Start:        start,
		Duration:     duration,
		Payment:      model.Payment{Currency: currency, Amount: amount},
		SnapshotHash: elements.SnapshotHashOf(sat.ElementsLine1, sat.ElementsLine2),
		State:        lifecycle.StateBooked,
		BookedAt:     now,
	}
	id := e.store.InsertPass(pass)

	tokenID, err := e.tokens.Mint(id, requester)
	if err != nil {
		e.store.DeletePass(id)
		if rerr := e.router.RoutePayment(currency, EscrowIdentity, requester, amount); rerr != nil {
			e.log.Error(ctx, "refund after mint failure failed", logger.Error(rerr))
		}
		return 0, fmt.Errorf("mint ownership record: %w", err)
	}
	pass.TokenID = tokenID

	e.emit(model.EventPassBooked, model.PassBookedPayload{
		PassID:      id,
		Requester:   requester,
		StationID:   stationID,
		SatelliteID: satelliteID,
		Start:       start,
		DurationSec: int64(duration / time.Second),
		Payment:     pass.Payment,
		TokenID:     tokenID,
	})
	metrics.RecordPassBooked()
	metrics.RecordPaymentRouted(string(currency))
	e.log.Info(ctx, "pass booked",
		logger.Uint64("passId", uint64(id)),
		logger.Uint64("stationId", uint64(stationID)),
		logger.Uint64("satelliteId", uint64(satelliteID)),
		logger.Int64("amount", amount),
	)
	return id, nil
}

// ConfirmPass is the satellite-side acknowledgment moving the pass from
// Booked to Transferable.
func (e *Engine) ConfirmPass(ctx context.Context, caller types.Identity, id types.PassID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pass, ok := e.store.Pass(id)
	if !ok {
		return fmt.Errorf("pass %d: %w", id, errNotFound())
	}
	sat, ok := e.store.Satellite(pass.SatelliteID)
	if !ok {
		return fmt.Errorf("satellite %d: %w", pass.SatelliteID, errNotFound())
	}
	if sat.Owner != caller {
		return notAuthorized(caller, "confirm pass")
	}

	from := e.effectiveState(pass, e.clock.Now())
	if err := lifecycle.Transition(from, lifecycle.StateTransferable); err != nil {
		return fmt.Errorf("pass %d: %w", id, err)
	}
	pass.State = lifecycle.StateTransferable

	e.emit(model.EventPassStateChanged, model.PassStateChangedPayload{
		PassID: id, From: from, To: lifecycle.StateTransferable,
	})
	e.log.Info(ctx, "pass confirmed", logger.Uint64("passId", uint64(id)))
	return nil
}

// TransferPass moves ownership of a transferable pass. Rejected once the
// lock window has opened.
func (e *Engine) TransferPass(ctx context.Context, caller types.Identity, id types.PassID, to types.Identity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pass, ok := e.store.Pass(id)
	if !ok {
		return fmt.Errorf("pass %d: %w", id, errNotFound())
	}
	if pass.Owner != caller {
		return notAuthorized(caller, "transfer pass")
	}
	if state := e.effectiveState(pass, e.clock.Now()); state != lifecycle.StateTransferable {
		return fmt.Errorf("pass %d in state %s: %w", id, state, lifecycle.ErrInvalidStateTransition)
	}

	prev := pass.Owner
	pass.Owner = to
	if err := e.tokens.Transfer(pass.TokenID, prev, to); err != nil {
		pass.Owner = prev
		return fmt.Errorf("transfer ownership record: %w", err)
	}

	metrics.RecordPassTransferred()
	e.log.Info(ctx, "pass transferred",
		logger.Uint64("passId", uint64(id)),
		logger.String("to", string(to)),
	)
	return nil
}

// CompletePass records the station owner's relay proof and metrics and
// requests verification. The supplied snapshot hash must match the element
// set the pass was booked against. A synchronous verifier resolves the pass
// immediately; otherwise the request stays pending, and a second completion
// attempt while pending fails.
func (e *Engine) CompletePass(ctx context.Context, caller types.Identity, id types.PassID, proofRef string, relayMetrics model.RelayMetrics, snapshotHash string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pass, ok := e.store.Pass(id)
	if !ok {
		return fmt.Errorf("pass %d: %w", id, errNotFound())
	}
	station, ok := e.store.Station(pass.StationID)
	if !ok {
		return fmt.Errorf("station %d: %w", pass.StationID, errNotFound())
	}
	if station.Owner != caller {
		return notAuthorized(caller, "complete pass")
	}
	if _, isPending := e.pending[id]; isPending {
		return fmt.Errorf("pass %d: %w", id, ErrRequestPending)
	}
	if err := storage.ValidateRef(proofRef); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidProofReference)
	}
	if snapshotHash != pass.SnapshotHash {
		return fmt.Errorf("pass %d: %w", id, ErrSnapshotMismatch)
	}

	now := e.clock.Now()
	from := e.effectiveState(pass, now)
	if !lifecycle.PreCompletion(from) {
		return fmt.Errorf("pass %d in state %s: %w", id, from, lifecycle.ErrInvalidStateTransition)
	}

	pass.State = lifecycle.StateCompleted
	pass.ProofRef = proofRef
	pass.Metrics = relayMetrics
	e.emit(model.EventPassStateChanged, model.PassStateChangedPayload{
		PassID: id, From: from, To: lifecycle.StateCompleted,
	})
	metrics.RecordPassCompleted()

	req := verify.Request{
		Pass:      id,
		Station:   pass.StationID,
		Satellite: pass.SatelliteID,
		Scheduled: pass.Start,
		ProofRef:  proofRef,
	}
	result, err := e.verifier.Verify(ctx, req)
	if err != nil {
		e.log.Warn(ctx, "verifier unavailable, treating as pending",
			logger.Uint64("passId", uint64(id)), logger.Error(err))
		result = verify.Pending
	}

	switch result {
	case verify.Confirmed:
		e.resolvePassLocked(ctx, pass, true)
	case verify.Rejected:
		e.resolvePassLocked(ctx, pass, false)
	case verify.Pending:
		e.pending[id] = req
		e.log.Info(ctx, "verification pending", logger.Uint64("passId", uint64(id)))
	}
	return nil
}

// ResolveVerification is the verification oracle's callback for a pending
// request.
func (e *Engine) ResolveVerification(ctx context.Context, id types.PassID, verified bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pass, ok := e.store.Pass(id)
	if !ok {
		return fmt.Errorf("pass %d: %w", id, errNotFound())
	}
	if _, isPending := e.pending[id]; !isPending {
		return fmt.Errorf("pass %d: %w", id, ErrNoPendingVerification)
	}
	delete(e.pending, id)
	e.resolvePassLocked(ctx, pass, verified)
	return nil
}

// resolvePassLocked applies a verification outcome to a completed pass.
// Callers hold the engine mutex.
func (e *Engine) resolvePassLocked(ctx context.Context, pass *model.Pass, verified bool) {
	from := pass.State
	if verified {
		pass.Verified = true
		pass.State = lifecycle.StateVerified
		metrics.RecordPassVerified()
	} else {
		pass.State = lifecycle.StateDisputed
		metrics.RecordPassDisputed()
		// A disputed relay counts against the operator's credit.
		if station, ok := e.store.Station(pass.StationID); ok {
			e.credit.RecordRelayFailure(station.Owner, e.clock.Now())
			e.emitScoreChange(station.Owner)
		}
	}

	e.emit(model.EventPassVerified, model.PassVerifiedPayload{
		PassID: pass.ID, Verified: verified, ProofRef: pass.ProofRef,
	})
	e.emit(model.EventPassStateChanged, model.PassStateChangedPayload{
		PassID: pass.ID, From: from, To: pass.State,
	})
	e.log.Info(ctx, "pass verification resolved",
		logger.Uint64("passId", uint64(pass.ID)),
		logger.Any("verified", verified),
	)
}

// CancelPass cancels an unlocked pass, refunding the exact original payment
// in its original currency and burning the ownership record. Requester or
// station owner only.
func (e *Engine) CancelPass(ctx context.Context, caller types.Identity, id types.PassID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return ErrSystemPaused
	}
	pass, ok := e.store.Pass(id)
	if !ok {
		return fmt.Errorf("pass %d: %w", id, errNotFound())
	}
	station, ok := e.store.Station(pass.StationID)
	if !ok {
		return fmt.Errorf("station %d: %w", pass.StationID, errNotFound())
	}
	if caller != pass.Requester && caller != station.Owner {
		return notAuthorized(caller, "cancel pass")
	}

	from := e.effectiveState(pass, e.clock.Now())
	if !lifecycle.Cancellable(from) {
		return fmt.Errorf("pass %d in state %s: %w", id, from, lifecycle.ErrInvalidStateTransition)
	}

	pass.State = lifecycle.StateCancelled
	if err := e.router.RoutePayment(pass.Payment.Currency, EscrowIdentity, pass.Requester, pass.Payment.Amount); err != nil {
		pass.State = from
		return fmt.Errorf("refund payment: %w", err)
	}
	if err := e.tokens.Burn(pass.TokenID); err != nil {
		e.log.Warn(ctx, "burning ownership record failed", logger.Error(err))
	}

	e.emit(model.EventPassStateChanged, model.PassStateChangedPayload{
		PassID: id, From: from, To: lifecycle.StateCancelled,
	})
	metrics.RecordPassCancelled()
	e.log.Info(ctx, "pass cancelled",
		logger.Uint64("passId", uint64(id)),
		logger.Int64("refund", pass.Payment.Amount),
	)
	return nil
}

// Pass returns a copy of the pass with its effective (lazily locked) state.
func (e *Engine) Pass(id types.PassID) (model.Pass, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pass, ok := e.store.Pass(id)
	if !ok {
		return model.Pass{}, fmt.Errorf("pass %d: %w", id, errNotFound())
	}
	e.effectiveState(pass, e.clock.Now())
	return *pass, nil
}

// Passes lists all passes in id order with effective states.
func (e *Engine) Passes() []model.Pass {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	stored := e.store.Passes()
	out := make([]model.Pass, 0, len(stored))
	for _, p := range stored {
		e.effectiveState(p, now)
		out = append(out, *p)
	}
	return out
}
