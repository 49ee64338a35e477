package service

import (
	"context"
	"fmt"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/credit"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/lifecycle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/dev-tnsq/spacelink-sub000/pkg/logger"
	"github.com/dev-tnsq/spacelink-sub000/pkg/metrics"
)

// ClaimReward settles a verified pass: it pays the fixed relay reward from
// the reward pool to the station owner, releases the escrowed booking
// payment to them, bumps their relay count and credit score, and moves the
// pass to its settled terminal. The claim is marked and all counters are
// bumped before any value moves, so the reward can never be paid twice for
// the same pass id.
func (e *Engine) ClaimReward(ctx context.Context, caller types.Identity, id types.PassID) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrSystemPaused
	}
	pass, ok := e.store.Pass(id)
	if !ok {
		return 0, fmt.Errorf("pass %d: %w", id, errNotFound())
	}
	if pass.Claimed {
		return 0, fmt.Errorf("pass %d: %w", id, ErrAlreadyClaimed)
	}
	if !pass.Verified || pass.State != lifecycle.StateVerified {
		return 0, fmt.Errorf("pass %d in state %s: %w", id, pass.State, ErrNotVerified)
	}
	station, ok := e.store.Station(pass.StationID)
	if !ok {
		return 0, fmt.Errorf("station %d: %w", pass.StationID, errNotFound())
	}
	if e.router.Balance(e.native, RewardPoolIdentity) < e.relayReward {
		return 0, fmt.Errorf("reward %d: %w", e.relayReward, ErrInsufficientRewardPool)
	}

	now := e.clock.Now()
	pass.Claimed = true
	pass.State = lifecycle.StateSettled
	station.RelayCount++
	station.Rewards += e.relayReward
	old, updated := e.credit.RecordRelaySuccess(station.Owner, now)

	// The claim and counters above stick even if a transfer fails: the pass
	// stays settled so the reward cannot be claimed twice, and the failure
	// surfaces as ErrPayoutFailed for the operator to reconcile.
	var payoutErr error
	if err := e.router.RoutePayment(e.native, RewardPoolIdentity, station.Owner, e.relayReward); err != nil {
		e.log.Error(ctx, "reward payout failed after claim", logger.Error(err))
		payoutErr = fmt.Errorf("reward payout: %v: %w", err, ErrPayoutFailed)
	}
	if err := e.router.RoutePayment(pass.Payment.Currency, EscrowIdentity, station.Owner, pass.Payment.Amount); err != nil {
		e.log.Error(ctx, "escrow release failed after claim", logger.Error(err))
		payoutErr = fmt.Errorf("escrow release: %v: %w", err, ErrPayoutFailed)
	}

	e.emit(model.EventRewardClaimed, model.RewardClaimedPayload{
		PassID:  id,
		Station: pass.StationID,
		Owner:   station.Owner,
		Reward:  e.relayReward,
		Payout:  pass.Payment.Amount,
	})
	e.emit(model.EventCreditScoreChanged, model.CreditScoreChangedPayload{
		User: station.Owner, Old: old, New: updated, Reason: credit.ReasonRelaySuccess,
	})
	e.emit(model.EventPassStateChanged, model.PassStateChangedPayload{
		PassID: id, From: lifecycle.StateVerified, To: lifecycle.StateSettled,
	})
	metrics.RecordRewardClaimed()
	metrics.RecordPassSettled()
	metrics.RecordSettlementLatency(float64(now.Sub(pass.BookedAt).Milliseconds()))
	metrics.UpdateRewardPool(e.router.Balance(e.native, RewardPoolIdentity))
	e.log.Info(ctx, "reward claimed",
		logger.Uint64("passId", uint64(id)),
		logger.String("owner", string(station.Owner)),
		logger.Int64("reward", e.relayReward),
	)
	return e.relayReward, payoutErr
}

// RelayReward exposes the configured fixed reward for reporting.
func (e *Engine) RelayReward() int64 { return e.relayReward }
