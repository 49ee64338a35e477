// Package credit tracks per-participant credit scores and services BNPL
// loan origination and repayment against them. All arithmetic is integer and
// floors, so terms are reproducible on replay.
package credit

import (
	"fmt"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// Default scoring and loan configuration constants.
const (
	defaultStartScore    = 600
	defaultMaxScore      = 1000
	defaultSuccessDelta  = 10
	defaultFailurePenalty = 50
	defaultBonusDelta    = 25
	defaultBonusInterval = 30 * 24 * time.Hour
	defaultMinLoanScore  = 650
	defaultRepayBonus    = 5
	defaultCollateralBps = 15_000 // 150% of principal
	defaultInterestBps   = 1_000  // 10% simple interest over the term
	defaultTerm          = 90 * 24 * time.Hour
	defaultGracePeriod   = 30 * 24 * time.Hour
)

// Score change reasons recorded in the history log.
const (
	ReasonInitial       = "initial"
	ReasonRelaySuccess  = "relay_success"
	ReasonRelayFailure  = "relay_failure"
	ReasonPeriodicBonus = "periodic_bonus"
	ReasonRepayment     = "loan_repaid"
	ReasonDefault       = "loan_default"
	ReasonAdminOverride = "admin_override"
)

// ProfileStore persists credit profiles.
type ProfileStore interface {
	Profile(user types.Identity) (*model.CreditProfile, bool)
	PutProfile(p *model.CreditProfile)
}

// LoanStore persists loans and resolves the active loan per borrower.
type LoanStore interface {
	InsertLoan(l *model.Loan) types.LoanID
	ActiveLoan(borrower types.Identity) (*model.Loan, bool)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScoreBounds sets the start score and the maximum score.
func WithScoreBounds(start, maximum int) Option {
	return func(e *Engine) {
		if start > 0 && maximum >= start {
			e.startScore = start
			e.maxScore = maximum
		}
	}
}

// WithDeltas sets the success, failure, bonus, and repayment score deltas.
func WithDeltas(success, failure, bonus, repay int) Option {
	return func(e *Engine) {
		if success > 0 {
			e.successDelta = success
		}
		if failure > 0 {
			e.failurePenalty = failure
		}
		if bonus > 0 {
			e.bonusDelta = bonus
		}
		if repay > 0 {
			e.repayBonus = repay
		}
	}
}

// WithBonusInterval sets the elapsed interval earning one periodic bonus.
func WithBonusInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.bonusInterval = d
		}
	}
}

// WithLoanBand sets the eligibility threshold and the base/cap loan sizes.
func WithLoanBand(minScore int, base, cap, minimum int64) Option {
	return func(e *Engine) {
		if minScore > 0 {
			e.minLoanScore = minScore
		}
		if base > 0 && cap >= base {
			e.loanBase = base
			e.loanCap = cap
		}
		if minimum > 0 {
			e.minLoanAmount = minimum
		}
	}
}

// WithLoanTerms sets collateral ratio, interest rate, term, and grace period.
func WithLoanTerms(collateralBps, interestBps int, term, grace time.Duration) Option {
	return func(e *Engine) {
		if collateralBps > 0 {
			e.collateralBps = collateralBps
		}
		if interestBps >= 0 {
			e.interestBps = interestBps
		}
		if term > 0 {
			e.term = term
		}
		if grace > 0 {
			e.gracePeriod = grace
		}
	}
}

// Engine is the credit scoring and BNPL engine. It is not internally
// synchronized: the settlement engine serializes all access.
type Engine struct {
	profiles ProfileStore
	loans    LoanStore

	startScore     int
	maxScore       int
	successDelta   int
	failurePenalty int
	bonusDelta     int
	bonusInterval  time.Duration
	repayBonus     int

	minLoanScore  int
	loanBase      int64
	loanCap       int64
	minLoanAmount int64
	collateralBps int
	interestBps   int
	term          time.Duration
	gracePeriod   time.Duration
}

// New constructs an Engine over the given stores with options applied.
func New(profiles ProfileStore, loans LoanStore, opts ...Option) *Engine {
	e := &Engine{
		profiles:       profiles,
		loans:          loans,
		startScore:     defaultStartScore,
		maxScore:       defaultMaxScore,
		successDelta:   defaultSuccessDelta,
		failurePenalty: defaultFailurePenalty,
		bonusDelta:     defaultBonusDelta,
		bonusInterval:  defaultBonusInterval,
		repayBonus:     defaultRepayBonus,
		minLoanScore:   defaultMinLoanScore,
		loanBase:       types.Units(10),
		loanCap:        types.Units(100),
		minLoanAmount:  types.Units(1),
		collateralBps:  defaultCollateralBps,
		interestBps:    defaultInterestBps,
		term:           defaultTerm,
		gracePeriod:    defaultGracePeriod,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// profileOf returns the profile, initializing it lazily at the neutral
// starting score on first touch.
func (e *Engine) profileOf(user types.Identity, now time.Time) *model.CreditProfile {
	if p, ok := e.profiles.Profile(user); ok {
		return p
	}
	p := &model.CreditProfile{
		User:      user,
		Score:     e.startScore,
		CreatedAt: now,
		UpdatedAt: now,
		History: []model.ScoreChange{{
			Old:    e.startScore,
			New:    e.startScore,
			Reason: ReasonInitial,
			At:     now,
			Actor:  user,
		}},
	}
	e.profiles.PutProfile(p)
	return p
}

// adjust moves the score by delta within [0, maxScore] and appends to the
// history log. A zero effective move is still recorded so the log explains
// capped adjustments.
func (e *Engine) adjust(p *model.CreditProfile, delta int, reason string, actor types.Identity, now time.Time) (old, updated int) {
	old = p.Score
	updated = old + delta
	if updated > e.maxScore {
		updated = e.maxScore
	}
	if updated < 0 {
		updated = 0
	}
	p.Score = updated
	p.UpdatedAt = now
	p.History = append(p.History, model.ScoreChange{
		Old:    old,
		New:    updated,
		Reason: reason,
		At:     now,
		Actor:  actor,
	})
	e.profiles.PutProfile(p)
	return old, updated
}

// RecordRelaySuccess credits a completed, verified relay.
func (e *Engine) RecordRelaySuccess(user types.Identity, now time.Time) (old, updated int) {
	p := e.profileOf(user, now)
	e.applyBonus(p, now)
	p.Successes++
	return e.adjust(p, e.successDelta, ReasonRelaySuccess, user, now)
}

// RecordRelayFailure debits a failed relay.
func (e *Engine) RecordRelayFailure(user types.Identity, now time.Time) (old, updated int) {
	p := e.profileOf(user, now)
	e.applyBonus(p, now)
	p.Failures++
	return e.adjust(p, -e.failurePenalty, ReasonRelayFailure, user, now)
}

// AdminOverride sets the score directly. The change is still bounded and
// fully audited in the history log with the acting identity.
func (e *Engine) AdminOverride(user types.Identity, score int, actor types.Identity, now time.Time) (old, updated int) {
	p := e.profileOf(user, now)
	return e.adjust(p, score-p.Score, ReasonAdminOverride, actor, now)
}

// applyBonus lazily applies one bonus per fully elapsed interval since the
// last update, so long-idle accounts catch up on read rather than by timer.
func (e *Engine) applyBonus(p *model.CreditProfile, now time.Time) {
	elapsed := now.Sub(p.UpdatedAt)
	if elapsed < e.bonusInterval {
		return
	}
	intervals := int(elapsed / e.bonusInterval)
	e.adjust(p, intervals*e.bonusDelta, ReasonPeriodicBonus, p.User, now)
}

// ApplyPeriodicBonus exposes the lazy bonus for explicit refresh calls.
func (e *Engine) ApplyPeriodicBonus(user types.Identity, now time.Time) int {
	p := e.profileOf(user, now)
	e.applyBonus(p, now)
	return p.Score
}

// Profile returns a copy of the user's profile, initializing it lazily.
func (e *Engine) Profile(user types.Identity, now time.Time) model.CreditProfile {
	p := e.profileOf(user, now)
	e.applyBonus(p, now)
	cp := *p
	cp.History = append([]model.ScoreChange(nil), p.History...)
	return cp
}

// MaxLoan computes the score-tier loan ceiling: a linear interpolation from
// the base amount at the threshold score to the cap amount at the maximum
// score, with floor division so the function is monotonic and reproducible.
func (e *Engine) MaxLoan(score int) int64 {
	if score < e.minLoanScore {
		return 0
	}
	if score >= e.maxScore {
		return e.loanCap
	}
	span := int64(e.maxScore - e.minLoanScore)
	return e.loanBase + int64(score-e.minLoanScore)*(e.loanCap-e.loanBase)/span
}

// CheckBNPLEligibility reports eligibility, the (bonus-refreshed) score, and
// the maximum loan for that score.
func (e *Engine) CheckBNPLEligibility(user types.Identity, now time.Time) (eligible bool, score int, maxLoan int64) {
	p := e.profileOf(user, now)
	e.applyBonus(p, now)
	score = p.Score
	if score < e.minLoanScore {
		return false, score, 0
	}
	return true, score, e.MaxLoan(score)
}

// RequiredCollateral is the minimum collateral for a principal, valued in
// the collateral currency at the engine's conversion of the principal.
func (e *Engine) RequiredCollateral(principalValue int64) int64 {
	return principalValue * int64(e.collateralBps) / 10_000
}

// RequestLoan validates and originates a loan. The caller is responsible for
// moving the collateral and disbursing the principal after this returns; the
// loan record is created first so a reentrant call sees it as active.
// collateralValue is the collateral amount expressed in the loan currency.
func (e *Engine) RequestLoan(borrower types.Identity, amount int64, collateralCurrency types.Currency, collateralAmount, collateralValue int64, now time.Time) (*model.Loan, error) {
	if amount <= 0 || collateralAmount <= 0 {
		return nil, fmt.Errorf("amount %d collateral %d: %w", amount, collateralAmount, ErrInvalidAmount)
	}
	if _, ok := e.loans.ActiveLoan(borrower); ok {
		return nil, fmt.Errorf("borrower %s: %w", borrower, ErrLoanActive)
	}
	eligible, score, maxLoan := e.CheckBNPLEligibility(borrower, now)
	if !eligible {
		return nil, fmt.Errorf("score %d < %d: %w", score, e.minLoanScore, ErrScoreTooLow)
	}
	if amount < e.minLoanAmount || amount > maxLoan {
		return nil, fmt.Errorf("amount %d outside [%d, %d]: %w", amount, e.minLoanAmount, maxLoan, ErrAmountOutOfBand)
	}
	if required := e.RequiredCollateral(amount); collateralValue < required {
		return nil, fmt.Errorf("collateral value %d < required %d: %w", collateralValue, required, ErrInsufficientCollateral)
	}
	l := &model.Loan{
		Borrower:           borrower,
		Principal:          amount,
		InterestBps:        e.interestBps,
		Term:               e.term,
		StartedAt:          now,
		LastPaymentAt:      now,
		Active:             true,
		CollateralCurrency: collateralCurrency,
		CollateralAmount:   collateralAmount,
	}
	p := e.profileOf(borrower, now)
	p.Outstanding = l.Outstanding()
	e.profiles.PutProfile(p)
	l.ID = e.loans.InsertLoan(l)
	return l, nil
}

// Repay applies a repayment to the borrower's active loan. On full repayment
// the loan closes, the collateral is releasable, and an on-time score bonus
// is awarded. The caller moves the money after this returns.
func (e *Engine) Repay(borrower types.Identity, amount int64, now time.Time) (*model.Loan, bool, error) {
	if amount <= 0 {
		return nil, false, fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}
	l, ok := e.loans.ActiveLoan(borrower)
	if !ok {
		return nil, false, fmt.Errorf("borrower %s: %w", borrower, ErrNoActiveLoan)
	}
	out := l.Outstanding()
	if amount > out {
		return nil, false, fmt.Errorf("amount %d > outstanding %d: %w", amount, out, ErrOverpayment)
	}
	l.Paid += amount
	l.LastPaymentAt = now

	p := e.profileOf(borrower, now)
	p.Outstanding = l.Outstanding()
	p.Repaid += amount
	e.profiles.PutProfile(p)

	closed := l.Outstanding() == 0
	if closed {
		l.Active = false
		e.adjust(p, e.repayBonus, ReasonRepayment, borrower, now)
	}
	return l, closed, nil
}

// CheckDefault flags the borrower's active loan as defaulted once the grace
// period since the last payment has elapsed. The collateral is then
// forfeited; executing the liquidation is the caller's concern.
func (e *Engine) CheckDefault(borrower types.Identity, now time.Time) (*model.Loan, bool, error) {
	l, ok := e.loans.ActiveLoan(borrower)
	if !ok {
		return nil, false, fmt.Errorf("borrower %s: %w", borrower, ErrNoActiveLoan)
	}
	if now.Sub(l.LastPaymentAt) <= e.gracePeriod {
		return l, false, nil
	}
	l.Active = false
	l.Defaulted = true

	p := e.profileOf(borrower, now)
	p.Outstanding = 0
	e.adjust(p, -e.failurePenalty, ReasonDefault, borrower, now)
	return l, true, nil
}

// MinLoanScore exposes the eligibility threshold for reporting.
func (e *Engine) MinLoanScore() int { return e.minLoanScore }
