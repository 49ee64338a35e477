package service

import (
	"context"
	"fmt"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/payments"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/dev-tnsq/spacelink-sub000/pkg/logger"
	"github.com/dev-tnsq/spacelink-sub000/pkg/metrics"
)

// CreditProfile returns the caller-visible profile with the lazy periodic
// bonus applied.
func (e *Engine) CreditProfile(user types.Identity) model.CreditProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credit.Profile(user, e.clock.Now())
}

// CheckBNPLEligibility reports whether user qualifies for a loan and the
// maximum principal at their current score.
func (e *Engine) CheckBNPLEligibility(user types.Identity) (eligible bool, score int, maxLoan int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credit.CheckBNPLEligibility(user, e.clock.Now())
}

// RequestLoan originates a collateralized loan: the collateral moves into
// escrow and the principal is disbursed from the treasury in the native
// currency. The loan record is created before any value moves, so a
// reentrant call sees it as active.
func (e *Engine) RequestLoan(ctx context.Context, borrower types.Identity, amount int64, collateralCurrency types.Currency, collateralAmount int64) (types.LoanID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrSystemPaused
	}

	now := e.clock.Now()
	collateralValue := collateralAmount
	if collateralCurrency != e.native {
		collateralValue = e.oracle.Convert(collateralCurrency, e.native, collateralAmount, now)
		if collateralValue == 0 {
			return 0, fmt.Errorf("value %s collateral: %w", collateralCurrency, payments.ErrConversionUnavailable)
		}
	}

	// Both legs must be coverable before the loan record exists; the engine
	// never leaves a half-funded loan behind.
	if e.router.Balance(collateralCurrency, borrower) < collateralAmount {
		return 0, fmt.Errorf("lock collateral: %w", payments.ErrInsufficientPayment)
	}
	if e.router.Balance(e.native, TreasuryIdentity) < amount {
		return 0, fmt.Errorf("treasury disbursement: %w", payments.ErrInsufficientPayment)
	}

	loan, err := e.credit.RequestLoan(borrower, amount, collateralCurrency, collateralAmount, collateralValue, now)
	if err != nil {
		return 0, err
	}
	if err := e.router.RoutePayment(collateralCurrency, borrower, EscrowIdentity, collateralAmount); err != nil {
		return 0, fmt.Errorf("lock collateral: %w", err)
	}
	if err := e.router.RoutePayment(e.native, TreasuryIdentity, borrower, amount); err != nil {
		return 0, fmt.Errorf("disburse principal: %w", err)
	}

	e.emit(model.EventLoanOriginated, model.LoanOriginatedPayload{
		LoanID:             loan.ID,
		Borrower:           borrower,
		Principal:          amount,
		InterestBps:        loan.InterestBps,
		CollateralCurrency: collateralCurrency,
		CollateralAmount:   collateralAmount,
	})
	metrics.RecordLoanOriginated()
	e.log.Info(ctx, "loan originated",
		logger.Uint64("loanId", uint64(loan.ID)),
		logger.String("borrower", string(borrower)),
		logger.Int64("principal", amount),
	)
	return loan.ID, nil
}

// RepayLoan applies a repayment toward the borrower's active loan. Full
// repayment closes the loan and releases the collateral back to the
// borrower.
func (e *Engine) RepayLoan(ctx context.Context, borrower types.Identity, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return ErrSystemPaused
	}
	if e.router.Balance(e.native, borrower) < amount {
		return fmt.Errorf("repay: %w", payments.ErrInsufficientPayment)
	}

	now := e.clock.Now()
	loan, closed, err := e.credit.Repay(borrower, amount, now)
	if err != nil {
		return err
	}
	if err := e.router.RoutePayment(e.native, borrower, TreasuryIdentity, amount); err != nil {
		return fmt.Errorf("repay: %w", err)
	}
	var payoutErr error
	if closed {
		// The loan is already closed at this point; a failed release is
		// surfaced so the stranded collateral can be reconciled.
		if rerr := e.router.RoutePayment(loan.CollateralCurrency, EscrowIdentity, borrower, loan.CollateralAmount); rerr != nil {
			e.log.Error(ctx, "collateral release failed", logger.Error(rerr))
			payoutErr = fmt.Errorf("collateral release: %v: %w", rerr, ErrPayoutFailed)
		}
		metrics.RecordLoanRepaid()
	}

	e.emit(model.EventLoanRepaid, model.LoanRepaidPayload{
		LoanID:      loan.ID,
		Borrower:    borrower,
		Amount:      amount,
		Outstanding: loan.Outstanding(),
		Closed:      closed,
	})
	e.log.Info(ctx, "loan repayment",
		logger.Uint64("loanId", uint64(loan.ID)),
		logger.Int64("amount", amount),
		logger.Any("closed", closed),
	)
	return payoutErr
}

// CheckDefault lazily evaluates the grace period on the borrower's active
// loan. On default the collateral is forfeited to the treasury, which
// signals the external liquidation.
func (e *Engine) CheckDefault(ctx context.Context, borrower types.Identity) (defaulted bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return false, ErrSystemPaused
	}

	now := e.clock.Now()
	loan, defaulted, err := e.credit.CheckDefault(borrower, now)
	if err != nil {
		return false, err
	}
	if !defaulted {
		return false, nil
	}

	// The default is already recorded; a failed forfeit surfaces alongside
	// defaulted=true so the stranded collateral can be reconciled.
	var payoutErr error
	if rerr := e.router.RoutePayment(loan.CollateralCurrency, EscrowIdentity, TreasuryIdentity, loan.CollateralAmount); rerr != nil {
		e.log.Error(ctx, "collateral forfeit failed", logger.Error(rerr))
		payoutErr = fmt.Errorf("collateral forfeit: %v: %w", rerr, ErrPayoutFailed)
	}

	e.emit(model.EventLoanDefaulted, model.LoanDefaultedPayload{
		LoanID:             loan.ID,
		Borrower:           borrower,
		Outstanding:        loan.Outstanding(),
		CollateralCurrency: loan.CollateralCurrency,
		CollateralAmount:   loan.CollateralAmount,
	})
	e.emitScoreChange(borrower)
	metrics.RecordLoanDefaulted()
	e.log.Warn(ctx, "loan defaulted",
		logger.Uint64("loanId", uint64(loan.ID)),
		logger.String("borrower", string(borrower)),
	)
	return true, payoutErr
}

// SetCreditScore lets the admin overwrite a user's score. The change still
// lands in the append-only history with the admin as actor.
func (e *Engine) SetCreditScore(ctx context.Context, caller types.Identity, user types.Identity, score int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return notAuthorized(caller, "set credit score")
	}

	old, updated := e.credit.AdminOverride(user, score, caller, e.clock.Now())
	e.emitScoreChange(user)
	e.log.Warn(ctx, "credit score overridden",
		logger.String("user", string(user)),
		logger.Int("old", old),
		logger.Int("new", updated),
	)
	return nil
}

// emitScoreChange publishes the most recent score change from the user's
// history log. Callers hold the engine mutex.
func (e *Engine) emitScoreChange(user types.Identity) {
	p := e.credit.Profile(user, e.clock.Now())
	if len(p.History) == 0 {
		return
	}
	last := p.History[len(p.History)-1]
	e.emit(model.EventCreditScoreChanged, model.CreditScoreChangedPayload{
		User: user, Old: last.Old, New: last.New, Reason: last.Reason,
	})
}
