package credit

import "errors"

// Sentinel kinds for credit and BNPL errors.
var (
	ErrScoreTooLow            = errors.New("credit score below BNPL threshold")
	ErrLoanActive             = errors.New("borrower already has an active loan")
	ErrNoActiveLoan           = errors.New("no active loan for borrower")
	ErrAmountOutOfBand        = errors.New("loan amount outside the score-tier band")
	ErrInsufficientCollateral = errors.New("collateral below required ratio")
	ErrOverpayment            = errors.New("repayment exceeds outstanding balance")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNotDefaulted           = errors.New("loan is not in default")
)
