package payments

import "errors"

// Sentinel kinds for payment routing errors.
var (
	ErrUnsupportedCurrency   = errors.New("currency not registered")
	ErrInsufficientPayment   = errors.New("insufficient balance for payment")
	ErrInsufficientAllowance = errors.New("insufficient allowance for payment")
	ErrSlippageExceeded      = errors.New("conversion slippage exceeded")
	ErrConversionUnavailable = errors.New("conversion rate unavailable")
	ErrInvalidAmount         = errors.New("invalid amount")
)
