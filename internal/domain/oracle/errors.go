package oracle

import "errors"

// Sentinel kinds for oracle errors.
var (
	ErrNoPriceData    = errors.New("no price data for asset")
	ErrStalePrice     = errors.New("price quote is stale")
	ErrLowConfidence  = errors.New("quote confidence below minimum")
	ErrPriceDeviation = errors.New("quote deviates beyond allowed bound")
	ErrInvalidQuote   = errors.New("invalid quote")
)
