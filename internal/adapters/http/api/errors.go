package api

import (
	"errors"
	"net/http"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/repository"
	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/token"
	service "github.com/dev-tnsq/spacelink-sub000/internal/app"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/credit"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/lifecycle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/oracle"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/payments"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("missing or invalid credentials")
)

// statusOf maps the engine's error taxonomy onto HTTP status codes:
// validation 400, authentication 401, resource 402, authorization 403,
// not-found 404, state-conflict 409, staleness 410, failed downstream
// payout 502, pause 503.
func statusOf(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, "ok"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden, "not_authorized"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, token.ErrUnknownToken),
		errors.Is(err, oracle.ErrNoPriceData):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSystemPaused):
		return http.StatusServiceUnavailable, "system_paused"
	case errors.Is(err, service.ErrPayoutFailed):
		return http.StatusBadGateway, "payout_failed"
	case errors.Is(err, oracle.ErrStalePrice),
		errors.Is(err, service.ErrStaleElements):
		return http.StatusGone, "stale"
	case errors.Is(err, service.ErrInsufficientStake),
		errors.Is(err, service.ErrInsufficientRewardPool),
		errors.Is(err, payments.ErrInsufficientPayment),
		errors.Is(err, payments.ErrInsufficientAllowance),
		errors.Is(err, credit.ErrInsufficientCollateral):
		return http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, service.ErrRequestPending),
		errors.Is(err, service.ErrNoPendingVerification),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrNotVerified),
		errors.Is(err, service.ErrEntityActive),
		errors.Is(err, service.ErrEntityInactive),
		errors.Is(err, service.ErrNothingToWithdraw),
		errors.Is(err, lifecycle.ErrInvalidStateTransition),
		errors.Is(err, credit.ErrLoanActive),
		errors.Is(err, credit.ErrNoActiveLoan):
		return http.StatusConflict, "state_conflict"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrInvalidSpecs),
		errors.Is(err, service.ErrInvalidElementSet),
		errors.Is(err, service.ErrInvalidMetadataReference),
		errors.Is(err, service.ErrInvalidProofReference),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrSnapshotMismatch),
		errors.Is(err, payments.ErrUnsupportedCurrency),
		errors.Is(err, payments.ErrInvalidAmount),
		errors.Is(err, payments.ErrSlippageExceeded),
		errors.Is(err, payments.ErrConversionUnavailable),
		errors.Is(err, oracle.ErrLowConfidence),
		errors.Is(err, oracle.ErrPriceDeviation),
		errors.Is(err, oracle.ErrInvalidQuote),
		errors.Is(err, credit.ErrScoreTooLow),
		errors.Is(err, credit.ErrAmountOutOfBand),
		errors.Is(err, credit.ErrOverpayment),
		errors.Is(err, credit.ErrInvalidAmount):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
