// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/events"
	service "github.com/dev-tnsq/spacelink-sub000/internal/app"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/dev-tnsq/spacelink-sub000/pkg/metrics"
)

// Dependencies is the engine surface the HTTP handlers drive. Using an
// interface bundle keeps the handler layer loosely coupled to the engine
// implementation.
type Dependencies interface {
	// Registry
	RegisterStation(ctx context.Context, owner types.Identity, latE4, lonE4 int32, specs string, uptimePct int, metadataRef string, stake int64) (types.StationID, error)
	RegisterSatellite(ctx context.Context, owner types.Identity, line1, line2, metadataRef string, stake int64) (types.SatelliteID, error)
	UpdateStation(ctx context.Context, caller types.Identity, id types.StationID, specs string, uptimePct int, metadataRef string) error
	UpdateSatellite(ctx context.Context, caller types.Identity, id types.SatelliteID, line1, line2, metadataRef string) error
	DeactivateStation(ctx context.Context, caller types.Identity, id types.StationID) error
	DeactivateSatellite(ctx context.Context, caller types.Identity, id types.SatelliteID) error
	WithdrawStationStake(ctx context.Context, caller types.Identity, id types.StationID) (int64, error)
	WithdrawSatelliteStake(ctx context.Context, caller types.Identity, id types.SatelliteID) (int64, error)
	Station(id types.StationID) (model.Station, error)
	Satellite(id types.SatelliteID) (model.Satellite, error)
	Stations() []model.Station
	Satellites() []model.Satellite

	// Passes
	BookPass(ctx context.Context, requester types.Identity, stationID types.StationID, satelliteID types.SatelliteID, start time.Time, duration time.Duration, currency types.Currency, amount int64) (types.PassID, error)
	ConfirmPass(ctx context.Context, caller types.Identity, id types.PassID) error
	TransferPass(ctx context.Context, caller types.Identity, id types.PassID, to types.Identity) error
	CompletePass(ctx context.Context, caller types.Identity, id types.PassID, proofRef string, relayMetrics model.RelayMetrics, snapshotHash string) error
	ResolveVerification(ctx context.Context, id types.PassID, verified bool) error
	CancelPass(ctx context.Context, caller types.Identity, id types.PassID) error
	Pass(id types.PassID) (model.Pass, error)
	Passes() []model.Pass
	ClaimReward(ctx context.Context, caller types.Identity, id types.PassID) (int64, error)

	// Oracle and payments
	UpdateQuote(ctx context.Context, caller types.Identity, asset types.Currency, price int64, confidence int, source string) error
	GetQuote(asset types.Currency) (model.PriceQuote, error)
	ConvertQuote(from, to types.Currency, amount int64) int64
	RoutePayment(ctx context.Context, currency types.Currency, payer, payee types.Identity, amount int64) error
	RouteWithConversion(ctx context.Context, from, to types.Currency, payer, payee types.Identity, amount int64) (int64, error)
	Approve(ctx context.Context, currency types.Currency, owner, spender types.Identity, amount int64) error
	Mint(ctx context.Context, caller types.Identity, currency types.Currency, to types.Identity, amount int64) error
	Balance(currency types.Currency, id types.Identity) int64
	FundRewardPool(ctx context.Context, caller types.Identity, amount int64) error
	RewardPoolBalance() int64
	Native() types.Currency

	// Credit
	CreditProfile(user types.Identity) model.CreditProfile
	CheckBNPLEligibility(user types.Identity) (eligible bool, score int, maxLoan int64)
	RequestLoan(ctx context.Context, borrower types.Identity, amount int64, collateralCurrency types.Currency, collateralAmount int64) (types.LoanID, error)
	RepayLoan(ctx context.Context, borrower types.Identity, amount int64) error
	CheckDefault(ctx context.Context, borrower types.Identity) (bool, error)
	SetCreditScore(ctx context.Context, caller, user types.Identity, score int) error

	// Administration
	Pause(caller types.Identity) error
	Resume(caller types.Identity) error
	Stats() service.Stats
}

// Server wires HTTP routes for the settlement API.
type Server struct {
	deps Dependencies
	auth *Authenticator
	feed *events.Feed
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, auth *Authenticator, feed *events.Feed) *Server {
	return &Server{deps: deps, auth: auth, feed: feed}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.handleStats, "stats"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /v1/events/stream", s.feed.HandleStream)

	authed := func(endpoint string, h authedHandler) http.HandlerFunc {
		return MetricsMiddleware(s.auth.Require(h), endpoint)
	}

	// Registry
	mux.HandleFunc("POST /v1/stations", authed("stations", s.handleRegisterStation))
	mux.HandleFunc("GET /v1/stations", MetricsMiddleware(s.handleListStations, "stations"))
	mux.HandleFunc("GET /v1/stations/{id}", MetricsMiddleware(s.handleGetStation, "stations"))
	mux.HandleFunc("PUT /v1/stations/{id}", authed("stations", s.handleUpdateStation))
	mux.HandleFunc("POST /v1/stations/{id}/deactivate", authed("stations", s.handleDeactivateStation))
	mux.HandleFunc("POST /v1/stations/{id}/withdraw-stake", authed("stations", s.handleWithdrawStationStake))

	mux.HandleFunc("POST /v1/satellites", authed("satellites", s.handleRegisterSatellite))
	mux.HandleFunc("GET /v1/satellites", MetricsMiddleware(s.handleListSatellites, "satellites"))
	mux.HandleFunc("GET /v1/satellites/{id}", MetricsMiddleware(s.handleGetSatellite, "satellites"))
	mux.HandleFunc("PUT /v1/satellites/{id}", authed("satellites", s.handleUpdateSatellite))
	mux.HandleFunc("POST /v1/satellites/{id}/deactivate", authed("satellites", s.handleDeactivateSatellite))
	mux.HandleFunc("POST /v1/satellites/{id}/withdraw-stake", authed("satellites", s.handleWithdrawSatelliteStake))

	// Passes
	mux.HandleFunc("POST /v1/passes", authed("passes", s.handleBookPass))
	mux.HandleFunc("GET /v1/passes", MetricsMiddleware(s.handleListPasses, "passes"))
	mux.HandleFunc("GET /v1/passes/{id}", MetricsMiddleware(s.handleGetPass, "passes"))
	mux.HandleFunc("POST /v1/passes/{id}/confirm", authed("passes", s.handleConfirmPass))
	mux.HandleFunc("POST /v1/passes/{id}/transfer", authed("passes", s.handleTransferPass))
	mux.HandleFunc("POST /v1/passes/{id}/complete", authed("passes", s.handleCompletePass))
	mux.HandleFunc("POST /v1/passes/{id}/cancel", authed("passes", s.handleCancelPass))
	mux.HandleFunc("POST /v1/passes/{id}/claim", authed("rewards", s.handleClaimReward))
	mux.HandleFunc("POST /v1/verifications/{id}", authed("verifications", s.handleResolveVerification))

	// Oracle and payments
	mux.HandleFunc("POST /v1/quotes", authed("quotes", s.handleUpdateQuote))
	mux.HandleFunc("GET /v1/quotes/{asset}", MetricsMiddleware(s.handleGetQuote, "quotes"))
	mux.HandleFunc("GET /v1/convert", MetricsMiddleware(s.handleConvert, "convert"))
	mux.HandleFunc("POST /v1/payments/route", authed("payments", s.handleRoutePayment))
	mux.HandleFunc("POST /v1/payments/convert", authed("payments", s.handleRouteWithConversion))
	mux.HandleFunc("POST /v1/payments/approve", authed("payments", s.handleApprove))
	mux.HandleFunc("POST /v1/payments/mint", authed("payments", s.handleMint))
	mux.HandleFunc("GET /v1/balances/{currency}", authed("balances", s.handleBalance))

	// Credit
	mux.HandleFunc("GET /v1/credit/profile", authed("credit", s.handleCreditProfile))
	mux.HandleFunc("GET /v1/credit/eligibility", authed("credit", s.handleEligibility))
	mux.HandleFunc("POST /v1/loans", authed("loans", s.handleRequestLoan))
	mux.HandleFunc("POST /v1/loans/repay", authed("loans", s.handleRepayLoan))
	mux.HandleFunc("POST /v1/loans/check-default", authed("loans", s.handleCheckDefault))

	// Rewards and administration
	mux.HandleFunc("POST /v1/rewards/pool", authed("rewards", s.handleFundRewardPool))
	mux.HandleFunc("GET /v1/rewards/pool", MetricsMiddleware(s.handleRewardPool, "rewards"))
	mux.HandleFunc("POST /v1/admin/pause", authed("admin", s.handlePause))
	mux.HandleFunc("POST /v1/admin/resume", authed("admin", s.handleResume))
	mux.HandleFunc("POST /v1/admin/credit-score", authed("admin", s.handleSetCreditScore))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses the {id} path segment as an unsigned integer.
func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, ErrBadRequest
	}
	return id, nil
}
