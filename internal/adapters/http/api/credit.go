package api

import (
	"net/http"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

type loanRequest struct {
	Amount             int64          `json:"amount"`
	CollateralCurrency types.Currency `json:"collateral_currency"`
	CollateralAmount   int64          `json:"collateral_amount"`
}

type repayRequest struct {
	Amount int64 `json:"amount"`
}

type eligibilityResponse struct {
	Eligible bool  `json:"eligible"`
	Score    int   `json:"score"`
	MaxLoan  int64 `json:"max_loan"`
}

type creditProfileResponse struct {
	User        types.Identity      `json:"user"`
	Score       int                 `json:"score"`
	Successes   uint64              `json:"successes"`
	Failures    uint64              `json:"failures"`
	Outstanding int64               `json:"outstanding"`
	Repaid      int64               `json:"repaid"`
	History     []model.ScoreChange `json:"history"`
}

func (s *Server) handleCreditProfile(w http.ResponseWriter, _ *http.Request, caller types.Identity) {
	p := s.deps.CreditProfile(caller)
	writeJSON(w, http.StatusOK, creditProfileResponse{
		User:        p.User,
		Score:       p.Score,
		Successes:   p.Successes,
		Failures:    p.Failures,
		Outstanding: p.Outstanding,
		Repaid:      p.Repaid,
		History:     p.History,
	})
}

func (s *Server) handleEligibility(w http.ResponseWriter, _ *http.Request, caller types.Identity) {
	eligible, score, maxLoan := s.deps.CheckBNPLEligibility(caller)
	writeJSON(w, http.StatusOK, eligibilityResponse{Eligible: eligible, Score: score, MaxLoan: maxLoan})
}

func (s *Server) handleRequestLoan(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	id, err := s.deps.RequestLoan(r.Context(), caller, req.Amount, req.CollateralCurrency, req.CollateralAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]types.LoanID{"id": id})
}

func (s *Server) handleRepayLoan(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req repayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.RepayLoan(r.Context(), caller, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "repaid"})
}

type scoreOverrideRequest struct {
	User  types.Identity `json:"user"`
	Score int            `json:"score"`
}

func (s *Server) handleSetCreditScore(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req scoreOverrideRequest
	if err := decodeJSON(r, &req); err != nil || req.User == "" {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.SetCreditScore(r.Context(), caller, req.User, req.Score); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "overridden"})
}

func (s *Server) handleCheckDefault(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	defaulted, err := s.deps.CheckDefault(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"defaulted": defaulted})
}
