package api

import (
	"net/http"
	"strconv"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

type quoteRequest struct {
	Asset      types.Currency `json:"asset"`
	Price      int64          `json:"price"`
	Confidence int            `json:"confidence"`
	Source     string         `json:"source"`
}

type routePaymentRequest struct {
	Currency types.Currency `json:"currency"`
	Payer    types.Identity `json:"payer"`
	Payee    types.Identity `json:"payee"`
	Amount   int64          `json:"amount"`
}

type routeConversionRequest struct {
	From   types.Currency `json:"from"`
	To     types.Currency `json:"to"`
	Payer  types.Identity `json:"payer"`
	Payee  types.Identity `json:"payee"`
	Amount int64          `json:"amount"`
}

type approveRequest struct {
	Currency types.Currency `json:"currency"`
	Spender  types.Identity `json:"spender"`
	Amount   int64          `json:"amount"`
}

type mintRequest struct {
	Currency types.Currency `json:"currency"`
	To       types.Identity `json:"to"`
	Amount   int64          `json:"amount"`
}

func (s *Server) handleUpdateQuote(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.UpdateQuote(r.Context(), caller, req.Asset, req.Price, req.Confidence, req.Source); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	asset := types.Currency(r.PathValue("asset"))
	quote, err := s.deps.GetQuote(asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// handleConvert answers GET /v1/convert?from=USDC&to=XLM&amount=10000000.
// The result is 0 when no usable quote path exists.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseInt(q.Get("amount"), 10, 64)
	if err != nil || q.Get("from") == "" || q.Get("to") == "" {
		writeError(w, ErrBadRequest)
		return
	}
	out := s.deps.ConvertQuote(types.Currency(q.Get("from")), types.Currency(q.Get("to")), amount)
	writeJSON(w, http.StatusOK, map[string]int64{"amount": out})
}

func (s *Server) handleRoutePayment(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req routePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	// Callers can only spend from their own balance over HTTP.
	if req.Payer == "" {
		req.Payer = caller
	}
	if req.Payer != caller {
		writeError(w, ErrUnauthorized)
		return
	}
	if err := s.deps.RoutePayment(r.Context(), req.Currency, req.Payer, req.Payee, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "routed"})
}

func (s *Server) handleRouteWithConversion(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req routeConversionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if req.Payer == "" {
		req.Payer = caller
	}
	if req.Payer != caller {
		writeError(w, ErrUnauthorized)
		return
	}
	out, err := s.deps.RouteWithConversion(r.Context(), req.From, req.To, req.Payer, req.Payee, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": out})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.Approve(r.Context(), req.Currency, caller, req.Spender, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req mintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.Mint(r.Context(), caller, req.Currency, req.To, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "minted"})
}

// handleBalance returns the caller's balance in the requested currency. An
// admin may inspect any identity via the id query parameter.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	currency := types.Currency(r.PathValue("currency"))
	id := caller
	if q := r.URL.Query().Get("id"); q != "" && types.Identity(q) != caller {
		_, claims, err := s.auth.Identify(r)
		if err != nil || !claims.Admin {
			writeError(w, ErrUnauthorized)
			return
		}
		id = types.Identity(q)
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": s.deps.Balance(currency, id)})
}
