package api

import (
	"net/http"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

type fundRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reward, err := s.deps.ClaimReward(r.Context(), caller, types.PassID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"reward": reward})
}

func (s *Server) handleFundRewardPool(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req fundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.FundRewardPool(r.Context(), caller, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "funded"})
}

func (s *Server) handleRewardPool(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"balance": s.deps.RewardPoolBalance()})
}
