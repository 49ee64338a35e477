package api

import (
	"net/http"
	"time"

	service "github.com/dev-tnsq/spacelink-sub000/internal/app"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// bookPassRequest mirrors the POST /v1/passes body.
type bookPassRequest struct {
	StationID   types.StationID   `json:"station_id"`
	SatelliteID types.SatelliteID `json:"satellite_id"`
	Start       time.Time         `json:"start"`
	DurationSec int64             `json:"duration_sec"`
	Currency    types.Currency    `json:"currency"`
	Amount      int64             `json:"amount"`
}

type transferPassRequest struct {
	To types.Identity `json:"to"`
}

type completePassRequest struct {
	ProofRef     string             `json:"proof_ref"`
	Metrics      model.RelayMetrics `json:"metrics"`
	SnapshotHash string             `json:"snapshot_hash"`
}

type resolveVerificationRequest struct {
	Verified bool `json:"verified"`
}

type passResponse struct {
	ID           types.PassID      `json:"id"`
	Requester    types.Identity    `json:"requester"`
	Owner        types.Identity    `json:"owner"`
	StationID    types.StationID   `json:"station_id"`
	SatelliteID  types.SatelliteID `json:"satellite_id"`
	Start        time.Time         `json:"start"`
	DurationSec  int64             `json:"duration_sec"`
	Payment      model.Payment     `json:"payment"`
	SnapshotHash string            `json:"snapshot_hash"`
	ProofRef     string            `json:"proof_ref,omitempty"`
	State        string            `json:"state"`
	Verified     bool              `json:"verified"`
	Claimed      bool              `json:"claimed"`
	TokenID      string            `json:"token_id"`
}

func passView(p model.Pass) passResponse {
	return passResponse{
		ID:           p.ID,
		Requester:    p.Requester,
		Owner:        p.Owner,
		StationID:    p.StationID,
		SatelliteID:  p.SatelliteID,
		Start:        p.Start,
		DurationSec:  int64(p.Duration / time.Second),
		Payment:      p.Payment,
		SnapshotHash: p.SnapshotHash,
		ProofRef:     p.ProofRef,
		State:        p.State,
		Verified:     p.Verified,
		Claimed:      p.Claimed,
		TokenID:      p.TokenID,
	}
}

func (s *Server) handleBookPass(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req bookPassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	id, err := s.deps.BookPass(r.Context(), caller, req.StationID, req.SatelliteID, req.Start,
		time.Duration(req.DurationSec)*time.Second, req.Currency, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]types.PassID{"id": id})
}

func (s *Server) handleListPasses(w http.ResponseWriter, _ *http.Request) {
	passes := s.deps.Passes()
	out := make([]passResponse, 0, len(passes))
	for _, p := range passes {
		out = append(out, passView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPass(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pass, err := s.deps.Pass(types.PassID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, passView(pass))
}

func (s *Server) handleConfirmPass(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.ConfirmPass(r.Context(), caller, types.PassID(id)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (s *Server) handleTransferPass(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req transferPassRequest
	if err := decodeJSON(r, &req); err != nil || req.To == "" {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.TransferPass(r.Context(), caller, types.PassID(id), req.To); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (s *Server) handleCompletePass(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req completePassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.CompletePass(r.Context(), caller, types.PassID(id), req.ProofRef, req.Metrics, req.SnapshotHash); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) handleCancelPass(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.CancelPass(r.Context(), caller, types.PassID(id)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleResolveVerification is the verification oracle's callback; only the
// admin identity may deliver it.
func (s *Server) handleResolveVerification(w http.ResponseWriter, r *http.Request, _ types.Identity) {
	_, claims, err := s.auth.Identify(r)
	if err != nil || !claims.Admin {
		writeError(w, service.ErrNotAuthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req resolveVerificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.ResolveVerification(r.Context(), types.PassID(id), req.Verified); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
