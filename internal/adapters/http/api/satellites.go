package api

import (
	"net/http"
	"time"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// satelliteRequest mirrors the POST /v1/satellites body.
type satelliteRequest struct {
	ElementsLine1 string `json:"elements_line1"`
	ElementsLine2 string `json:"elements_line2"`
	MetadataRef   string `json:"metadata_ref,omitempty"`
	Stake         int64  `json:"stake"`
}

type satelliteUpdateRequest struct {
	ElementsLine1 string `json:"elements_line1"`
	ElementsLine2 string `json:"elements_line2"`
	MetadataRef   string `json:"metadata_ref,omitempty"`
}

type satelliteResponse struct {
	ID                types.SatelliteID `json:"id"`
	Owner             types.Identity    `json:"owner"`
	ElementsLine1     string            `json:"elements_line1"`
	ElementsLine2     string            `json:"elements_line2"`
	ElementsUpdatedAt time.Time         `json:"elements_updated_at"`
	MetadataRef       string            `json:"metadata_ref,omitempty"`
	Stake             int64             `json:"stake"`
	Active            bool              `json:"active"`
}

func satelliteView(s model.Satellite) satelliteResponse {
	return satelliteResponse{
		ID:                s.ID,
		Owner:             s.Owner,
		ElementsLine1:     s.ElementsLine1,
		ElementsLine2:     s.ElementsLine2,
		ElementsUpdatedAt: s.ElementsUpdatedAt,
		MetadataRef:       s.MetadataRef,
		Stake:             s.Stake,
		Active:            s.Active,
	}
}

func (s *Server) handleRegisterSatellite(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req satelliteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	id, err := s.deps.RegisterSatellite(r.Context(), caller, req.ElementsLine1, req.ElementsLine2, req.MetadataRef, req.Stake)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]types.SatelliteID{"id": id})
}

func (s *Server) handleListSatellites(w http.ResponseWriter, _ *http.Request) {
	sats := s.deps.Satellites()
	out := make([]satelliteResponse, 0, len(sats))
	for _, sat := range sats {
		out = append(out, satelliteView(sat))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSatellite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sat, err := s.deps.Satellite(types.SatelliteID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, satelliteView(sat))
}

func (s *Server) handleUpdateSatellite(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req satelliteUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.UpdateSatellite(r.Context(), caller, types.SatelliteID(id), req.ElementsLine1, req.ElementsLine2, req.MetadataRef); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeactivateSatellite(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.DeactivateSatellite(r.Context(), caller, types.SatelliteID(id)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) handleWithdrawSatelliteStake(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := s.deps.WithdrawSatelliteStake(r.Context(), caller, types.SatelliteID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{Amount: amount})
}
