package api

import (
	"net/http"

	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
)

// stationRequest mirrors the POST /v1/stations body.
type stationRequest struct {
	LatE4       int32  `json:"lat_e4"`
	LonE4       int32  `json:"lon_e4"`
	Specs       string `json:"specs"`
	UptimePct   int    `json:"uptime_pct"`
	MetadataRef string `json:"metadata_ref,omitempty"`
	Stake       int64  `json:"stake"`
}

type stationUpdateRequest struct {
	Specs       string `json:"specs"`
	UptimePct   int    `json:"uptime_pct"`
	MetadataRef string `json:"metadata_ref,omitempty"`
}

type stationResponse struct {
	ID          types.StationID `json:"id"`
	Owner       types.Identity  `json:"owner"`
	LatE4       int32           `json:"lat_e4"`
	LonE4       int32           `json:"lon_e4"`
	Specs       string          `json:"specs"`
	UptimePct   int             `json:"uptime_pct"`
	MetadataRef string          `json:"metadata_ref,omitempty"`
	Stake       int64           `json:"stake"`
	RelayCount  uint64          `json:"relay_count"`
	Rewards     int64           `json:"rewards"`
	Active      bool            `json:"active"`
}

func stationView(s model.Station) stationResponse {
	return stationResponse{
		ID:          s.ID,
		Owner:       s.Owner,
		LatE4:       s.LatE4,
		LonE4:       s.LonE4,
		Specs:       s.Specs,
		UptimePct:   s.UptimePct,
		MetadataRef: s.MetadataRef,
		Stake:       s.Stake,
		RelayCount:  s.RelayCount,
		Rewards:     s.Rewards,
		Active:      s.Active,
	}
}

type withdrawResponse struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleRegisterStation(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	var req stationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	id, err := s.deps.RegisterStation(r.Context(), caller, req.LatE4, req.LonE4, req.Specs, req.UptimePct, req.MetadataRef, req.Stake)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]types.StationID{"id": id})
}

func (s *Server) handleListStations(w http.ResponseWriter, _ *http.Request) {
	stations := s.deps.Stations()
	out := make([]stationResponse, 0, len(stations))
	for _, st := range stations {
		out = append(out, stationView(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetStation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	station, err := s.deps.Station(types.StationID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stationView(station))
}

func (s *Server) handleUpdateStation(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req stationUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	if err := s.deps.UpdateStation(r.Context(), caller, types.StationID(id), req.Specs, req.UptimePct, req.MetadataRef); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeactivateStation(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.DeactivateStation(r.Context(), caller, types.StationID(id)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) handleWithdrawStationStake(w http.ResponseWriter, r *http.Request, caller types.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := s.deps.WithdrawStationStake(r.Context(), caller, types.StationID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{Amount: amount})
}
