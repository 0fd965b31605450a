package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-roi/internal/roi"
)

// handleGetRules returns the device's rule config with canonical points.
func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}

	cfg, err := s.rules.Get(r.Context(), dev)
	if err != nil {
		s.writeServiceError(w, err, "failed to load rules")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleSaveRules replaces the device's rule config.
//
// Points may arrive as [x, y] or {x, y}. The response carries the config
// as stored; "warning" is set when the device could not be told about it.
func (s *Server) handleSaveRules(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}

	var cfg roi.RegionAIConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	result, err := s.rules.Save(r.Context(), roi.SaveRequest{
		Tenant: id.Tenant,
		Actor:  id.Subject,
		Device: dev,
		Config: cfg,
	})
	if err != nil {
		s.writeServiceError(w, err, "failed to save rules")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleNextSlot returns the next free schedule window for one rule.
//
// Query parameters:
//   - exclude: index of the schedule being edited (default -1, none)
func (s *Server) handleNextSlot(w http.ResponseWriter, r *http.Request) {
	exclude := -1
	if v := r.URL.Query().Get("exclude"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "exclude must be an integer")
			return
		}
		exclude = n
	}

	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}

	window, err := s.rules.NextSlot(r.Context(), dev, chi.URLParam(r, "roiID"), exclude)
	if err != nil {
		s.writeServiceError(w, err, "failed to find a free slot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"start_time": window.Start.String(),
		"end_time":   window.End.String(),
	})
}
