package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Brad-K99/EventCounterForRC/internal/history"
)

// handleListScans returns recorded scans, most recent first.
//
// Query parameters:
//   - device_id: filter by device
//   - status: filter by status (ok, failed, aborted)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "history disabled")
		return
	}

	q := r.URL.Query()
	filter := history.Filter{
		DeviceID: q.Get("device_id"),
		Status:   q.Get("status"),
	}

	var err error
	if filter.Limit, err = parseIntParam(q.Get("limit")); err != nil {
		writeBadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = parseIntParam(q.Get("offset")); err != nil {
		writeBadRequest(w, "invalid offset")
		return
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list scans", "error", err)
		writeInternalError(w, "failed to list scans")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetScan returns a single recorded scan by run ID.
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "history disabled")
		return
	}

	run, err := s.history.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, history.ErrRunNotFound) {
			writeNotFound(w, "scan not found")
			return
		}
		s.logger.Error("failed to get scan", "error", err)
		writeInternalError(w, "failed to get scan")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// parseIntParam parses an optional non-negative integer query parameter.
// Empty means 0, which lets the repository apply its defaults.
func parseIntParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer parameter")
	}
	return n, nil
}
