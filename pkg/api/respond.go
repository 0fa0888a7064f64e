package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}

// respondStoreError maps store and graph errors to HTTP statuses. The
// client message carries the sentinel text, never internal detail.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrIncompleteData), model.IsInvalidGraph(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// loadSnapshot fetches the project snapshot or writes the error
// response. The bool reports whether the handler may continue.
func (s *Server) loadSnapshot(w http.ResponseWriter, r *http.Request) (*model.Snapshot, bool) {
	id := r.PathValue("id")
	snap, err := s.store.LoadSnapshot(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return nil, false
	}
	return snap, true
}
