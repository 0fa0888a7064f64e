package api

import (
	"net/http"
	"time"

	"github.com/raumwerk/raumwerk/pkg/analysis"
	"github.com/raumwerk/raumwerk/pkg/importer"
	"github.com/raumwerk/raumwerk/pkg/logging"
)

type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Projects      int     `json:"projects"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: time.Since(s.started).Seconds(),
		Projects:      len(infos),
	})
}

type importResponse struct {
	Import *importer.Result `json:"import"`
	Report *analysis.Report `json:"report"`
}

// handleImport ingests one exchange document, persists the snapshot
// and responds with the import summary and a full analysis report.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	snap, result, err := s.importer.Import(r.Body)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	report, err := s.components().engine.Run(r.Context(), snap, analysis.DefaultOptions())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	// Saved after the run so derived volumes survive the restart.
	if err := s.store.SaveSnapshot(r.Context(), snap); err != nil {
		s.respondStoreError(w, err)
		return
	}
	if err := s.store.SaveReport(r.Context(), report); err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.logger.Info("project imported",
		logging.ProjectID(snap.Project.ID),
		logging.Int("spaces", result.Spaces),
		logging.Int("findings", report.Checks.Summary.Total),
	)
	s.respondJSON(w, http.StatusCreated, importResponse{
		Import: result,
		Report: report,
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"projects": infos,
		"count":    len(infos),
	})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.logger.Info("project deleted", logging.ProjectID(id))
	w.WriteHeader(http.StatusNoContent)
}
