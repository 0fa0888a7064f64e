package api

import (
	"errors"
	"net/http"

	"github.com/raumwerk/raumwerk/pkg/analysis"
	"github.com/raumwerk/raumwerk/pkg/check"
	"github.com/raumwerk/raumwerk/pkg/quantity"
	"github.com/raumwerk/raumwerk/pkg/schedule"
	"github.com/raumwerk/raumwerk/pkg/store"
)

// handleReport returns the latest stored analysis report. With
// ?refresh=true, or when no report is stored yet, it recomputes from
// the stored snapshot and persists the result.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.URL.Query().Get("refresh") != "true" {
		report, err := s.store.LoadReport(r.Context(), id)
		if err == nil {
			s.respondJSON(w, http.StatusOK, report)
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			s.respondStoreError(w, err)
			return
		}
	}

	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	report, err := s.components().engine.Run(r.Context(), snap, analysis.Options{})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if err := s.store.SaveReport(r.Context(), report); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// handleAreas computes the area breakdown under ?standard=din277 or
// ?standard=woflv, defaulting to DIN 277.
func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	standard := r.URL.Query().Get("standard")
	if standard == "" {
		standard = quantity.StandardDIN277
	}
	result, err := s.components().calc.ComputeAreas(snap, standard)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleVolumes(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, s.components().calc.ComputeVolumes(snap))
}

func (s *Server) handleExZones(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	c := s.components()
	volumes := netVolumes(c.calc.ComputeVolumes(snap))
	s.respondJSON(w, http.StatusOK, c.classifier.ClassifyExZones(snap, volumes))
}

func (s *Server) handleFireCompartments(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, s.components().classifier.ClassifyFireCompartments(snap))
}

// handleCheck runs the consistency and accessibility checks over the
// stored snapshot.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	c := s.components()
	volumes := c.calc.ComputeVolumes(snap)
	zones := c.classifier.ClassifyExZones(snap, netVolumes(volumes))
	consistency := c.checker.Run(snap, check.Inputs{Volumes: volumes, Zones: zones})
	accessibility := c.checker.CheckAccessibility(snap, c.cfg.Rules.Accessibility)
	s.respondJSON(w, http.StatusOK, check.Merge(snap.Project.ID, consistency, accessibility))
}

// handleSchedule builds one schedule. Filters come from query
// parameters: storey, load_bearing=true, external=true. With
// ?format=markdown the schedule is rendered as a markdown table.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := schedule.Options{
		StoreyID:        q.Get("storey"),
		LoadBearingOnly: q.Get("load_bearing") == "true",
		ExternalOnly:    q.Get("external") == "true",
	}
	sched, err := s.components().builder.Build(snap, schedule.Kind(r.PathValue("kind")), opts)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sched.Markdown()))
		return
	}
	s.respondJSON(w, http.StatusOK, sched)
}

// netVolumes reduces volume results to the values the ventilation
// check consumes, dropping incomplete entries.
func netVolumes(volumes map[string]quantity.VolumeResult) map[string]float64 {
	out := make(map[string]float64, len(volumes))
	for id, v := range volumes {
		if v.Incomplete {
			continue
		}
		out[id] = v.VolumeM3
	}
	return out
}
