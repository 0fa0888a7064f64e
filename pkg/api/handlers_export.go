package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/raumwerk/raumwerk/pkg/export"
	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/schedule"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportExcel streams all schedules as one workbook.
func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	schedules, err := s.buildAllSchedules(snap)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, snap, schedules); err != nil {
		s.logger.Error("workbook export failed",
			logging.ProjectID(snap.Project.ID), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-schedules.xlsx"`, snap.Project.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleExportGAEB streams the bill of quantities as GAEB DA XML 3.2.
func (s *Server) handleExportGAEB(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	schedules, err := s.buildAllSchedules(snap)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteGAEB(&buf, export.BuildBill(snap, schedules)); err != nil {
		s.logger.Error("gaeb export failed",
			logging.ProjectID(snap.Project.ID), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s.x83"`, snap.Project.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) buildAllSchedules(snap *model.Snapshot) (map[schedule.Kind]*schedule.Schedule, error) {
	builder := s.components().builder
	schedules := make(map[schedule.Kind]*schedule.Schedule, len(schedule.Kinds))
	for _, kind := range schedule.Kinds {
		sched, err := builder.Build(snap, kind, schedule.DefaultOptions())
		if err != nil {
			return nil, err
		}
		schedules[kind] = sched
	}
	return schedules, nil
}
