package http

import (
	"fmt"
	"net/http"

	"clinic/internal/export"
	"clinic/internal/stats"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.BuildDashboard(s.svc.Store().Snapshot(), s.svc.Today()))
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	today := s.svc.Today()
	data, err := export.XLSX(s.svc.Store().Snapshot(), today)
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("export workbook: %w", err))
		return
	}
	writeAttachment(w, export.ContentTypeXLSX, export.Filename(today, "xlsx"), data)
}

func (s *Server) handleExportPaymentsCSV(w http.ResponseWriter, r *http.Request) {
	data, err := export.PaymentsCSV(s.svc.Store().Snapshot())
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("export payments: %w", err))
		return
	}
	writeAttachment(w, export.ContentTypeCSV, export.Filename(s.svc.Today(), "csv"), data)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
