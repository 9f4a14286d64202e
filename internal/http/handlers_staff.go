package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clinic/internal/core"
	"clinic/internal/filter"
	"clinic/internal/stats"
)

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request) {
	q := sanitizeInput(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, filter.Staff(s.svc.Store().Staff(), q))
}

func (s *Server) handleStaffSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Store().Snapshot()
	writeJSON(w, http.StatusOK, stats.StaffRollup(snap.Staff, snap.Sessions))
}

func (s *Server) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	m, ok := s.svc.Store().StaffMember(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "staff member not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var m core.Staff
	if err := decodeJSON(r, &m); err != nil {
		writeServiceError(w, r, err)
		return
	}
	cleanStaff(&m)
	if err := m.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	created, err := s.svc.CreateStaff(r.Context(), m)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	var m core.Staff
	if err := decodeJSON(r, &m); err != nil {
		writeServiceError(w, r, err)
		return
	}
	m.ID = chi.URLParam(r, "id")
	cleanStaff(&m)
	if err := m.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	updated, err := s.svc.UpdateStaff(r.Context(), m)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.svc.DeleteStaff(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeleteResponse(id, removed))
}

func cleanStaff(m *core.Staff) {
	m.Name = sanitizeInput(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Phone = sanitizeInput(m.Phone)
}
