package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/core"
	"clinic/internal/filter"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.svc.Store().Snapshot()
	sessions := filter.Sessions(snap.Sessions, snap.Clients, snap.Staff, filter.SessionQuery{
		Search:   p.Search,
		Timeline: p.Timeline,
		Staff:    p.Staff,
		Date:     p.Date,
		Status:   p.Status,
		Today:    s.svc.Today(),
	})
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.svc.Store().Session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var sess core.Session
	if err := decodeJSON(r, &sess); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if sess.Status == "" {
		sess.Status = core.StatusScheduled
	}
	sess.Notes = sanitizeInput(sess.Notes)
	if err := s.validateSession(sess); err != nil {
		writeValidationError(w, err)
		return
	}
	created, err := s.svc.CreateSession(r.Context(), sess)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var sess core.Session
	if err := decodeJSON(r, &sess); err != nil {
		writeServiceError(w, r, err)
		return
	}
	sess.ID = chi.URLParam(r, "id")
	sess.Notes = sanitizeInput(sess.Notes)
	if err := s.validateSession(sess); err != nil {
		writeValidationError(w, err)
		return
	}
	updated, err := s.svc.UpdateSession(r.Context(), sess)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type statusRequest struct {
	Status   core.SessionStatus `json:"status"`
	MarkedBy string             `json:"markedBy"`
}

func (s *Server) handleSetSessionStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !req.Status.IsValid() {
		writeValidationError(w, core.ErrInvalidSessionStatus)
		return
	}
	updated, err := s.svc.SetSessionStatus(r.Context(), chi.URLParam(r, "id"), req.Status, sanitizeInput(req.MarkedBy))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.DeleteSession(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateSession applies the entity rules and requires the referenced client
// and staff member to exist.
func (s *Server) validateSession(sess core.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	if _, ok := s.svc.Store().Client(sess.ClientID); !ok {
		return fmt.Errorf("%w: unknown client %s", core.ErrMissingClient, sess.ClientID)
	}
	if _, ok := s.svc.Store().StaffMember(sess.StaffID); !ok {
		return fmt.Errorf("%w: unknown staff member %s", core.ErrMissingStaff, sess.StaffID)
	}
	return nil
}
