package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clinic/internal/core"
	"clinic/internal/filter"
	"clinic/internal/state"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clients := filter.Clients(s.svc.Store().Clients(), filter.ClientQuery{
		Search:   p.Search,
		Timeline: p.Timeline,
		Today:    s.svc.Today(),
	})
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	c, ok := s.svc.Store().Client(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c core.Client
	if err := decodeJSON(r, &c); err != nil {
		writeServiceError(w, r, err)
		return
	}
	cleanClient(&c)
	if err := c.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	created, err := s.svc.CreateClient(r.Context(), c)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var c core.Client
	if err := decodeJSON(r, &c); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c.ID = chi.URLParam(r, "id")
	cleanClient(&c)
	if err := c.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	updated, err := s.svc.UpdateClient(r.Context(), c)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// deleteResponse reports what a delete removed, cascades included.
type deleteResponse struct {
	ID       string   `json:"id"`
	Sessions []string `json:"sessions"`
	Payments []string `json:"payments"`
}

func newDeleteResponse(id string, removed state.Removed) deleteResponse {
	resp := deleteResponse{ID: id, Sessions: removed.Sessions, Payments: removed.Payments}
	if resp.Sessions == nil {
		resp.Sessions = []string{}
	}
	if resp.Payments == nil {
		resp.Payments = []string{}
	}
	return resp
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.svc.DeleteClient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeleteResponse(id, removed))
}

func cleanClient(c *core.Client) {
	c.Name = sanitizeInput(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = sanitizeInput(c.Phone)
}
