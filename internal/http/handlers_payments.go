package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/core"
	"clinic/internal/filter"
	"clinic/internal/stats"
)

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.svc.Store().Snapshot()
	payments := filter.Payments(snap.Payments, snap.Clients, filter.PaymentQuery{
		Search:   p.Search,
		Method:   p.Method,
		Timeline: p.Timeline,
		Today:    s.svc.Today(),
	})
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := s.svc.Store().Payment(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "payment not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// outstandingEntry is a client who still owes money.
type outstandingEntry struct {
	Client      core.Client `json:"client"`
	Outstanding core.Money  `json:"outstanding"`
}

func (s *Server) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	clients := stats.OutstandingClients(s.svc.Store().Clients())
	out := make([]outstandingEntry, 0, len(clients))
	for _, c := range clients {
		out = append(out, outstandingEntry{Client: c, Outstanding: stats.ClientOutstanding(c)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.MonthlyRevenue(s.svc.Store().Payments()))
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var p core.Payment
	if err := decodeJSON(r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if p.Date.IsZero() {
		p.Date = s.svc.Today()
	}
	p.Notes = sanitizeInput(p.Notes)
	if err := s.validatePayment(p); err != nil {
		writeValidationError(w, err)
		return
	}
	created, err := s.svc.RecordPayment(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var p core.Payment
	if err := decodeJSON(r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p.ID = chi.URLParam(r, "id")
	p.Notes = sanitizeInput(p.Notes)
	if err := s.validatePayment(p); err != nil {
		writeValidationError(w, err)
		return
	}
	updated, err := s.svc.UpdatePayment(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quickPaymentRequest struct {
	Method core.PaymentMethod `json:"method"`
	Date   core.Date          `json:"date"`
}

func (s *Server) handleQuickPayment(w http.ResponseWriter, r *http.Request) {
	var req quickPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !req.Method.IsValid() {
		writeValidationError(w, core.ErrInvalidPaymentMethod)
		return
	}
	p, err := s.svc.QuickPayment(r.Context(), chi.URLParam(r, "id"), req.Method, req.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) validatePayment(p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := s.svc.Store().Client(p.ClientID); !ok {
		return fmt.Errorf("%w: unknown client %s", core.ErrMissingClient, p.ClientID)
	}
	return nil
}
