// Package filter holds the list filters: timeline buckets, free-text search
// and the calendar staff selection. All filters are pure predicates and
// compose by AND.
package filter

import (
	"strings"

	"clinic/internal/core"
)

// Predicate selects items of type T.
type Predicate[T any] func(T) bool

// All is the conjunction of preds. No predicates match everything.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range preds {
			if p != nil && !p(v) {
				return false
			}
		}
		return true
	}
}

// Apply keeps the items matching p, in their original order.
func Apply[T any](items []T, p Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if p(it) {
			out = append(out, it)
		}
	}
	return out
}

// Search reports whether term is a case-insensitive substring of any field.
// An empty term matches.
func Search(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// StaffSet is the calendar's staff selection. An empty set selects everyone.
type StaffSet map[string]struct{}

func NewStaffSet(ids ...string) StaffSet {
	s := make(StaffSet, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s StaffSet) Contains(id string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[id]
	return ok
}

// ClientQuery filters clients by name/email search and creation month.
type ClientQuery struct {
	Search   string
	Timeline Timeline
	Today    core.Date
}

func Clients(clients []core.Client, q ClientQuery) []core.Client {
	return Apply(clients, All[core.Client](
		func(c core.Client) bool { return Search(q.Search, c.Name, c.Email) },
		func(c core.Client) bool { return q.Timeline.Contains(c.CreatedAt, q.Today) },
	))
}

// Staff filters staff by name/email search.
func Staff(staff []core.Staff, search string) []core.Staff {
	return Apply(staff, func(m core.Staff) bool { return Search(search, m.Name, m.Email) })
}

// SessionQuery filters sessions. Search matches notes and the names of the
// client and staff member; Date, when set, selects a single day.
type SessionQuery struct {
	Search   string
	Timeline Timeline
	Staff    StaffSet
	Date     core.Date
	Status   core.SessionStatus
	Today    core.Date
}

func Sessions(sessions []core.Session, clients []core.Client, staff []core.Staff, q SessionQuery) []core.Session {
	clientNames := make(map[string]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}
	staffNames := make(map[string]string, len(staff))
	for _, m := range staff {
		staffNames[m.ID] = m.Name
	}
	return Apply(sessions, All[core.Session](
		func(s core.Session) bool { return q.Staff.Contains(s.StaffID) },
		func(s core.Session) bool { return q.Timeline.Contains(s.Date, q.Today) },
		func(s core.Session) bool { return q.Date.IsZero() || s.Date.Equal(q.Date.Time) },
		func(s core.Session) bool { return q.Status == "" || s.Status == q.Status },
		func(s core.Session) bool {
			return Search(q.Search, s.Notes, clientNames[s.ClientID], staffNames[s.StaffID])
		},
	))
}

// MethodAll disables the payment method filter.
const MethodAll = "all"

// PaymentQuery filters payments. Search matches notes and the owning
// client's name; Method is "all", empty, or a payment method.
type PaymentQuery struct {
	Search   string
	Method   string
	Timeline Timeline
	Today    core.Date
}

func Payments(payments []core.Payment, clients []core.Client, q PaymentQuery) []core.Payment {
	clientNames := make(map[string]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}
	return Apply(payments, All[core.Payment](
		func(p core.Payment) bool {
			return q.Method == "" || q.Method == MethodAll || string(p.Method) == q.Method
		},
		func(p core.Payment) bool { return q.Timeline.Contains(p.Date, q.Today) },
		func(p core.Payment) bool { return Search(q.Search, p.Notes, clientNames[p.ClientID]) },
	))
}
