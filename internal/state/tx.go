package state

import (
	"clinic/internal/core"
	"clinic/internal/kv"
)

// Tx is the draft state inside Commit. Its methods never modify the slices
// they read; each change installs a new collection.
type Tx struct {
	draft Snapshot
	dirty map[string]bool
}

// Removed lists the dependent records dropped by a cascading delete.
type Removed struct {
	Sessions []string
	Payments []string
}

// Changed reports whether the collection stored under key was replaced.
func (tx *Tx) Changed(key string) bool { return tx.dirty[key] }

func (tx *Tx) Clients() []core.Client   { return cloneSlice(tx.draft.Clients) }
func (tx *Tx) Staff() []core.Staff      { return cloneSlice(tx.draft.Staff) }
func (tx *Tx) Sessions() []core.Session { return cloneSlice(tx.draft.Sessions) }
func (tx *Tx) Payments() []core.Payment { return clonePayments(tx.draft.Payments) }

func (tx *Tx) SetClients(v []core.Client) {
	tx.draft.Clients = v
	tx.dirty[kv.KeyClients] = true
}

func (tx *Tx) SetStaff(v []core.Staff) {
	tx.draft.Staff = v
	tx.dirty[kv.KeyStaff] = true
}

func (tx *Tx) SetSessions(v []core.Session) {
	tx.draft.Sessions = v
	tx.dirty[kv.KeySessions] = true
}

func (tx *Tx) SetPayments(v []core.Payment) {
	tx.draft.Payments = v
	tx.dirty[kv.KeyPayments] = true
}

func (tx *Tx) Client(id string) (core.Client, bool) { return find(tx.draft.Clients, id, clientID) }

func (tx *Tx) Payment(id string) (core.Payment, bool) {
	p, ok := find(tx.draft.Payments, id, paymentID)
	if ok {
		p = clonePayment(p)
	}
	return p, ok
}

func (tx *Tx) AddClient(c core.Client) error {
	next, err := appendItem(tx.draft.Clients, c, clientID)
	if err != nil {
		return err
	}
	tx.SetClients(next)
	return nil
}

func (tx *Tx) UpdateClient(c core.Client) (core.Client, error) {
	next, old, err := replaceItem(tx.draft.Clients, c, clientID)
	if err != nil {
		return old, err
	}
	tx.SetClients(next)
	return old, nil
}

// RemoveClient deletes the client together with its sessions and payments.
func (tx *Tx) RemoveClient(id string) (Removed, error) {
	var removed Removed
	next, _, err := removeItem(tx.draft.Clients, id, clientID)
	if err != nil {
		return removed, err
	}
	tx.SetClients(next)

	for _, s := range tx.draft.Sessions {
		if s.ClientID == id {
			removed.Sessions = append(removed.Sessions, s.ID)
		}
	}
	for _, p := range tx.draft.Payments {
		if p.ClientID == id {
			removed.Payments = append(removed.Payments, p.ID)
		}
	}
	if len(removed.Sessions) > 0 {
		tx.SetSessions(filterOut(tx.draft.Sessions, func(s core.Session) bool { return s.ClientID == id }))
	}
	if len(removed.Payments) > 0 {
		tx.SetPayments(filterOut(tx.draft.Payments, func(p core.Payment) bool { return p.ClientID == id }))
	}
	return removed, nil
}

func (tx *Tx) AddStaff(s core.Staff) error {
	next, err := appendItem(tx.draft.Staff, s, staffID)
	if err != nil {
		return err
	}
	tx.SetStaff(next)
	return nil
}

func (tx *Tx) UpdateStaff(s core.Staff) (core.Staff, error) {
	next, old, err := replaceItem(tx.draft.Staff, s, staffID)
	if err != nil {
		return old, err
	}
	tx.SetStaff(next)
	return old, nil
}

// RemoveStaff deletes the staff member and the sessions assigned to them.
func (tx *Tx) RemoveStaff(id string) (Removed, error) {
	var removed Removed
	next, _, err := removeItem(tx.draft.Staff, id, staffID)
	if err != nil {
		return removed, err
	}
	tx.SetStaff(next)

	for _, s := range tx.draft.Sessions {
		if s.StaffID == id {
			removed.Sessions = append(removed.Sessions, s.ID)
		}
	}
	if len(removed.Sessions) > 0 {
		tx.SetSessions(filterOut(tx.draft.Sessions, func(s core.Session) bool { return s.StaffID == id }))
	}
	return removed, nil
}

func (tx *Tx) AddSession(s core.Session) error {
	next, err := appendItem(tx.draft.Sessions, s, sessionID)
	if err != nil {
		return err
	}
	tx.SetSessions(next)
	return nil
}

func (tx *Tx) UpdateSession(s core.Session) (core.Session, error) {
	next, old, err := replaceItem(tx.draft.Sessions, s, sessionID)
	if err != nil {
		return old, err
	}
	tx.SetSessions(next)
	return old, nil
}

func (tx *Tx) RemoveSession(id string) (core.Session, error) {
	next, old, err := removeItem(tx.draft.Sessions, id, sessionID)
	if err != nil {
		return old, err
	}
	tx.SetSessions(next)
	return old, nil
}

// AddPayment puts p at the head of the collection, newest first.
func (tx *Tx) AddPayment(p core.Payment) error {
	next, err := prependItem(tx.draft.Payments, clonePayment(p), paymentID)
	if err != nil {
		return err
	}
	tx.SetPayments(next)
	return nil
}

func (tx *Tx) UpdatePayment(p core.Payment) (core.Payment, error) {
	next, old, err := replaceItem(tx.draft.Payments, clonePayment(p), paymentID)
	if err != nil {
		return old, err
	}
	tx.SetPayments(next)
	return old, nil
}

func (tx *Tx) RemovePayment(id string) (core.Payment, error) {
	next, old, err := removeItem(tx.draft.Payments, id, paymentID)
	if err != nil {
		return old, err
	}
	tx.SetPayments(next)
	return old, nil
}
