// Package state owns the clinic's four entity collections. Every mutation
// replaces whole collections and writes them through to the kv store before
// returning.
package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"clinic/internal/core"
	"clinic/internal/kv"
	"clinic/internal/log"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate id")
)

// Snapshot is a point-in-time copy of all collections.
type Snapshot struct {
	Clients  []core.Client
	Staff    []core.Staff
	Sessions []core.Session
	Payments []core.Payment
}

// Store is the single serializing writer over the collections.
type Store struct {
	kv kv.Store

	mu   sync.RWMutex
	data Snapshot
}

// Open loads every collection from store, falling back to the matching
// collection of defaults.
func Open(ctx context.Context, store kv.Store, defaults Snapshot) *Store {
	s := &Store{kv: store}
	s.data = load(ctx, store, normalize(defaults))
	slog.InfoContext(ctx, "Collections loaded",
		log.FieldComponent, log.ComponentState,
		"clients", len(s.data.Clients),
		"staff", len(s.data.Staff),
		"sessions", len(s.data.Sessions),
		"payments", len(s.data.Payments))
	return s
}

func load(ctx context.Context, store kv.Store, def Snapshot) Snapshot {
	return normalize(Snapshot{
		Clients:  kv.Load(ctx, store, kv.KeyClients, def.Clients),
		Staff:    kv.Load(ctx, store, kv.KeyStaff, def.Staff),
		Sessions: kv.Load(ctx, store, kv.KeySessions, def.Sessions),
		Payments: kv.Load(ctx, store, kv.KeyPayments, def.Payments),
	})
}

// Reload re-reads every collection from the kv store. Used by processes that
// share a backend with the writer, so it never writes; a collection that
// cannot be read keeps its in-memory value.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.data
	if v, ok := kv.Read[[]core.Client](ctx, s.kv, kv.KeyClients); ok {
		next.Clients = v
	}
	if v, ok := kv.Read[[]core.Staff](ctx, s.kv, kv.KeyStaff); ok {
		next.Staff = v
	}
	if v, ok := kv.Read[[]core.Session](ctx, s.kv, kv.KeySessions); ok {
		next.Sessions = v
	}
	if v, ok := kv.Read[[]core.Payment](ctx, s.kv, kv.KeyPayments); ok {
		next.Payments = v
	}
	s.data = normalize(next)
}

func normalize(snap Snapshot) Snapshot {
	if snap.Clients == nil {
		snap.Clients = []core.Client{}
	}
	if snap.Staff == nil {
		snap.Staff = []core.Staff{}
	}
	if snap.Sessions == nil {
		snap.Sessions = []core.Session{}
	}
	if snap.Payments == nil {
		snap.Payments = []core.Payment{}
	}
	for i := range snap.Payments {
		if snap.Payments[i].SessionIDs == nil {
			snap.Payments[i].SessionIDs = []string{}
		}
	}
	return snap
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Clients:  cloneSlice(s.data.Clients),
		Staff:    cloneSlice(s.data.Staff),
		Sessions: cloneSlice(s.data.Sessions),
		Payments: clonePayments(s.data.Payments),
	}
}

func (s *Store) Clients() []core.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.data.Clients)
}

func (s *Store) Staff() []core.Staff {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.data.Staff)
}

func (s *Store) Sessions() []core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.data.Sessions)
}

func (s *Store) Payments() []core.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePayments(s.data.Payments)
}

// Client looks up a client; dangling references simply report false.
func (s *Store) Client(id string) (core.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.data.Clients, id, clientID)
}

func (s *Store) StaffMember(id string) (core.Staff, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.data.Staff, id, staffID)
}

func (s *Store) Session(id string) (core.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.data.Sessions, id, sessionID)
}

func (s *Store) Payment(id string) (core.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := find(s.data.Payments, id, paymentID)
	if !ok {
		return p, false
	}
	return clonePayment(p), true
}

// Commit runs fn against a draft of the collections. If fn returns nil every
// collection it changed is swapped in and persisted together; otherwise
// nothing changes. Readers never observe a partially applied commit.
func (s *Store) Commit(ctx context.Context, fn func(*Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{draft: s.data, dirty: make(map[string]bool, 4)}
	if err := fn(tx); err != nil {
		return err
	}

	next := normalize(tx.draft)
	for _, key := range kv.Keys() {
		if !tx.dirty[key] {
			continue
		}
		switch key {
		case kv.KeyClients:
			s.data.Clients = next.Clients
			kv.Save(ctx, s.kv, key, s.data.Clients)
		case kv.KeyStaff:
			s.data.Staff = next.Staff
			kv.Save(ctx, s.kv, key, s.data.Staff)
		case kv.KeySessions:
			s.data.Sessions = next.Sessions
			kv.Save(ctx, s.kv, key, s.data.Sessions)
		case kv.KeyPayments:
			s.data.Payments = next.Payments
			kv.Save(ctx, s.kv, key, s.data.Payments)
		}
	}
	return nil
}
