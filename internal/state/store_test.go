package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"clinic/internal/core"
	"clinic/internal/kv"
)

func openDemo(t *testing.T) (*Store, *kv.MemoryStore) {
	t.Helper()
	mem := kv.NewMemoryStore()
	return Open(context.Background(), mem, Demo()), mem
}

func stored[T any](t *testing.T, mem *kv.MemoryStore, key string) T {
	t.Helper()
	raw, ok, _ := mem.Get(context.Background(), key)
	if !ok {
		t.Fatalf("slot %s not written", key)
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("slot %s: %v", key, err)
	}
	return v
}

func TestOpenSeedsAndPersistsDefaults(t *testing.T) {
	s, mem := openDemo(t)
	snap := s.Snapshot()
	if len(snap.Clients) != 5 || len(snap.Staff) != 3 || len(snap.Sessions) != 5 || len(snap.Payments) != 2 {
		t.Fatalf("unexpected seed sizes: %d %d %d %d", len(snap.Clients), len(snap.Staff), len(snap.Sessions), len(snap.Payments))
	}
	clients := stored[[]core.Client](t, mem, kv.KeyClients)
	if clients[0].ID != "c1" || clients[0].Balance.Cents != 20000 {
		t.Fatalf("unexpected persisted client: %+v", clients[0])
	}

	// A second open reads what was stored rather than the defaults.
	again := Open(context.Background(), mem, Empty())
	if len(again.Clients()) != 5 {
		t.Fatalf("expected stored clients on reopen, got %d", len(again.Clients()))
	}
}

func TestOpenEmptyWritesEmptyArrays(t *testing.T) {
	mem := kv.NewMemoryStore()
	Open(context.Background(), mem, Snapshot{})
	for _, key := range kv.Keys() {
		raw, _, _ := mem.Get(context.Background(), key)
		if raw != "[]" {
			t.Fatalf("slot %s = %q, want []", key, raw)
		}
	}
}

func TestLookupsTolerateDanglingIDs(t *testing.T) {
	s, _ := openDemo(t)
	if _, ok := s.Client("missing"); ok {
		t.Fatal("expected missing client")
	}
	if _, ok := s.StaffMember("s9"); ok {
		t.Fatal("expected missing staff")
	}
	if c, ok := s.Client("c4"); !ok || c.Name != "Sarah Wilson" {
		t.Fatalf("Client(c4) = %+v, %v", c, ok)
	}
}

func TestReadersGetCopies(t *testing.T) {
	s, _ := openDemo(t)
	clients := s.Clients()
	clients[0].Name = "Changed"
	p, _ := s.Payment("pay1")
	p.SessionIDs[0] = "changed"

	if c, _ := s.Client("c1"); c.Name != "John Smith" {
		t.Fatal("mutating a returned slice leaked into the store")
	}
	if p2, _ := s.Payment("pay1"); p2.SessionIDs[0] != "sess_old1" {
		t.Fatal("mutating returned session ids leaked into the store")
	}
}

func TestClientMutations(t *testing.T) {
	ctx := context.Background()
	s, mem := openDemo(t)

	newClient := core.Client{ID: "c6", Name: "Ana Lima", Email: "ana@example.com", Phone: "+91 11111 22222", CreatedAt: core.NewDate(2024, 10, 1)}
	if err := s.AddClient(ctx, newClient); err != nil {
		t.Fatalf("AddClient() error = %v", err)
	}
	if err := s.AddClient(ctx, newClient); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	clients := stored[[]core.Client](t, mem, kv.KeyClients)
	if len(clients) != 6 || clients[5].ID != "c6" {
		t.Fatalf("expected appended client persisted, got %d", len(clients))
	}

	newClient.Name = "Ana Souza"
	if err := s.UpdateClient(ctx, newClient); err != nil {
		t.Fatalf("UpdateClient() error = %v", err)
	}
	if c, _ := s.Client("c6"); c.Name != "Ana Souza" {
		t.Fatalf("update not applied: %+v", c)
	}
	if err := s.UpdateClient(ctx, core.Client{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteClientCascades(t *testing.T) {
	ctx := context.Background()
	s, mem := openDemo(t)

	removed, err := s.DeleteClient(ctx, "c2")
	if err != nil {
		t.Fatalf("DeleteClient() error = %v", err)
	}
	if len(removed.Sessions) != 1 || removed.Sessions[0] != "sess2" {
		t.Fatalf("unexpected removed sessions: %v", removed.Sessions)
	}
	if len(removed.Payments) != 1 || removed.Payments[0] != "pay2" {
		t.Fatalf("unexpected removed payments: %v", removed.Payments)
	}

	snap := s.Snapshot()
	if len(snap.Clients) != 4 || len(snap.Sessions) != 4 || len(snap.Payments) != 1 {
		t.Fatalf("cascade not applied: %d %d %d", len(snap.Clients), len(snap.Sessions), len(snap.Payments))
	}
	if c, _ := s.Client("c4"); c.Balance.Cents != 32000 {
		t.Fatalf("other balances must be untouched, got %d", c.Balance.Cents)
	}
	if got := stored[[]core.Payment](t, mem, kv.KeyPayments); len(got) != 1 {
		t.Fatalf("persisted payments = %d, want 1", len(got))
	}

	if _, err := s.DeleteClient(ctx, "c2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteStaffCascadesSessions(t *testing.T) {
	ctx := context.Background()
	s, _ := openDemo(t)

	removed, err := s.DeleteStaff(ctx, "s1")
	if err != nil {
		t.Fatalf("DeleteStaff() error = %v", err)
	}
	if len(removed.Sessions) != 3 {
		t.Fatalf("expected 3 sessions removed, got %v", removed.Sessions)
	}
	if len(s.Sessions()) != 2 || len(s.Payments()) != 2 {
		t.Fatal("unexpected collections after staff delete")
	}
}

func TestSessionMutations(t *testing.T) {
	ctx := context.Background()
	s, _ := openDemo(t)

	sess, _ := s.Session("sess1")
	sess.Status = core.StatusCancelled
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}
	if got, _ := s.Session("sess1"); got.Status != core.StatusCancelled {
		t.Fatalf("status = %s", got.Status)
	}
	if err := s.DeleteSession(ctx, "sess1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if err := s.DeleteSession(ctx, "sess1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s, mem := openDemo(t)
	before, _, _ := mem.Get(ctx, kv.KeyClients)

	boom := errors.New("boom")
	err := s.Commit(ctx, func(tx *Tx) error {
		tx.SetClients([]core.Client{})
		if err := tx.AddPayment(core.Payment{ID: "pay9", ClientID: "c1", Amount: core.Units(10)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(s.Clients()) != 5 || len(s.Payments()) != 2 {
		t.Fatal("failed commit leaked changes")
	}
	after, _, _ := mem.Get(ctx, kv.KeyClients)
	if before != after {
		t.Fatal("failed commit reached the kv store")
	}
}

func TestCommitPrependsPaymentsAndPersistsTogether(t *testing.T) {
	ctx := context.Background()
	s, mem := openDemo(t)

	err := s.Commit(ctx, func(tx *Tx) error {
		if err := tx.AddPayment(core.Payment{ID: "pay3", ClientID: "c1", Amount: core.Units(50), Method: core.MethodCard}); err != nil {
			return err
		}
		clients := tx.Clients()
		clients[0].Balance = core.Units(150)
		tx.SetClients(clients)
		return nil
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	payments := stored[[]core.Payment](t, mem, kv.KeyPayments)
	if payments[0].ID != "pay3" || payments[0].SessionIDs == nil {
		t.Fatalf("expected new payment first with empty session ids, got %+v", payments[0])
	}
	clients := stored[[]core.Client](t, mem, kv.KeyClients)
	if clients[0].Balance.Cents != 15000 {
		t.Fatalf("balance = %d", clients[0].Balance.Cents)
	}
}

func TestReloadPicksUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	s, mem := openDemo(t)
	kv.Save(ctx, mem, kv.KeyClients, []core.Client{{ID: "cx", Name: "External"}})
	s.Reload(ctx)
	if c := s.Clients(); len(c) != 1 || c[0].ID != "cx" {
		t.Fatalf("Reload() clients = %+v", c)
	}
	if len(s.Sessions()) != 5 {
		t.Fatal("untouched collections must survive reload")
	}
}

// flakyStore fails reads while failing is set and records writes.
type flakyStore struct {
	*kv.MemoryStore
	failing bool
	writes  int
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failing {
		return "", false, errors.New("i/o timeout")
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.writes++
	return f.MemoryStore.Set(ctx, key, value)
}

func TestOpenKeepsPersistedDataOnReadError(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	kv.Save(ctx, mem, kv.KeyClients, []core.Client{{ID: "real", Name: "Real Client"}})
	flaky := &flakyStore{MemoryStore: mem, failing: true}

	s := Open(ctx, flaky, Demo())
	if flaky.writes != 0 {
		t.Fatalf("Open() wrote %d slots after failed reads", flaky.writes)
	}
	if len(s.Clients()) != 5 {
		t.Fatalf("expected in-memory demo fallback, got %d clients", len(s.Clients()))
	}
	clients := stored[[]core.Client](t, mem, kv.KeyClients)
	if len(clients) != 1 || clients[0].ID != "real" {
		t.Fatalf("persisted clients overwritten: %+v", clients)
	}
}

func TestReloadNeverWrites(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	flaky := &flakyStore{MemoryStore: mem}
	s := Open(ctx, flaky, Demo())
	flaky.writes = 0

	flaky.failing = true
	s.Reload(ctx)
	if flaky.writes != 0 {
		t.Fatalf("Reload() wrote %d slots", flaky.writes)
	}
	if len(s.Clients()) != 5 || len(s.Payments()) != 2 {
		t.Fatal("failed reload must keep the in-memory collections")
	}

	// Another process removed a slot; the reader must not recreate it.
	flaky.failing = false
	mem2 := kv.NewMemoryStore()
	kv.Save(ctx, mem2, kv.KeyStaff, []core.Staff{{ID: "sx"}})
	flaky.MemoryStore = mem2
	s.Reload(ctx)
	if flaky.writes != 0 {
		t.Fatalf("Reload() wrote %d slots for absent keys", flaky.writes)
	}
	if st := s.Staff(); len(st) != 1 || st[0].ID != "sx" {
		t.Fatalf("Reload() staff = %+v", st)
	}
	if len(s.Clients()) != 5 {
		t.Fatal("absent slot must keep the in-memory collection")
	}
	if _, ok, _ := mem2.Get(ctx, kv.KeyClients); ok {
		t.Fatal("Reload() recreated an absent slot")
	}
}
