package kv

import (
	"context"
	"errors"
	"testing"
)

type failingStore struct {
	getErr error
	setErr error
	sets   map[string]string
}

func (f *failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, f.getErr
}

func (f *failingStore) Set(_ context.Context, key, value string) error {
	if f.sets == nil {
		f.sets = map[string]string{}
	}
	f.sets[key] = value
	return f.setErr
}

type item struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	def := []item{{ID: "a", Count: 1}}

	tests := []struct {
		name      string
		initial   *string
		want      []item
		wantSaved string
	}{
		{name: "absent slot writes default", want: def, wantSaved: `[{"id":"a","count":1}]`},
		{name: "valid slot is decoded", initial: ptr(`[{"id":"b","count":2}]`), want: []item{{ID: "b", Count: 2}}, wantSaved: `[{"id":"b","count":2}]`},
		{name: "corrupt slot falls back", initial: ptr(`{not json`), want: def, wantSaved: `[{"id":"a","count":1}]`},
		{name: "wrong shape falls back", initial: ptr(`{"id":"x"}`), want: def, wantSaved: `[{"id":"a","count":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			if tt.initial != nil {
				_ = store.Set(ctx, KeyClients, *tt.initial)
			}
			got := Load(ctx, store, KeyClients, def)
			if len(got) != len(tt.want) || got[0] != tt.want[0] {
				t.Fatalf("Load() = %+v, want %+v", got, tt.want)
			}
			saved, ok, _ := store.Get(ctx, KeyClients)
			if !ok || saved != tt.wantSaved {
				t.Fatalf("stored %q, want %q", saved, tt.wantSaved)
			}
			// A second read sees the same value.
			again := Load(ctx, store, KeyClients, []item{})
			if len(again) != len(tt.want) || again[0] != tt.want[0] {
				t.Fatalf("second Load() = %+v, want %+v", again, tt.want)
			}
		})
	}
}

func TestLoadReadErrorKeepsStoredValue(t *testing.T) {
	store := &failingStore{getErr: errors.New("quota exceeded")}
	got := Load(context.Background(), store, KeyPayments, []item{})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty default, got %+v", got)
	}
	if len(store.sets) != 0 {
		t.Fatalf("expected no write after a failed read, got %v", store.sets)
	}
}

func TestRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok := Read[[]item](ctx, store, KeyClients); ok {
		t.Fatal("absent slot must report false")
	}
	_ = store.Set(ctx, KeyClients, `{not json`)
	if _, ok := Read[[]item](ctx, store, KeyClients); ok {
		t.Fatal("malformed slot must report false")
	}
	if raw, _, _ := store.Get(ctx, KeyClients); raw != `{not json` {
		t.Fatalf("Read must not write, slot = %q", raw)
	}
	_ = store.Set(ctx, KeyClients, `[{"id":"b","count":2}]`)
	got, ok := Read[[]item](ctx, store, KeyClients)
	if !ok || len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("Read() = %+v, %v", got, ok)
	}

	failing := &failingStore{getErr: errors.New("timeout")}
	if _, ok := Read[[]item](ctx, failing, KeyClients); ok || len(failing.sets) != 0 {
		t.Fatalf("failed read: ok=%v sets=%v", ok, failing.sets)
	}
}

func TestSaveSwallowsErrors(t *testing.T) {
	store := &failingStore{setErr: errors.New("disk full")}
	Save(context.Background(), store, KeyStaff, []item{{ID: "s1"}})
	if store.sets[KeyStaff] == "" {
		t.Fatal("expected Set to be attempted")
	}
	// Unencodable values are logged and dropped.
	Save(context.Background(), store, KeyStaff, func() {})
}

func TestKeys(t *testing.T) {
	want := []string{"clinic_clients", "clinic_staff", "clinic_sessions", "clinic_payments"}
	got := Keys()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func ptr(s string) *string { return &s }
