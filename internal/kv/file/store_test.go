package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"clinic/internal/kv"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, ok, err := s.Get(ctx, kv.KeyClients); ok || err != nil {
		t.Fatalf("expected missing slot, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, kv.KeyClients, `[{"id":"c1"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := s.Get(ctx, kv.KeyClients)
	if err != nil || !ok || v != `[{"id":"c1"}]` {
		t.Fatalf("Get() = %q, %v, %v", v, ok, err)
	}

	if _, err := os.Stat(filepath.Join(dir, "clinic_clients.json")); err != nil {
		t.Fatalf("expected slot file: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestStoreRejectsPathKeys(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.Set(context.Background(), "../escape", "x"); err == nil {
		t.Fatal("expected error for key with path separators")
	}
}

func TestStoreWithLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())
	got := kv.Load(ctx, s, kv.KeyStaff, []string{"seed"})
	if len(got) != 1 || got[0] != "seed" {
		t.Fatalf("Load() = %v", got)
	}
	kv.Save(ctx, s, kv.KeyStaff, []string{"a", "b"})
	got = kv.Load(ctx, s, kv.KeyStaff, []string{})
	if len(got) != 2 {
		t.Fatalf("Load() after Save = %v", got)
	}
}
