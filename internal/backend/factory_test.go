package backend

import (
	"context"
	"path/filepath"
	"testing"

	"clinic/internal/config"
	"clinic/internal/kv"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg := &config.Config{DataBackend: "redis", RedisURL: "redis://localhost:6379/0", RedisKeyPrefix: "clinic:", DataDir: "./data"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != RedisBackend || got.RedisURL != cfg.RedisURL || got.RedisKeyPrefix != "clinic:" || got.DataDirectory != "./data" {
		t.Fatalf("FromAppConfig() = %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file", Config{Type: FileBackend, DataDirectory: "./data"}, false},
		{"file without dir", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"redis without url", Config{Type: RedisBackend}, true},
		{"unknown", Config{Type: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFactory(nil)

	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"file", Config{Type: FileBackend, DataDirectory: filepath.Join(dir, "slots")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "clinic.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Cleanup()

			if err := res.Store.Set(ctx, kv.KeyClients, "[]"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			v, ok, err := res.Store.Get(ctx, kv.KeyClients)
			if err != nil || !ok || v != "[]" {
				t.Fatalf("Get() = %q, %v, %v", v, ok, err)
			}
			if err := res.Ready(ctx); err != nil {
				t.Fatalf("Ready() error = %v", err)
			}
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	want := config.Backends
	if len(got) != len(want) {
		t.Fatalf("GetBackendTypeStrings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetBackendTypeStrings() = %v, want %v", got, want)
		}
	}
}
