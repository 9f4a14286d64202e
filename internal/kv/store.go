// Package kv adapts an opaque string-keyed store into typed, JSON-encoded
// collection slots. Reads fall back to a default and writes are best-effort.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"clinic/internal/log"
)

// Storage keys of the four persisted collections.
const (
	KeyClients  = "clinic_clients"
	KeyStaff    = "clinic_staff"
	KeySessions = "clinic_sessions"
	KeyPayments = "clinic_payments"
)

// Keys lists every collection key in load order.
func Keys() []string {
	return []string{KeyClients, KeyStaff, KeySessions, KeyPayments}
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("kv store closed")

// Store is a string-keyed slot store. A missing key reports ok == false
// without an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Load reads key and decodes it into T. When the slot is absent or not valid
// JSON for T, def is written back and returned so the next read sees the same
// value. A failed read returns def and leaves the slot untouched.
func Load[T any](ctx context.Context, store Store, key string, def T) T {
	v, status := read[T](ctx, store, key)
	switch status {
	case slotOK:
		return v
	case slotUnreadable:
		return def
	}
	Save(ctx, store, key, def)
	return def
}

// Read decodes key into T without ever writing. ok is false when the slot
// is absent, unreadable or malformed.
func Read[T any](ctx context.Context, store Store, key string) (T, bool) {
	v, status := read[T](ctx, store, key)
	return v, status == slotOK
}

type slotStatus int

const (
	slotOK slotStatus = iota
	slotMissing
	slotMalformed
	slotUnreadable
)

func read[T any](ctx context.Context, store Store, key string) (T, slotStatus) {
	var v T
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read collection",
			log.FieldComponent, log.ComponentStorage,
			log.FieldOperation, log.OpLoad,
			log.FieldCollection, key,
			log.FieldError, err)
		return v, slotUnreadable
	}
	if !ok {
		slog.DebugContext(ctx, "Collection not found",
			log.FieldComponent, log.ComponentStorage,
			log.FieldCollection, key)
		return v, slotMissing
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		slog.WarnContext(ctx, "Failed to parse collection",
			log.FieldComponent, log.ComponentStorage,
			log.FieldOperation, log.OpLoad,
			log.FieldCollection, key,
			log.FieldError, err)
		var zero T
		return zero, slotMalformed
	}
	return v, slotOK
}

// Save encodes v and writes it under key. Errors are logged, never returned.
func Save[T any](ctx context.Context, store Store, key string, v T) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode collection",
			log.FieldComponent, log.ComponentStorage,
			log.FieldOperation, log.OpSave,
			log.FieldCollection, key,
			log.FieldError, err)
		return
	}
	if err := store.Set(ctx, key, string(b)); err != nil {
		slog.ErrorContext(ctx, "Failed to persist collection",
			log.FieldComponent, log.ComponentStorage,
			log.FieldOperation, log.OpSave,
			log.FieldCollection, key,
			log.FieldError, err)
	}
}
