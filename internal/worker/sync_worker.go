// Package worker mirrors committed payments into an external ledger, driven
// by the change feed and by a periodic full re-export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"clinic/internal/amqp"
	"clinic/internal/core"
	"clinic/internal/log"
	"clinic/internal/sheets"
	"clinic/internal/state"
)

// ErrAlreadyRunning is returned by Start on a running worker.
var ErrAlreadyRunning = errors.New("sync worker is already running")

// SyncWorker keeps a PaymentLedger in step with the state store.
type SyncWorker struct {
	store    *state.Store
	ledger   sheets.PaymentLedger
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncWorker(store *state.Store, ledger sheets.PaymentLedger, interval time.Duration) *SyncWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SyncWorker{store: store, ledger: ledger, interval: interval}
}

// HandleChange applies one change message to the ledger. Returning an error
// requeues the message.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.store.Reload(ctx)

	slog.DebugContext(ctx, "Processing change message",
		log.FieldComponent, log.ComponentWorker,
		log.FieldCollection, msg.Collection,
		log.FieldOperation, msg.Op,
		log.FieldCount, len(msg.IDs))

	switch msg.Collection {
	case amqp.CollectionPayments:
		if msg.Op == amqp.OpDeleted {
			return w.remove(ctx, msg.IDs)
		}
		return w.syncPayments(ctx, msg.IDs)
	case amqp.CollectionClients:
		// Renaming a client changes the name column of all its payments.
		if msg.Op == amqp.OpUpdated {
			return w.syncClientPayments(ctx, msg.IDs)
		}
	}
	return nil
}

func (w *SyncWorker) syncPayments(ctx context.Context, ids []string) error {
	var rows []sheets.LedgerRow
	var gone []string
	for _, id := range ids {
		p, ok := w.store.Payment(id)
		if !ok {
			// Deleted again before this message was handled.
			gone = append(gone, id)
			continue
		}
		rows = append(rows, w.row(p))
	}
	if len(rows) > 0 {
		if err := w.ledger.Upsert(ctx, rows...); err != nil {
			return fmt.Errorf("upsert ledger rows: %w", err)
		}
	}
	return w.remove(ctx, gone)
}

func (w *SyncWorker) syncClientPayments(ctx context.Context, clientIDs []string) error {
	want := make(map[string]struct{}, len(clientIDs))
	for _, id := range clientIDs {
		want[id] = struct{}{}
	}
	var rows []sheets.LedgerRow
	for _, p := range w.store.Payments() {
		if _, ok := want[p.ClientID]; ok {
			rows = append(rows, w.row(p))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := w.ledger.Upsert(ctx, rows...); err != nil {
		return fmt.Errorf("upsert client payments: %w", err)
	}
	return nil
}

func (w *SyncWorker) remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.ledger.Remove(ctx, ids...); err != nil {
		return fmt.Errorf("remove ledger rows: %w", err)
	}
	return nil
}

// ExportAll rewrites the ledger from the current payments, oldest first.
func (w *SyncWorker) ExportAll(ctx context.Context) error {
	w.store.Reload(ctx)

	payments := w.store.Payments()
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Date.Before(payments[j].Date.Time)
	})
	rows := make([]sheets.LedgerRow, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, w.row(p))
	}
	if err := w.ledger.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	slog.InfoContext(ctx, "Ledger exported",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(rows))
	return nil
}

func (w *SyncWorker) row(p core.Payment) sheets.LedgerRow {
	var name string
	if c, ok := w.store.Client(p.ClientID); ok {
		name = c.Name
	}
	return sheets.RowFromPayment(p, name)
}

// Start runs ExportAll immediately and then every interval until Stop or ctx
// cancellation.
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Sync worker started",
		log.FieldComponent, log.ComponentWorker,
		"interval", w.interval)
	return nil
}

// Stop waits for the loop to exit or ctx to expire.
func (w *SyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync worker stopped", log.FieldComponent, log.ComponentWorker)
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync worker stop timed out", log.FieldComponent, log.ComponentWorker)
		return ctx.Err()
	}
}

func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *SyncWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.exportLogged(ctx)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.exportLogged(ctx)
		}
	}
}

func (w *SyncWorker) exportLogged(ctx context.Context) {
	if err := w.ExportAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Periodic ledger export failed",
			log.FieldComponent, log.ComponentWorker,
			log.FieldError, err)
	}
}
