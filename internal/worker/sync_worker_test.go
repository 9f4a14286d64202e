package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic/internal/amqp"
	"clinic/internal/core"
	"clinic/internal/kv"
	"clinic/internal/sheets"
	"clinic/internal/sheets/memory"
	"clinic/internal/state"
)

// setup returns a writer store and a worker whose own store shares the same
// kv backend, the way the server and worker processes do.
func setup(t *testing.T) (*state.Store, *SyncWorker, *memory.Ledger) {
	t.Helper()
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	writer := state.Open(ctx, backend, state.Demo())
	reader := state.Open(ctx, backend, state.Empty())
	ledger := memory.New()
	return writer, NewSyncWorker(reader, ledger, time.Hour), ledger
}

func addPayment(t *testing.T, s *state.Store, p core.Payment) {
	t.Helper()
	err := s.Commit(context.Background(), func(tx *state.Tx) error { return tx.AddPayment(p) })
	if err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
}

func TestHandleChangePaymentCreated(t *testing.T) {
	writer, w, ledger := setup(t)
	addPayment(t, writer, core.Payment{
		ID: "pay9", ClientID: "c1", Amount: core.Units(200),
		Date: core.NewDate(2024, 9, 29), Method: core.MethodCard, SessionIDs: []string{},
	})

	msg := amqp.NewChangeMessage(amqp.CollectionPayments, amqp.OpCreated, "pay9")
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	row, ok := ledger.Row("pay9")
	if !ok {
		t.Fatal("pay9 missing from ledger")
	}
	if row.ClientName != "John Smith" || row.Amount.Cents != 20000 || row.Method != core.MethodCard {
		t.Fatalf("row = %+v", row)
	}
}

func TestHandleChangePaymentDeleted(t *testing.T) {
	_, w, ledger := setup(t)
	ctx := context.Background()
	_ = ledger.Upsert(ctx, sheets.LedgerRow{PaymentID: "pay1"}, sheets.LedgerRow{PaymentID: "pay2"})

	msg := amqp.NewChangeMessage(amqp.CollectionPayments, amqp.OpDeleted, "pay1")
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if _, ok := ledger.Row("pay1"); ok {
		t.Fatal("pay1 should be removed")
	}
	if _, ok := ledger.Row("pay2"); !ok {
		t.Fatal("pay2 should remain")
	}
}

func TestHandleChangeUpdateOfVanishedPaymentRemovesRow(t *testing.T) {
	_, w, ledger := setup(t)
	ctx := context.Background()
	_ = ledger.Upsert(ctx, sheets.LedgerRow{PaymentID: "ghost"})

	msg := amqp.NewChangeMessage(amqp.CollectionPayments, amqp.OpUpdated, "ghost")
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if _, ok := ledger.Row("ghost"); ok {
		t.Fatal("ghost row should be removed")
	}
}

func TestHandleChangeClientRenameRewritesPayments(t *testing.T) {
	writer, w, ledger := setup(t)
	ctx := context.Background()

	c, _ := writer.Client("c3")
	c.Name = "Michael D. Davis"
	if err := writer.UpdateClient(ctx, c); err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}

	msg := amqp.NewChangeMessage(amqp.CollectionClients, amqp.OpUpdated, "c3")
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	row, ok := ledger.Row("pay1")
	if !ok || row.ClientName != "Michael D. Davis" {
		t.Fatalf("Row(pay1) = %+v, %v", row, ok)
	}
	if _, ok := ledger.Row("pay2"); ok {
		t.Fatal("pay2 belongs to another client and should not be written")
	}
}

func TestHandleChangeIgnoresOtherCollections(t *testing.T) {
	_, w, ledger := setup(t)
	msg := amqp.NewChangeMessage(amqp.CollectionSessions, amqp.OpCreated, "sess1")
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if n := len(ledger.Rows()); n != 0 {
		t.Fatalf("ledger has %d rows, want 0", n)
	}
}

func TestExportAllOrdersByDate(t *testing.T) {
	_, w, ledger := setup(t)
	if err := w.ExportAll(context.Background()); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	rows := ledger.Rows()
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	// pay2 (Sep 20) precedes pay1 (Sep 25).
	if rows[0].PaymentID != "pay2" || rows[1].PaymentID != "pay1" {
		t.Fatalf("order = %s, %s", rows[0].PaymentID, rows[1].PaymentID)
	}
	if rows[1].ClientName != "Michael Davis" {
		t.Fatalf("rows[1].ClientName = %q", rows[1].ClientName)
	}
}

type failingLedger struct{ memory.Ledger }

var errLedgerDown = errors.New("ledger down")

func (*failingLedger) Upsert(context.Context, ...sheets.LedgerRow) error { return errLedgerDown }

func TestHandleChangeReturnsLedgerError(t *testing.T) {
	writer, _, _ := setup(t)
	w := NewSyncWorker(writer, &failingLedger{}, time.Hour)

	msg := amqp.NewChangeMessage(amqp.CollectionPayments, amqp.OpCreated, "pay1")
	if err := w.HandleChange(context.Background(), msg); !errors.Is(err, errLedgerDown) {
		t.Fatalf("HandleChange error = %v, want %v", err, errLedgerDown)
	}
}

func TestStartStop(t *testing.T) {
	_, w, ledger := setup(t)
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start = %v, want ErrAlreadyRunning", err)
	}
	if !w.IsRunning() {
		t.Fatal("worker should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Fatal("worker should be stopped")
	}
	// The loop exports once before waiting on the ticker.
	if n := len(ledger.Rows()); n != 2 {
		t.Fatalf("ledger has %d rows after startup export, want 2", n)
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop when stopped: %v", err)
	}
}
