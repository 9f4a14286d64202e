package memory

import (
	"context"
	"sync"

	"clinic/internal/sheets"
)

// Ledger keeps ledger rows in insertion order. It backs the worker when no
// spreadsheet is configured and stands in for Sheets in tests.
type Ledger struct {
	mu    sync.Mutex
	rows  []sheets.LedgerRow
	index map[string]int
}

var _ sheets.PaymentLedger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{index: map[string]int{}}
}

func (l *Ledger) Upsert(_ context.Context, rows ...sheets.LedgerRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range rows {
		if i, ok := l.index[r.PaymentID]; ok {
			l.rows[i] = r
			continue
		}
		l.index[r.PaymentID] = len(l.rows)
		l.rows = append(l.rows, r)
	}
	return nil
}

func (l *Ledger) Remove(_ context.Context, paymentIDs ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	drop := make(map[string]struct{}, len(paymentIDs))
	for _, id := range paymentIDs {
		drop[id] = struct{}{}
	}
	kept := l.rows[:0]
	for _, r := range l.rows {
		if _, ok := drop[r.PaymentID]; !ok {
			kept = append(kept, r)
		}
	}
	l.rows = kept
	l.reindex()
	return nil
}

func (l *Ledger) ReplaceAll(_ context.Context, rows []sheets.LedgerRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append([]sheets.LedgerRow(nil), rows...)
	l.reindex()
	return nil
}

// Rows returns a copy of the current rows.
func (l *Ledger) Rows() []sheets.LedgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.LedgerRow(nil), l.rows...)
}

// Row looks up a row by payment id.
func (l *Ledger) Row(paymentID string) (sheets.LedgerRow, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[paymentID]
	if !ok {
		return sheets.LedgerRow{}, false
	}
	return l.rows[i], true
}

func (l *Ledger) reindex() {
	l.index = make(map[string]int, len(l.rows))
	for i, r := range l.rows {
		l.index[r.PaymentID] = i
	}
}
