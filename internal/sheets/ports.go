package sheets

import (
	"context"
	"strings"

	"clinic/internal/core"
)

// Header is the first row of the payment ledger.
var Header = []string{"Payment ID", "Date", "Client ID", "Client", "Amount", "Method", "Sessions", "Notes"}

// LedgerRow is one payment as mirrored to an external ledger.
type LedgerRow struct {
	PaymentID  string
	Date       core.Date
	ClientID   string
	ClientName string
	Amount     core.Money
	Method     core.PaymentMethod
	SessionIDs []string
	Notes      string
}

// RowFromPayment builds a ledger row; clientName may be empty for a dangling payment.
func RowFromPayment(p core.Payment, clientName string) LedgerRow {
	return LedgerRow{
		PaymentID:  p.ID,
		Date:       p.Date,
		ClientID:   p.ClientID,
		ClientName: clientName,
		Amount:     p.Amount,
		Method:     p.Method,
		SessionIDs: append([]string(nil), p.SessionIDs...),
		Notes:      p.Notes,
	}
}

// Values renders the row in Header column order.
func (r LedgerRow) Values() []any {
	return []any{
		r.PaymentID,
		r.Date.String(),
		r.ClientID,
		r.ClientName,
		r.Amount.Float64(),
		string(r.Method),
		strings.Join(r.SessionIDs, ","),
		r.Notes,
	}
}

// PaymentLedger is the outbound port for the payment mirror.
type PaymentLedger interface {
	// Upsert writes rows, replacing any existing row with the same payment id.
	Upsert(ctx context.Context, rows ...LedgerRow) error
	// Remove clears the rows of the given payment ids; unknown ids are ignored.
	Remove(ctx context.Context, paymentIDs ...string) error
	// ReplaceAll rewrites the whole ledger.
	ReplaceAll(ctx context.Context, rows []LedgerRow) error
}
