// Package export renders the clinic collections as spreadsheet downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"clinic/internal/core"
	"clinic/internal/state"
	"clinic/internal/stats"
)

const (
	SheetSummary  = "Summary"
	SheetClients  = "Clients"
	SheetStaff    = "Staff"
	SheetSessions = "Sessions"
	SheetPayments = "Payments"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

var (
	clientHeader  = []string{"ID", "Name", "Email", "Phone", "Balance", "Created", "Total Sessions"}
	staffHeader   = []string{"ID", "Name", "Email", "Phone", "Compensation", "Rate", "Total Earnings", "Sessions", "Avg / Session", "Completed", "Projected Earnings"}
	sessionHeader = []string{"ID", "Date", "Start", "Duration", "Client", "Staff", "Type", "Fee", "Status", "Marked By", "Notes"}
	paymentHeader = []string{"ID", "Date", "Client ID", "Client", "Amount", "Method", "Sessions", "Notes"}
)

// Workbook builds a workbook with one sheet per collection plus a summary.
func Workbook(snap state.Snapshot, today core.Date) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	b := &builder{f: f, style: headerStyle, clients: clientNames(snap.Clients), staff: staffNames(snap.Staff)}
	b.summary(snap, today)
	b.clientSheet(snap.Clients)
	b.staffSheet(snap.Staff, snap.Sessions)
	b.sessionSheet(snap.Sessions)
	b.paymentSheet(snap.Payments)
	if b.err != nil {
		return nil, b.err
	}
	return f, nil
}

// XLSX returns the workbook as bytes.
func XLSX(snap state.Snapshot, today core.Date) ([]byte, error) {
	f, err := Workbook(snap, today)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX streams the workbook to w.
func WriteXLSX(w io.Writer, snap state.Snapshot, today core.Date) error {
	f, err := Workbook(snap, today)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// PaymentsCSV renders the payments collection, in stored order, as CSV.
func PaymentsCSV(snap state.Snapshot) ([]byte, error) {
	names := clientNames(snap.Clients)
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(paymentHeader)
	for _, p := range snap.Payments {
		_ = w.Write([]string{
			p.ID,
			p.Date.String(),
			p.ClientID,
			names[p.ClientID],
			p.Amount.String(),
			string(p.Method),
			strings.Join(p.SessionIDs, ","),
			p.Notes,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// builder writes sheets and remembers the first error.
type builder struct {
	f       *excelize.File
	style   int
	clients map[string]string
	staff   map[string]string
	err     error
}

func (b *builder) row(sheet string, row int, values ...any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
}

func (b *builder) table(sheet string, header []string) {
	if b.err != nil {
		return
	}
	if sheet != SheetSummary {
		if _, err := b.f.NewSheet(sheet); err != nil {
			b.err = err
			return
		}
	}
	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	b.row(sheet, 1, values...)
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	_ = b.f.SetCellStyle(sheet, "A1", last, b.style)
	_ = b.f.SetColWidth(sheet, "A", "A", 12)
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if len(header) > 1 {
		_ = b.f.SetColWidth(sheet, "B", lastCol, 18)
	}
}

func (b *builder) summary(snap state.Snapshot, today core.Date) {
	d := stats.BuildDashboard(snap, today)
	b.table(SheetSummary, []string{"Metric", "Value"})
	b.row(SheetSummary, 2, "Generated", today.String())
	b.row(SheetSummary, 3, "Total revenue", d.TotalRevenue.Float64())
	b.row(SheetSummary, 4, "Outstanding balance", d.OutstandingBalance.Float64())
	b.row(SheetSummary, 5, "Collection rate (%)", d.CollectionRate)
	b.row(SheetSummary, 6, "Sessions today", d.TodaySessions)
	b.row(SheetSummary, 7, "Pending sessions", d.PendingSessions)
	b.row(SheetSummary, 8, "Clients with balance", d.OutstandingClients)

	b.row(SheetSummary, 10, "Month", "Revenue", "Payments")
	for i, m := range stats.MonthlyRevenue(snap.Payments) {
		b.row(SheetSummary, 11+i, m.Month, m.Total.Float64(), m.Payments)
	}
}

func (b *builder) clientSheet(clients []core.Client) {
	b.table(SheetClients, clientHeader)
	for i, c := range clients {
		b.row(SheetClients, i+2, c.ID, c.Name, c.Email, c.Phone, c.Balance.Float64(), c.CreatedAt.String(), c.TotalSessions)
	}
}

func (b *builder) staffSheet(staff []core.Staff, sessions []core.Session) {
	b.table(SheetStaff, staffHeader)
	for i, s := range stats.StaffRollup(staff, sessions) {
		m := s.Staff
		b.row(SheetStaff, i+2,
			m.ID, m.Name, m.Email, m.Phone,
			string(m.CompensationType), m.CompensationRate,
			m.TotalEarnings.Float64(), m.SessionsCount,
			s.AveragePerSession.Float64(), s.CompletedSessions, s.ProjectedEarnings.Float64())
	}
}

func (b *builder) sessionSheet(sessions []core.Session) {
	b.table(SheetSessions, sessionHeader)
	for i, s := range sessions {
		b.row(SheetSessions, i+2,
			s.ID, s.Date.String(), s.StartTime, s.Duration,
			b.clients[s.ClientID], b.staff[s.StaffID],
			string(s.Type), s.Fee.Float64(), string(s.Status), s.MarkedBy, s.Notes)
	}
}

func (b *builder) paymentSheet(payments []core.Payment) {
	b.table(SheetPayments, paymentHeader)
	for i, p := range payments {
		b.row(SheetPayments, i+2,
			p.ID, p.Date.String(), p.ClientID, b.clients[p.ClientID],
			p.Amount.Float64(), string(p.Method), strings.Join(p.SessionIDs, ","), p.Notes)
	}
}

func clientNames(clients []core.Client) map[string]string {
	out := make(map[string]string, len(clients))
	for _, c := range clients {
		out[c.ID] = c.Name
	}
	return out
}

func staffNames(staff []core.Staff) map[string]string {
	out := make(map[string]string, len(staff))
	for _, s := range staff {
		out[s.ID] = s.Name
	}
	return out
}

// Filename returns the download name for a given day and extension.
func Filename(today core.Date, ext string) string {
	return fmt.Sprintf("clinic_%04d%02d%02d.%s", today.Year(), today.Month(), today.Day(), ext)
}
