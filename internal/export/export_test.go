package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"

	"clinic/internal/core"
	"clinic/internal/state"
)

var today = core.NewDate(2024, 9, 29)

func TestXLSXSheets(t *testing.T) {
	data, err := XLSX(state.Demo(), today)
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetClients, SheetStaff, SheetSessions, SheetPayments}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", got, want)
		}
	}

	tests := []struct {
		sheet string
		rows  int // including header
	}{
		{SheetClients, 6},
		{SheetStaff, 4},
		{SheetSessions, 6},
		{SheetPayments, 3},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			rows, err := f.GetRows(tt.sheet)
			if err != nil {
				t.Fatalf("GetRows: %v", err)
			}
			if len(rows) != tt.rows {
				t.Fatalf("got %d rows, want %d", len(rows), tt.rows)
			}
			if rows[0][0] != "ID" {
				t.Fatalf("header = %v", rows[0])
			}
		})
	}
}

func TestXLSXContent(t *testing.T) {
	data, err := XLSX(state.Demo(), today)
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	cells := []struct {
		sheet, cell, want string
	}{
		{SheetSummary, "A5", "Collection rate (%)"},
		{SheetSummary, "B5", "38"},
		{SheetSummary, "B2", "2024-09-29"},
		{SheetSummary, "A11", "2024-09"},
		{SheetClients, "B2", "John Smith"},
		{SheetPayments, "A2", "pay1"},
		{SheetPayments, "D2", "Michael Davis"},
		{SheetPayments, "G2", "sess_old1,sess_old2,sess_old3"},
	}
	for _, c := range cells {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s): %v", c.sheet, c.cell, err)
		}
		if got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestXLSXEmptyCollections(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, state.Empty(), today); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetPayments)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("payments sheet has %d rows, want header only", len(rows))
	}
}

func TestPaymentsCSV(t *testing.T) {
	data, err := PaymentsCSV(state.Demo())
	if err != nil {
		t.Fatalf("PaymentsCSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	want := []string{"pay2", "2024-09-20", "c2", "Emily Johnson", "160.00", "cash", "sess_old4,sess_old5", "Cash payment for 2 sessions"}
	for i, v := range want {
		if records[2][i] != v {
			t.Errorf("record[2][%d] = %q, want %q", i, records[2][i], v)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(today, "xlsx"); got != "clinic_20240929.xlsx" {
		t.Fatalf("Filename = %q", got)
	}
}
