package filter

import (
	"errors"
	"testing"

	"clinic/internal/core"
	"clinic/internal/state"
)

func TestCurrentMonthBoundaries(t *testing.T) {
	today := core.NewDate(2024, 9, 15)
	tl := CurrentMonth()

	tests := []struct {
		name string
		date core.Date
		want bool
	}{
		{"first day", core.NewDate(2024, 9, 1), true},
		{"last day", core.NewDate(2024, 9, 30), true},
		{"day before month start", core.NewDate(2024, 8, 31), false},
		{"first day of next month", core.NewDate(2024, 10, 1), false},
		{"same month last year", core.NewDate(2023, 9, 15), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tl.Contains(tt.date, today); got != tt.want {
				t.Fatalf("Contains(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestLastMonths(t *testing.T) {
	today := core.NewDate(2024, 2, 10)
	tl := LastMonths(3)
	cases := map[core.Date]bool{
		core.NewDate(2024, 2, 29):  true,
		core.NewDate(2024, 1, 1):   true,
		core.NewDate(2023, 12, 1):  true,
		core.NewDate(2023, 11, 30): false,
		core.NewDate(2024, 3, 1):   false,
	}
	for d, want := range cases {
		if got := tl.Contains(d, today); got != want {
			t.Errorf("LastMonths(3).Contains(%s) = %v, want %v", d, got, want)
		}
	}
}

func TestParseTimeline(t *testing.T) {
	today := core.NewDate(2024, 9, 15)
	tests := []struct {
		in      string
		want    string
		inside  core.Date
		wantErr bool
	}{
		{in: "", want: "all", inside: core.NewDate(1999, 1, 1)},
		{in: "all", want: "all", inside: core.NewDate(1999, 1, 1)},
		{in: "current-month", want: "current-month", inside: core.NewDate(2024, 9, 1)},
		{in: "2024-03", want: "2024-03", inside: core.NewDate(2024, 3, 31)},
		{in: "last-6-months", want: "last-6-months", inside: core.NewDate(2024, 4, 1)},
		{in: "last-0-months", wantErr: true},
		{in: "2024-13", wantErr: true},
		{in: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tl, err := ParseTimeline(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeline) {
					t.Fatalf("expected ErrInvalidTimeline, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeline() error = %v", err)
			}
			if tl.String() != tt.want {
				t.Fatalf("String() = %q, want %q", tl.String(), tt.want)
			}
			if !tl.Contains(tt.inside, today) {
				t.Fatalf("expected %s inside %s", tt.inside, tl)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	if !Search("", "anything") || !Search("  ") {
		t.Fatal("empty term must match")
	}
	if !Search("SMITH", "john.smith@email.com") {
		t.Fatal("search must be case-insensitive")
	}
	if Search("zzz", "John", "") {
		t.Fatal("unexpected match")
	}
}

func TestStaffSet(t *testing.T) {
	empty := NewStaffSet()
	if !empty.Contains("s1") {
		t.Fatal("empty selection must match every staff member")
	}
	set := NewStaffSet("s1", " ", "s3")
	if !set.Contains("s3") || set.Contains("s2") {
		t.Fatal("unexpected staff selection result")
	}
}

func TestClients(t *testing.T) {
	demo := state.Demo()
	got := Clients(demo.Clients, ClientQuery{Search: "EMAIL.com", Timeline: Month(2024, 1)})
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c4" {
		t.Fatalf("Clients() = %+v", got)
	}
	if all := Clients(demo.Clients, ClientQuery{}); len(all) != 5 {
		t.Fatalf("empty query must keep all clients, got %d", len(all))
	}
}

func TestSessionsFiltersCompose(t *testing.T) {
	demo := state.Demo()
	q := SessionQuery{
		Staff: NewStaffSet("s1"),
		Date:  core.NewDate(2024, 9, 29),
		Today: core.NewDate(2024, 9, 29),
	}
	got := Sessions(demo.Sessions, demo.Clients, demo.Staff, q)
	if len(got) != 2 || got[0].ID != "sess1" || got[1].ID != "sess3" {
		t.Fatalf("Sessions() = %+v", got)
	}

	q.Search = "sarah"
	got = Sessions(demo.Sessions, demo.Clients, demo.Staff, q)
	if len(got) != 1 || got[0].ID != "sess3" {
		t.Fatalf("client-name search = %+v", got)
	}

	byStaffName := Sessions(demo.Sessions, demo.Clients, demo.Staff, SessionQuery{Search: "angela"})
	if len(byStaffName) != 1 || byStaffName[0].ID != "sess5" {
		t.Fatalf("staff-name search = %+v", byStaffName)
	}

	pending := Sessions(demo.Sessions, demo.Clients, demo.Staff, SessionQuery{Status: core.StatusPending})
	if len(pending) != 1 {
		t.Fatalf("status filter = %+v", pending)
	}
}

func TestPayments(t *testing.T) {
	demo := state.Demo()
	tests := []struct {
		name string
		q    PaymentQuery
		want []string
	}{
		{"all", PaymentQuery{Method: MethodAll}, []string{"pay1", "pay2"}},
		{"method", PaymentQuery{Method: "cash"}, []string{"pay2"}},
		{"client name", PaymentQuery{Search: "michael"}, []string{"pay1"}},
		{"notes", PaymentQuery{Search: "cash payment"}, []string{"pay2"}},
		{"method and search disagree", PaymentQuery{Method: "card", Search: "michael"}, nil},
		{"timeline", PaymentQuery{Timeline: CurrentMonth(), Today: core.NewDate(2024, 10, 2)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Payments(demo.Payments, demo.Clients, tt.q)
			if len(got) != len(tt.want) {
				t.Fatalf("Payments() = %d items, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("Payments()[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestFilterOrderIndependence(t *testing.T) {
	demo := state.Demo()
	var a Predicate[core.Payment] = func(p core.Payment) bool { return p.Method == core.MethodUPI }
	var b Predicate[core.Payment] = func(p core.Payment) bool { return p.Amount.Cents > 10000 }
	ab := Apply(demo.Payments, All(a, b))
	ba := Apply(demo.Payments, All(b, a))
	if len(ab) != len(ba) || len(ab) != 1 || ab[0].ID != ba[0].ID {
		t.Fatalf("AND composition must not depend on order: %v vs %v", ab, ba)
	}
}
