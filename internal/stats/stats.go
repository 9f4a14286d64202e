// Package stats derives dashboard aggregates from the collections. Every
// function is pure and recomputed on each read.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"clinic/internal/core"
	"clinic/internal/state"
)

const recentSessionsLimit = 4

// TodaySessionsCount counts sessions dated today.
func TodaySessionsCount(sessions []core.Session, today core.Date) int {
	n := 0
	for _, s := range sessions {
		if s.Date.Equal(today.Time) {
			n++
		}
	}
	return n
}

// TodaySessions returns today's sessions ordered by start time.
func TodaySessions(sessions []core.Session, today core.Date) []core.Session {
	out := []core.Session{}
	for _, s := range sessions {
		if s.Date.Equal(today.Time) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

func PendingSessionsCount(sessions []core.Session) int {
	n := 0
	for _, s := range sessions {
		if s.Status == core.StatusPending {
			n++
		}
	}
	return n
}

// TotalRevenue sums every payment amount.
func TotalRevenue(payments []core.Payment) core.Money {
	var total core.Money
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// OutstandingBalance sums every client balance.
func OutstandingBalance(clients []core.Client) core.Money {
	var total core.Money
	for _, c := range clients {
		total = total.Add(c.Balance)
	}
	return total
}

// OutstandingClients returns clients owing money, largest balance first and
// then by name.
func OutstandingClients(clients []core.Client) []core.Client {
	out := []core.Client{}
	for _, c := range clients {
		if c.Balance.IsPositive() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Balance.Cents != out[j].Balance.Cents {
			return out[i].Balance.Cents > out[j].Balance.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ClientOutstanding is what the client owes, never negative.
func ClientOutstanding(c core.Client) core.Money {
	return c.Balance.FloorZero()
}

// CollectionRate is revenue / (revenue + outstanding) as a whole percentage,
// rounded half up. It is 0 when nothing has been billed or collected.
func CollectionRate(revenue, outstanding core.Money) int {
	total := revenue.Add(outstanding)
	if !total.IsPositive() || revenue.IsNegative() {
		return 0
	}
	pct := revenue.Decimal().Mul(decimal.NewFromInt(100)).Div(total.Decimal()).Round(0).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return int(pct)
	}
}

// AverageEarningsPerSession divides the staff member's recorded earnings by
// their session counter, rounded to the cent. Zero sessions yield zero.
func AverageEarningsPerSession(m core.Staff) core.Money {
	if m.SessionsCount <= 0 {
		return core.Money{}
	}
	return m.TotalEarnings.DivInt(m.SessionsCount)
}

// Dashboard bundles the aggregates shown on the overview screen.
type Dashboard struct {
	Today              core.Date      `json:"today"`
	TodaySessions      int            `json:"todaySessions"`
	PendingSessions    int            `json:"pendingSessions"`
	TotalRevenue       core.Money     `json:"totalRevenue"`
	OutstandingBalance core.Money     `json:"outstandingBalance"`
	OutstandingClients int            `json:"outstandingClients"`
	CollectionRate     int            `json:"collectionRate"`
	Schedule           []core.Session `json:"schedule"`
	RecentSessions     []core.Session `json:"recentSessions"`
}

func BuildDashboard(snap state.Snapshot, today core.Date) Dashboard {
	revenue := TotalRevenue(snap.Payments)
	outstanding := OutstandingBalance(snap.Clients)

	recent := snap.Sessions
	if len(recent) > recentSessionsLimit {
		recent = recent[:recentSessionsLimit]
	}

	return Dashboard{
		Today:              today,
		TodaySessions:      TodaySessionsCount(snap.Sessions, today),
		PendingSessions:    PendingSessionsCount(snap.Sessions),
		TotalRevenue:       revenue,
		OutstandingBalance: outstanding,
		OutstandingClients: len(OutstandingClients(snap.Clients)),
		CollectionRate:     CollectionRate(revenue, outstanding),
		Schedule:           TodaySessions(snap.Sessions, today),
		RecentSessions:     append([]core.Session{}, recent...),
	}
}
