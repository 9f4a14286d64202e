package stats

import (
	"sort"

	"clinic/internal/core"
)

// StaffSummary pairs a staff member's stored counters with figures derived
// from session history. The stored counters are never rewritten.
type StaffSummary struct {
	Staff              core.Staff `json:"staff"`
	AveragePerSession  core.Money `json:"averagePerSession"`
	CompletedSessions  int        `json:"completedSessions"`
	ScheduledSessions  int        `json:"scheduledSessions"`
	ProjectedEarnings  core.Money `json:"projectedEarnings"`
	CompletedFeeVolume core.Money `json:"completedFeeVolume"`
}

// StaffRollup summarizes each staff member in collection order. Projected
// earnings apply the member's compensation rule to each completed session.
func StaffRollup(staff []core.Staff, sessions []core.Session) []StaffSummary {
	out := make([]StaffSummary, 0, len(staff))
	for _, m := range staff {
		sum := StaffSummary{Staff: m, AveragePerSession: AverageEarningsPerSession(m)}
		for _, s := range sessions {
			if s.StaffID != m.ID {
				continue
			}
			switch s.Status {
			case core.StatusCompleted:
				sum.CompletedSessions++
				sum.CompletedFeeVolume = sum.CompletedFeeVolume.Add(s.Fee)
				sum.ProjectedEarnings = sum.ProjectedEarnings.Add(m.EarningsFor(s.Fee))
			case core.StatusScheduled, core.StatusPending:
				sum.ScheduledSessions++
			}
		}
		out = append(out, sum)
	}
	return out
}

// MonthRevenue is the payment total of one calendar month.
type MonthRevenue struct {
	Month    string     `json:"month"` // YYYY-MM
	Total    core.Money `json:"total"`
	Payments int        `json:"payments"`
}

// MonthlyRevenue buckets payments by month, oldest first.
func MonthlyRevenue(payments []core.Payment) []MonthRevenue {
	buckets := map[string]*MonthRevenue{}
	for _, p := range payments {
		key := p.Date.MonthKey()
		b, ok := buckets[key]
		if !ok {
			b = &MonthRevenue{Month: key}
			buckets[key] = b
		}
		b.Total = b.Total.Add(p.Amount)
		b.Payments++
	}
	out := make([]MonthRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
