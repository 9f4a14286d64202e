package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clinic/internal/core"
)

var ErrInvalidTimeline = errors.New("invalid timeline")

type timelineKind int

const (
	kindAll timelineKind = iota
	kindCurrentMonth
	kindMonth
	kindLastMonths
)

// Timeline is a calendar-month bucket over a date field. The zero value is
// AllTime.
type Timeline struct {
	kind   timelineKind
	year   int
	month  int
	months int
}

var AllTime = Timeline{}

// CurrentMonth matches dates in the same year and month as today.
func CurrentMonth() Timeline { return Timeline{kind: kindCurrentMonth} }

// Month matches one explicit calendar month.
func Month(year, month int) Timeline {
	return Timeline{kind: kindMonth, year: year, month: month}
}

// LastMonths matches the current month and the n-1 months before it.
func LastMonths(n int) Timeline {
	if n < 1 {
		n = 1
	}
	return Timeline{kind: kindLastMonths, months: n}
}

// ParseTimeline accepts "all", "current-month", "YYYY-MM" or "last-N-months".
// An empty string means all time.
func ParseTimeline(s string) (Timeline, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all", "all-time":
		return AllTime, nil
	case "current-month":
		return CurrentMonth(), nil
	}

	if rest, ok := strings.CutPrefix(s, "last-"); ok {
		if n, ok := strings.CutSuffix(rest, "-months"); ok {
			months, err := strconv.Atoi(n)
			if err != nil || months < 1 {
				return AllTime, fmt.Errorf("%w: %q", ErrInvalidTimeline, s)
			}
			return LastMonths(months), nil
		}
	}

	t, err := time.Parse("2006-01", s)
	if err != nil {
		return AllTime, fmt.Errorf("%w: %q", ErrInvalidTimeline, s)
	}
	return Month(t.Year(), int(t.Month())), nil
}

func monthIndex(year, month int) int { return year*12 + month - 1 }

// Contains reports whether d falls inside the bucket, relative to today.
func (t Timeline) Contains(d, today core.Date) bool {
	switch t.kind {
	case kindCurrentMonth:
		return d.SameMonth(today)
	case kindMonth:
		return d.Year() == t.year && d.Month() == t.month
	case kindLastMonths:
		idx := monthIndex(d.Year(), d.Month())
		cur := monthIndex(today.Year(), today.Month())
		return idx <= cur && idx > cur-t.months
	default:
		return true
	}
}

func (t Timeline) IsAllTime() bool { return t.kind == kindAll }

func (t Timeline) String() string {
	switch t.kind {
	case kindCurrentMonth:
		return "current-month"
	case kindMonth:
		return fmt.Sprintf("%04d-%02d", t.year, t.month)
	case kindLastMonths:
		return fmt.Sprintf("last-%d-months", t.months)
	default:
		return "all"
	}
}
