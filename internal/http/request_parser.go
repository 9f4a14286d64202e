package http

import (
	"fmt"
	"net/url"
	"strings"

	"clinic/internal/core"
	"clinic/internal/filter"
)

// listParams holds the query parameters shared by the list endpoints.
type listParams struct {
	Search   string
	Timeline filter.Timeline
	Staff    filter.StaffSet
	Date     core.Date
	Status   core.SessionStatus
	Method   string
}

// parseListParams reads q, timeline, staff, date, status and method. Unknown
// parameters are ignored; malformed known ones are errors.
func parseListParams(query url.Values) (listParams, error) {
	p := listParams{Search: sanitizeInput(query.Get("q"))}

	tl, err := filter.ParseTimeline(query.Get("timeline"))
	if err != nil {
		return p, err
	}
	p.Timeline = tl

	var ids []string
	for _, v := range query["staff"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	p.Staff = filter.NewStaffSet(ids...)

	if v := strings.TrimSpace(query.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return p, err
		}
		p.Date = d
	}

	if v := strings.TrimSpace(query.Get("status")); v != "" {
		st := core.SessionStatus(v)
		if !st.IsValid() {
			return p, fmt.Errorf("%w: %q", core.ErrInvalidSessionStatus, v)
		}
		p.Status = st
	}

	if v := strings.TrimSpace(query.Get("method")); v != "" && v != filter.MethodAll {
		if !core.PaymentMethod(v).IsValid() {
			return p, fmt.Errorf("%w: %q", core.ErrInvalidPaymentMethod, v)
		}
		p.Method = v
	}
	return p, nil
}
