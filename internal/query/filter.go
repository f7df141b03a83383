package query

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format accepted for date bounds.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD day at midnight UTC. An empty string
// returns nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}

// WithDates returns o bounded to messages on or after the day after and
// strictly before the day before. Nil days leave that side unbounded.
func (o ExportOptions) WithDates(after, before *time.Time) ExportOptions {
	if after != nil {
		start := after.Unix()
		o.StartDate = &start
	}
	if before != nil {
		end := before.Unix() - 1
		o.EndDate = &end
	}
	return o
}
