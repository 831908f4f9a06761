package models

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

var ErrInvalidPeriod = errors.New("period start is after its end")

// Period is an inclusive range of calendar days.
type Period struct {
	From time.Time
	To   time.Time
}

// CurrentMonth spans the first to the last day of now's month.
func CurrentMonth(now time.Time) Period {
	y, m, _ := now.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return Period{From: first, To: first.AddDate(0, 1, -1)}
}

// ParsePeriod parses two YYYY-MM-DD dates.
func ParsePeriod(from, to string) (Period, error) {
	f, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return Period{}, fmt.Errorf("invalid start date %q: %w", from, err)
	}
	t, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return Period{}, fmt.Errorf("invalid end date %q: %w", to, err)
	}
	if f.After(t) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{From: f, To: t}, nil
}

func (p Period) IsZero() bool {
	return p.From.IsZero() && p.To.IsZero()
}

// Contains reports whether ts falls on one of the period's days, read in
// the period's time zone.
func (p Period) Contains(ts time.Time) bool {
	day := ts.In(p.From.Location()).Format(time.DateOnly)
	return day >= p.From.Format(time.DateOnly) && day <= p.To.Format(time.DateOnly)
}

// Values renders the period as date_from/date_to query parameters.
func (p Period) Values() url.Values {
	v := url.Values{}
	if !p.From.IsZero() {
		v.Set("date_from", p.From.Format(time.DateOnly))
	}
	if !p.To.IsZero() {
		v.Set("date_to", p.To.Format(time.DateOnly))
	}
	return v
}

func (p Period) String() string {
	return p.From.Format(time.DateOnly) + ".." + p.To.Format(time.DateOnly)
}
