package models

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

var ErrIncorrectFilter = errors.New("filter must be name=value")

// Filters are query parameters for list endpoints, built from name=value
// pairs typed on the command line.
type Filters map[string]string

// TransactionFilterKeys are the filters the transaction list understands.
var TransactionFilterKeys = []string{
	"type", "category", "author",
	"date_from", "date_to",
	"created_at_from", "created_at_to",
	"updated_at_from", "updated_at_to",
	"amount_min", "amount_max",
	"search", "page", "page_size",
}

// HistoryFilterKeys are the filters the history endpoint understands.
var HistoryFilterKeys = []string{
	"transaction_id", "action", "user_id",
	"date_from", "date_to", "page", "page_size", "all",
}

// ParseFilters turns name=value items into Filters. Names outside allowed
// are rejected; a nil allowed accepts anything.
func ParseFilters(items []string, allowed []string) (Filters, error) {
	f := make(Filters, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		if !ok || name == "" {
			return nil, ErrIncorrectFilter
		}
		if allowed != nil && !slices.Contains(allowed, name) {
			return nil, fmt.Errorf("unknown filter %q", name)
		}
		f[name] = value
	}
	return f, nil
}

// Values drops empty values and returns the rest as query parameters.
func (f Filters) Values() url.Values {
	v := url.Values{}
	for name, value := range f {
		if value != "" {
			v.Set(name, value)
		}
	}
	return v
}

// WithPeriod returns a copy with date_from/date_to taken from p unless
// already set.
func (f Filters) WithPeriod(p Period) Filters {
	out := make(Filters, len(f)+2)
	for k, v := range f {
		out[k] = v
	}
	for k, vs := range p.Values() {
		if _, ok := out[k]; !ok {
			out[k] = vs[0]
		}
	}
	return out
}
