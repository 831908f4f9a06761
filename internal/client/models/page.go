package models

import (
	"bytes"
	"encoding/json"
)

// Page is one page of a list endpoint. It decodes both the paginated
// envelope ({"results": [...], "count": n, ...}) and a bare JSON array.
type Page[T any] struct {
	Results  []T
	Count    int
	Next     string
	Previous string
}

func (p *Page[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*p = Page[T]{Results: items, Count: len(items)}
		return nil
	}

	var env struct {
		Results  []T     `json:"results"`
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}

	*p = Page[T]{Results: env.Results, Count: env.Count}
	if p.Count == 0 {
		p.Count = len(env.Results)
	}
	if env.Next != nil {
		p.Next = *env.Next
	}
	if env.Previous != nil {
		p.Previous = *env.Previous
	}
	return nil
}

// HasNext reports whether the server announced a further page.
func (p Page[T]) HasNext() bool {
	return p.Next != ""
}
