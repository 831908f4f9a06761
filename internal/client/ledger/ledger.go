// Package ledger derives the chronological ledger view of a set of
// transactions: each transaction paired with the running balance right
// after it.
package ledger

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/shopspring/decimal"
)

// DefaultOpeningBalance is the balance the register starts from.
var DefaultOpeningBalance = decimal.NewFromInt(5_000_000)

// Entry is a transaction together with the balance after it was applied.
type Entry struct {
	models.Transaction
	Balance decimal.Decimal
}

// Recalculate orders txns by CreatedAt (ties keep their input order) and
// folds their signed amounts over opening. The input slice is not modified.
func Recalculate(txns []models.Transaction, opening decimal.Decimal) []Entry {
	sorted := slices.Clone(txns)
	slices.SortStableFunc(sorted, func(a, b models.Transaction) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	entries := make([]Entry, len(sorted))
	balance := opening
	for i, tx := range sorted {
		balance = balance.Add(tx.SignedAmount())
		tx.Balance = balance
		entries[i] = Entry{Transaction: tx, Balance: balance}
	}
	return entries
}

// Transactions returns the entries' transactions with Balance filled in.
func Transactions(entries []Entry) []models.Transaction {
	out := make([]models.Transaction, len(entries))
	for i, e := range entries {
		out[i] = e.Transaction
	}
	return out
}

// Summary holds the dashboard figures derived from a ledger.
type Summary struct {
	CurrentBalance decimal.Decimal
	TotalRecettes  decimal.Decimal
	// Expense totals are absolute values.
	TotalDepenses decimal.Decimal
	TodayRecettes decimal.Decimal
	TodayDepenses decimal.Decimal
	Count         int
}

// Summarize computes the dashboard figures of entries as produced by
// Recalculate. CurrentBalance is the balance of the latest entry, zero for
// an empty ledger. "Today" is now's calendar day in now's location.
func Summarize(entries []Entry, now time.Time) Summary {
	s := Summary{Count: len(entries)}
	if len(entries) > 0 {
		s.CurrentBalance = entries[len(entries)-1].Balance
	}

	today := now.Format(time.DateOnly)
	for _, e := range entries {
		amount := e.Amount.Abs()
		isToday := e.CreatedAt.In(now.Location()).Format(time.DateOnly) == today

		switch e.Type {
		case models.Recette:
			s.TotalRecettes = s.TotalRecettes.Add(amount)
			if isToday {
				s.TodayRecettes = s.TodayRecettes.Add(amount)
			}
		case models.Depense:
			s.TotalDepenses = s.TotalDepenses.Add(amount)
			if isToday {
				s.TodayDepenses = s.TodayDepenses.Add(amount)
			}
		}
	}
	return s
}

// Filter keeps the entries whose transaction falls within p. Balances are
// not recomputed.
func Filter(entries []Entry, p models.Period) []Entry {
	if p.IsZero() {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if p.Contains(e.CreatedAt) {
			out = append(out, e)
		}
	}
	return out
}
