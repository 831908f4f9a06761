package localstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/ledger"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/client/services"
	"github.com/shopspring/decimal"
)

type transactionView struct{ s *Store }

func notFound(kind string, id models.ID) error {
	return fmt.Errorf("%s %d: %w", kind, id, client.ErrNotFound)
}

// matches applies the list filters understood by the transactions endpoint.
func matches(tx models.Transaction, f models.Filters) bool {
	if t := f["type"]; t != "" && string(tx.Type) != t {
		return false
	}
	if term := strings.ToLower(f["search"]); term != "" {
		hay := strings.ToLower(tx.Description + " " + tx.Ref + " " + tx.ExporterFournisseur)
		if !strings.Contains(hay, term) {
			return false
		}
	}
	if c := f["category"]; c != "" && (tx.Category == nil || tx.Category.ID.String() != c) {
		return false
	}
	day := tx.CreatedAt.Format(time.DateOnly)
	if from := f["date_from"]; from != "" && day < from {
		return false
	}
	if to := f["date_to"]; to != "" && day > to {
		return false
	}
	return true
}

// List returns the matching transactions newest first, in a single page.
func (v transactionView) List(_ context.Context, f models.Filters) (models.Page[models.Transaction], error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(""); err != nil {
		return models.Page[models.Transaction]{}, err
	}

	out := []models.Transaction{}
	for _, tx := range v.s.transactionsLocked() {
		if matches(tx, f) {
			out = append(out, tx)
		}
	}
	slices.Reverse(out)
	return models.Page[models.Transaction]{Results: out, Count: len(out)}, nil
}

func (v transactionView) All(ctx context.Context, f models.Filters) ([]models.Transaction, error) {
	p, err := v.List(ctx, f)
	return p.Results, err
}

func (v transactionView) Get(_ context.Context, id models.ID) (*models.Transaction, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(""); err != nil {
		return nil, err
	}
	if tx := v.s.findLocked(id); tx != nil {
		return tx, nil
	}
	return nil, notFound("transaction", id)
}

// applyLocked copies the set fields of in onto tx. Expense amounts are stored
// negative.
func (s *Store) applyLocked(tx *models.Transaction, in models.TransactionInput) error {
	if in.Type != nil {
		if !in.Type.Valid() {
			return fmt.Errorf("%w: unknown transaction type %q", services.ErrInvalidInput, *in.Type)
		}
		tx.Type = *in.Type
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return fmt.Errorf("%w: amount must be positive", services.ErrInvalidInput)
		}
		tx.Amount = *in.Amount
	}
	tx.Amount = tx.SignedAmount()
	if in.Description != nil {
		tx.Description = *in.Description
	}
	if in.Ref != nil {
		tx.Ref = *in.Ref
	}
	if in.ExporterFournisseur != nil {
		tx.ExporterFournisseur = *in.ExporterFournisseur
	}
	if in.CategoryID != nil {
		c, ok := s.categoryLocked(*in.CategoryID)
		if !ok {
			return notFound("category", *in.CategoryID)
		}
		if !c.Type.Accepts(tx.Type) {
			return fmt.Errorf("%w: category %s does not accept %s", services.ErrInvalidInput, c.Name, tx.Type)
		}
		tx.Category = &c
	}
	return nil
}

func (s *Store) logLocked(tx models.Transaction, action models.HistoryAction, by *models.User, changes map[string]models.FieldChange) {
	u := *by
	entry := models.HistoryEntry{
		ID:            s.newIDLocked(),
		TransactionID: tx.ID,
		Action:        action,
		ActionDisplay: strings.ToUpper(string(action[:1])) + string(action[1:]),
		TransactionData: models.TransactionSnapshot{
			Type:                string(tx.Type),
			Description:         tx.Description,
			Amount:              tx.Amount.Abs().StringFixed(2),
			Ref:                 tx.Ref,
			ExporterFournisseur: tx.ExporterFournisseur,
			CategoryName:        tx.CategoryName(),
		},
		PerformedBy: &u,
		CreatedAt:   s.now(),
		Changes:     changes,
	}
	if tx.Category != nil {
		entry.TransactionData.CategoryID = tx.Category.ID
	}
	if tx.CreatedBy != nil {
		entry.TransactionData.CreatedByID = tx.CreatedBy.ID
		entry.TransactionData.CreatedByName = tx.CreatedBy.DisplayName()
	}
	s.history = append(s.history, entry)
}

func (v transactionView) Create(ctx context.Context, in models.TransactionInput) (*models.Transaction, error) {
	if in.Type == nil || in.Amount == nil {
		return nil, fmt.Errorf("%w: type and amount are required", services.ErrInvalidInput)
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, err := v.s.requireLocked(models.PermManageTransactions)
	if err != nil {
		return nil, err
	}

	author := *u
	tx := models.Transaction{ID: v.s.newIDLocked(), CreatedBy: &author, CreatedAt: v.s.now()}
	if err := v.s.applyLocked(&tx, in); err != nil {
		return nil, err
	}

	v.s.recalculateLocked(append(v.s.transactionsLocked(), tx))
	v.s.logLocked(tx, models.ActionCreated, u, nil)
	v.s.log.Debug(ctx, "demo transaction created", "id", tx.ID)
	return v.s.findLocked(tx.ID), nil
}

func (s *Store) findLocked(id models.ID) *models.Transaction {
	for _, e := range s.entries {
		if e.ID == id {
			tx := e.Transaction
			return &tx
		}
	}
	return nil
}

func snapshotFields(tx models.Transaction) map[string]string {
	return map[string]string{
		"type":                 string(tx.Type),
		"description":          tx.Description,
		"amount":               tx.Amount.Abs().StringFixed(2),
		"ref":                  tx.Ref,
		"exporter_fournisseur": tx.ExporterFournisseur,
		"category":             tx.CategoryName(),
	}
}

func diff(before, after models.Transaction) map[string]models.FieldChange {
	a, b := snapshotFields(before), snapshotFields(after)
	changes := map[string]models.FieldChange{}
	for k, old := range a {
		if b[k] != old {
			o, n := old, b[k]
			changes[k] = models.FieldChange{Old: &o, New: &n}
		}
	}
	return changes
}

func (v transactionView) Update(_ context.Context, id models.ID, in models.TransactionInput) (*models.Transaction, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, err := v.s.requireLocked(models.PermManageTransactions)
	if err != nil {
		return nil, err
	}

	txns := v.s.transactionsLocked()
	i := slices.IndexFunc(txns, func(tx models.Transaction) bool { return tx.ID == id })
	if i < 0 {
		return nil, notFound("transaction", id)
	}

	before := txns[i]
	tx := before
	if err := v.s.applyLocked(&tx, in); err != nil {
		return nil, err
	}
	now := v.s.now()
	modifier := *u
	tx.UpdatedAt, tx.ModifiedBy = &now, &modifier
	txns[i] = tx

	v.s.recalculateLocked(txns)
	v.s.logLocked(tx, models.ActionUpdated, u, diff(before, tx))
	return v.s.findLocked(id), nil
}

func (v transactionView) Delete(_ context.Context, id models.ID) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, err := v.s.requireLocked(models.PermManageTransactions)
	if err != nil {
		return err
	}

	txns := v.s.transactionsLocked()
	i := slices.IndexFunc(txns, func(tx models.Transaction) bool { return tx.ID == id })
	if i < 0 {
		return notFound("transaction", id)
	}
	gone := txns[i]
	v.s.recalculateLocked(slices.Delete(txns, i, i+1))
	v.s.logLocked(gone, models.ActionDeleted, u, nil)
	return nil
}

func (s *Store) periodEntriesLocked(p models.Period) []ledger.Entry {
	return ledger.Filter(s.entries, p)
}

func stats(entries []ledger.Entry, now time.Time) models.TransactionStats {
	sum := ledger.Summarize(entries, now)
	return models.TransactionStats{
		CurrentBalance:   sum.CurrentBalance,
		TotalRecettes:    sum.TotalRecettes,
		TotalDepenses:    sum.TotalDepenses,
		TransactionCount: sum.Count,
	}
}

// Stats reports the totals of the period. CurrentBalance is the running
// balance after the period's last transaction.
func (v transactionView) Stats(_ context.Context, p models.Period) (*models.TransactionStats, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(models.PermViewDashboard); err != nil {
		return nil, err
	}
	st := stats(v.s.periodEntriesLocked(p), v.s.now())
	return &st, nil
}

func (v transactionView) DashboardStats(context.Context) (*models.DashboardStats, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(models.PermViewDashboard); err != nil {
		return nil, err
	}
	sum := ledger.Summarize(v.s.entries, v.s.now())
	return &models.DashboardStats{
		TransactionStats: models.TransactionStats{
			CurrentBalance:   sum.CurrentBalance,
			TotalRecettes:    sum.TotalRecettes,
			TotalDepenses:    sum.TotalDepenses,
			TransactionCount: sum.Count,
		},
		TodayRecettes: sum.TodayRecettes,
		TodayDepenses: sum.TodayDepenses,
	}, nil
}

func (v transactionView) Analytics(_ context.Context, p models.Period) (*models.Analytics, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(models.PermViewAnalytics); err != nil {
		return nil, err
	}

	entries := v.s.periodEntriesLocked(p)
	st := stats(entries, v.s.now())
	out := &models.Analytics{
		TotalRecettes:    st.TotalRecettes,
		TotalDepenses:    st.TotalDepenses,
		CurrentBalance:   st.CurrentBalance,
		TransactionCount: st.TransactionCount,
	}
	if !p.IsZero() {
		out.DateFrom, out.DateTo = p.From.Format(time.DateOnly), p.To.Format(time.DateOnly)
	}

	byDay := map[string]int{}
	byCat := map[string]int{}
	for _, e := range entries {
		amount := e.Amount.Abs()

		d := e.CreatedAt.Format(time.DateOnly)
		i, ok := byDay[d]
		if !ok {
			i = len(out.AreaData)
			byDay[d] = i
			out.AreaData = append(out.AreaData, models.AreaPoint{Date: d})
		}

		name, color := "Divers", "#64748B"
		if e.Category != nil {
			name, color = e.Category.Name, e.Category.Color
		}
		j, ok := byCat[name]
		if !ok {
			j = len(out.CategoryData)
			byCat[name] = j
			out.CategoryData = append(out.CategoryData, models.CategorySlice{Name: name, Color: color})
		}

		slice := &out.CategoryData[j]
		slice.Value = slice.Value.Add(amount)
		if e.Type == models.Recette {
			out.AreaData[i].Recettes = out.AreaData[i].Recettes.Add(amount)
			slice.Recettes = slice.Recettes.Add(amount)
		} else {
			out.AreaData[i].Depenses = out.AreaData[i].Depenses.Add(amount)
			slice.Depenses = slice.Depenses.Add(amount)
		}
	}

	if !st.TotalRecettes.IsZero() {
		margin := st.TotalRecettes.Sub(st.TotalDepenses).Div(st.TotalRecettes).Mul(decimal.NewFromInt(100))
		out.ProfitMargin = margin.InexactFloat64()
	}
	return out, nil
}

// History returns the audit log newest first. Filters: action,
// transaction_id, user_id, date_from, date_to.
func (v transactionView) History(_ context.Context, f models.Filters) (*models.HistoryPage, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(""); err != nil {
		return nil, err
	}

	page := &models.HistoryPage{Page: 1}
	seen := map[models.ID]bool{}
	for i := len(v.s.history) - 1; i >= 0; i-- {
		h := v.s.history[i]
		if a := f["action"]; a != "" && string(h.Action) != a {
			continue
		}
		if id := f["transaction_id"]; id != "" && h.TransactionID.String() != id {
			continue
		}
		if id := f["user_id"]; id != "" && (h.PerformedBy == nil || h.PerformedBy.ID.String() != id) {
			continue
		}
		d := h.CreatedAt.Format(time.DateOnly)
		if from := f["date_from"]; from != "" && d < from {
			continue
		}
		if to := f["date_to"]; to != "" && d > to {
			continue
		}

		page.Results = append(page.Results, h)
		page.Stats.TotalActions++
		switch h.Action {
		case models.ActionCreated:
			page.Stats.CreatedCount++
		case models.ActionUpdated:
			page.Stats.UpdatedCount++
		case models.ActionDeleted:
			page.Stats.DeletedCount++
		}
		amount, _ := decimal.NewFromString(h.TransactionData.Amount)
		if h.TransactionData.Type == string(models.Recette) {
			page.Stats.TotalRecettes = page.Stats.TotalRecettes.Add(amount)
		} else {
			page.Stats.TotalDepenses = page.Stats.TotalDepenses.Add(amount)
		}
		if p := h.PerformedBy; p != nil && !seen[p.ID] {
			seen[p.ID] = true
			page.Users = append(page.Users, models.HistoryUser{ID: p.ID, Name: p.Name, Email: p.Email})
		}
	}
	page.Count = len(page.Results)
	page.PageSize = page.Count
	return page, nil
}
