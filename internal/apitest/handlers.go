package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/ledger"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type userKey struct{}

func withUser(ctx context.Context, id models.ID) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

func userFrom(ctx context.Context) models.ID {
	id, _ := ctx.Value(userKey{}).(models.ID)
	return id
}

func pathID(r *http.Request) (models.ID, bool) {
	id, err := models.ParseID(chi.URLParam(r, "id"))
	return id, err == nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.accounts {
		if a.user.Email != req.Email || a.password != req.Password {
			continue
		}
		if a.user.Status == models.StatusInactive {
			writeError(w, http.StatusForbidden, "Compte désactivé")
			return
		}
		access, refresh := s.issueLocked(id)
		writeJSON(w, http.StatusOK, models.LoginResponse{Access: access, Refresh: refresh, User: a.user})
		return
	}
	writeError(w, http.StatusUnauthorized, "Email ou mot de passe incorrect")
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	s.mu.Lock()
	gate := s.refreshGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	var req struct {
		Refresh string `json:"refresh"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "Refresh token requis")
		return
	}
	if s.failRefresh.Load() {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	c, ok := s.parse(req.Refresh, "refresh")
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || s.revoked[req.Refresh] {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	access, _ := s.issueLocked(models.ID(c.UserID))
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Déconnexion réussie"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userFrom(r.Context())]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Utilisateur introuvable")
		return
	}
	writeJSON(w, http.StatusOK, a.user)
}

// users

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, a.user)
	}
	slices.SortFunc(users, func(a, b models.User) int { return int(a.ID - b.ID) })
	// users come back as a bare array, the other lists as pages
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if !decode(w, r, &in) {
		return
	}
	if in.Email == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"Ce champ est obligatoire."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := s.now()
	u := models.User{ID: s.nextID, Email: in.Email, Name: in.Name, Role: in.Role, Status: in.Status, CreatedAt: &now}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	s.accounts[u.ID] = &account{user: u, password: in.Password}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) withAccount(w http.ResponseWriter, r *http.Request, fn func(*account)) {
	id, ok := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.accounts[id]
	if !ok || !found {
		writeDetail(w, http.StatusNotFound, "Non trouvé.")
		return
	}
	fn(a)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.withAccount(w, r, func(a *account) { writeJSON(w, http.StatusOK, a.user) })
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if !decode(w, r, &in) {
		return
	}
	s.withAccount(w, r, func(a *account) {
		if in.Name != "" {
			a.user.Name = in.Name
		}
		if in.Role != "" {
			a.user.Role = in.Role
		}
		if in.Status != "" {
			a.user.Status = in.Status
		}
		writeJSON(w, http.StatusOK, a.user)
	})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.withAccount(w, r, func(a *account) {
		delete(s.accounts, a.user.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.withAccount(w, r, func(a *account) {
		if len(in.Password) < 8 {
			writeError(w, http.StatusBadRequest, "Le mot de passe doit contenir au moins 8 caractères")
			return
		}
		a.password = in.Password
		writeJSON(w, http.StatusOK, map[string]string{"message": "Mot de passe modifié avec succès"})
	})
}

func (s *Server) toggleStatus(w http.ResponseWriter, r *http.Request) {
	s.withAccount(w, r, func(a *account) {
		if a.user.Status == models.StatusActive {
			a.user.Status = models.StatusInactive
		} else {
			a.user.Status = models.StatusActive
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(a.user.Status)})
	})
}

// categories

func (s *Server) sortedCategoriesLocked() []models.Category {
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Category) int { return int(a.ID - b.ID) })
	return out
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writePage(w, s.sortedCategoriesLocked(), r.URL.Query())
}

func (s *Server) categoryStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[models.ID]int{}
	for _, tx := range s.transactions {
		if tx.Category != nil {
			counts[tx.Category.ID]++
		}
	}
	resp := models.CategoryStats{TotalTransactions: len(s.transactions)}
	for _, c := range s.sortedCategoriesLocked() {
		cs := models.CategoryWithStats{Category: c, TransactionCount: counts[c.ID]}
		if len(s.transactions) > 0 {
			cs.Percentage = float64(cs.TransactionCount) * 100 / float64(len(s.transactions))
		}
		resp.Categories = append(resp.Categories, cs)
	}
	resp.Count = len(resp.Categories)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	if in.Name == nil || *in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"Ce champ est obligatoire."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := models.Category{ID: s.nextID}
	applyCategory(&c, in)
	s.categories[c.ID] = c
	writeJSON(w, http.StatusCreated, c)
}

func applyCategory(c *models.Category, in models.CategoryInput) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Type != nil {
		c.Type = *in.Type
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	if in.Icon != nil {
		c.Icon = *in.Icon
	}
}

func (s *Server) withCategory(w http.ResponseWriter, r *http.Request, fn func(models.Category)) {
	id, ok := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.categories[id]
	if !ok || !found {
		writeDetail(w, http.StatusNotFound, "Non trouvé.")
		return
	}
	fn(c)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	s.withCategory(w, r, func(c models.Category) { writeJSON(w, http.StatusOK, c) })
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	s.withCategory(w, r, func(c models.Category) {
		applyCategory(&c, in)
		s.categories[c.ID] = c
		writeJSON(w, http.StatusOK, c)
	})
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.withCategory(w, r, func(c models.Category) {
		delete(s.categories, c.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

// transactions

// ledgerLocked returns all transactions in chronological order with their
// balances. The backend's balances start from zero.
func (s *Server) ledgerLocked() []models.Transaction {
	all := make([]models.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		all = append(all, tx)
	}
	slices.SortFunc(all, func(a, b models.Transaction) int { return int(a.ID - b.ID) })
	return ledger.Transactions(ledger.Recalculate(all, decimal.Zero))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Transaction
	for _, tx := range s.ledgerLocked() {
		if t := q.Get("type"); t != "" && string(tx.Type) != t {
			continue
		}
		if term := q.Get("search"); term != "" && !strings.Contains(strings.ToLower(tx.Description+" "+tx.Ref), strings.ToLower(term)) {
			continue
		}
		if !inDateRange(tx.CreatedAt, q) {
			continue
		}
		out = append(out, tx)
	}
	// newest first like the real endpoint
	slices.Reverse(out)
	writePage(w, out, q)
}

func inDateRange(ts time.Time, q url.Values) bool {
	day := ts.Format(time.DateOnly)
	if from := q.Get("date_from"); from != "" && day < from {
		return false
	}
	if to := q.Get("date_to"); to != "" && day > to {
		return false
	}
	return true
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in models.TransactionInput
	if !decode(w, r, &in) {
		return
	}
	if in.Type == nil || !in.Type.Valid() || in.Amount == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"amount": {"Ce champ est obligatoire."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	author := s.accounts[userFrom(r.Context())]
	tx := models.Transaction{ID: s.nextID, CreatedAt: s.now().UTC()}
	if author != nil {
		u := author.user
		tx.CreatedBy = &u
	}
	s.applyTransactionLocked(&tx, in)
	s.transactions[tx.ID] = tx
	s.logHistoryLocked(tx, models.ActionCreated, r)

	for _, withBalance := range s.ledgerLocked() {
		if withBalance.ID == tx.ID {
			writeJSON(w, http.StatusCreated, withBalance)
			return
		}
	}
}

func (s *Server) applyTransactionLocked(tx *models.Transaction, in models.TransactionInput) {
	if in.Type != nil {
		tx.Type = *in.Type
	}
	if in.Amount != nil {
		tx.Amount = *in.Amount
	}
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
		if c, ok := s.categories[*in.CategoryID]; ok {
			tx.Category = &c
		} else {
			tx.Category = nil
		}
	}
}

func (s *Server) logHistoryLocked(tx models.Transaction, action models.HistoryAction, r *http.Request) {
	s.nextID++
	entry := models.HistoryEntry{
		ID:            s.nextID,
		TransactionID: tx.ID,
		Action:        action,
		ActionDisplay: strings.ToUpper(string(action[:1])) + string(action[1:]),
		TransactionData: models.TransactionSnapshot{
			Type:         string(tx.Type),
			Description:  tx.Description,
			Amount:       tx.Amount.StringFixed(2),
			Ref:          tx.Ref,
			CategoryName: tx.CategoryName(),
		},
		CreatedAt: s.now().UTC(),
	}
	if a := s.accounts[userFrom(r.Context())]; a != nil {
		u := a.user
		entry.PerformedBy = &u
	}
	s.history = append(s.history, entry)
}

func (s *Server) withTransaction(w http.ResponseWriter, r *http.Request, fn func(models.Transaction)) {
	id, ok := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Non trouvé.")
		return
	}
	for _, tx := range s.ledgerLocked() {
		if tx.ID == id {
			fn(tx)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Non trouvé.")
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	s.withTransaction(w, r, func(tx models.Transaction) { writeJSON(w, http.StatusOK, tx) })
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var in models.TransactionInput
	if !decode(w, r, &in) {
		return
	}
	s.withTransaction(w, r, func(tx models.Transaction) {
		s.applyTransactionLocked(&tx, in)
		now := s.now().UTC()
		tx.UpdatedAt = &now
		if a := s.accounts[userFrom(r.Context())]; a != nil {
			u := a.user
			tx.ModifiedBy = &u
		}
		s.transactions[tx.ID] = tx
		s.logHistoryLocked(tx, models.ActionUpdated, r)
		writeJSON(w, http.StatusOK, tx)
	})
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.withTransaction(w, r, func(tx models.Transaction) {
		delete(s.transactions, tx.ID)
		s.logHistoryLocked(tx, models.ActionDeleted, r)
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) totalsLocked(q url.Values) (rec, dep decimal.Decimal, count int) {
	for _, tx := range s.transactions {
		if !inDateRange(tx.CreatedAt, q) {
			continue
		}
		count++
		if tx.Type == models.Recette {
			rec = rec.Add(tx.Amount.Abs())
		} else {
			dep = dep.Add(tx.Amount.Abs())
		}
	}
	return rec, dep, count
}

func (s *Server) transactionStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, dep, n := s.totalsLocked(r.URL.Query())
	writeJSON(w, http.StatusOK, models.TransactionStats{
		CurrentBalance:   rec.Sub(dep),
		TotalRecettes:    rec,
		TotalDepenses:    dep,
		TransactionCount: n,
	})
}

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, dep, n := s.totalsLocked(url.Values{})
	today := s.now().UTC().Format(time.DateOnly)
	tRec, tDep, _ := s.totalsLocked(url.Values{"date_from": {today}, "date_to": {today}})
	writeJSON(w, http.StatusOK, models.DashboardStats{
		TransactionStats: models.TransactionStats{
			CurrentBalance:   rec.Sub(dep),
			TotalRecettes:    rec,
			TotalDepenses:    dep,
			TransactionCount: n,
		},
		TodayRecettes: tRec,
		TodayDepenses: tDep,
	})
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, dep, n := s.totalsLocked(q)
	byDay := map[string]*models.AreaPoint{}
	for _, tx := range s.transactions {
		if !inDateRange(tx.CreatedAt, q) {
			continue
		}
		day := tx.CreatedAt.Format(time.DateOnly)
		p, ok := byDay[day]
		if !ok {
			p = &models.AreaPoint{Date: day}
			byDay[day] = p
		}
		if tx.Type == models.Recette {
			p.Recettes = p.Recettes.Add(tx.Amount.Abs())
		} else {
			p.Depenses = p.Depenses.Add(tx.Amount.Abs())
		}
	}

	resp := models.Analytics{
		TotalRecettes:    rec,
		TotalDepenses:    dep,
		CurrentBalance:   rec.Sub(dep),
		TransactionCount: n,
		DateFrom:         q.Get("date_from"),
		DateTo:           q.Get("date_to"),
	}
	for _, p := range byDay {
		resp.AreaData = append(resp.AreaData, *p)
	}
	slices.SortFunc(resp.AreaData, func(a, b models.AreaPoint) int { return strings.Compare(a.Date, b.Date) })
	if !rec.IsZero() {
		resp.ProfitMargin = rec.Sub(dep).Div(rec).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	defer s.mu.Unlock()

	page := models.HistoryPage{Page: 1, PageSize: 20}
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		if a := q.Get("action"); a != "" && string(h.Action) != a {
			continue
		}
		if id := q.Get("transaction_id"); id != "" && h.TransactionID.String() != id {
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
	}
	page.Count = len(page.Results)
	writeJSON(w, http.StatusOK, page)
}

type pageBody[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// writePage slices items according to page/page_size and writes the
// paginated envelope.
func writePage[T any](w http.ResponseWriter, items []T, q url.Values) {
	size, _ := strconv.Atoi(q.Get("page_size"))
	if size <= 0 {
		size = 20
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}

	body := pageBody[T]{Count: len(items), Results: []T{}}
	start := (page - 1) * size
	if start < len(items) {
		end := min(start+size, len(items))
		body.Results = items[start:end]
	}
	if start+size < len(items) {
		next := fmt.Sprintf("?page=%d&page_size=%d", page+1, size)
		body.Next = &next
	}
	if page > 1 {
		prev := fmt.Sprintf("?page=%d&page_size=%d", page-1, size)
		body.Previous = &prev
	}
	writeJSON(w, http.StatusOK, body)
}
