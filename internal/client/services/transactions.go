package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
)

// maxPages bounds All when the server keeps announcing a next page.
const maxPages = 500

// TransactionService wraps the /transactions/ endpoints.
type TransactionService interface {
	List(ctx context.Context, f models.Filters) (models.Page[models.Transaction], error)
	// All follows pagination and returns every transaction matching f.
	All(ctx context.Context, f models.Filters) ([]models.Transaction, error)
	Get(ctx context.Context, id models.ID) (*models.Transaction, error)
	Create(ctx context.Context, in models.TransactionInput) (*models.Transaction, error)
	Update(ctx context.Context, id models.ID, in models.TransactionInput) (*models.Transaction, error)
	Delete(ctx context.Context, id models.ID) error
	Stats(ctx context.Context, p models.Period) (*models.TransactionStats, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	Analytics(ctx context.Context, p models.Period) (*models.Analytics, error)
	History(ctx context.Context, f models.Filters) (*models.HistoryPage, error)
}

type transactionService struct {
	api API
}

func NewTransactionService(api API) TransactionService {
	return &transactionService{api: api}
}

func transactionPath(id models.ID) string {
	return fmt.Sprintf("/transactions/%d/", id)
}

func (s *transactionService) List(ctx context.Context, f models.Filters) (models.Page[models.Transaction], error) {
	var page models.Page[models.Transaction]
	if err := s.api.Get(ctx, "/transactions/", f.Values(), &page); err != nil {
		return page, fmt.Errorf("list transactions: %w", err)
	}
	return page, nil
}

func (s *transactionService) All(ctx context.Context, f models.Filters) ([]models.Transaction, error) {
	var all []models.Transaction
	q := f.Values()
	for page := 1; page <= maxPages; page++ {
		q.Set("page", fmt.Sprint(page))

		var p models.Page[models.Transaction]
		if err := s.api.Get(ctx, "/transactions/", q, &p); err != nil {
			return nil, fmt.Errorf("list transactions page %d: %w", page, err)
		}
		all = append(all, p.Results...)
		if !p.HasNext() || len(p.Results) == 0 {
			return all, nil
		}
	}
	return all, nil
}

func (s *transactionService) Get(ctx context.Context, id models.ID) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.api.Get(ctx, transactionPath(id), nil, &tx); err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return &tx, nil
}

func validateTransaction(in models.TransactionInput, partial bool) error {
	if !partial && (in.Type == nil || in.Amount == nil) {
		return invalid("type and amount are required")
	}
	if in.Type != nil && !in.Type.Valid() {
		return invalid("unknown transaction type %q", *in.Type)
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return invalid("amount must be positive")
	}
	return nil
}

func (s *transactionService) Create(ctx context.Context, in models.TransactionInput) (*models.Transaction, error) {
	if err := validateTransaction(in, false); err != nil {
		return nil, err
	}
	var tx models.Transaction
	if err := s.api.Post(ctx, "/transactions/", in, &tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return &tx, nil
}

func (s *transactionService) Update(ctx context.Context, id models.ID, in models.TransactionInput) (*models.Transaction, error) {
	if err := validateTransaction(in, true); err != nil {
		return nil, err
	}
	var tx models.Transaction
	if err := s.api.Patch(ctx, transactionPath(id), in, &tx); err != nil {
		return nil, fmt.Errorf("update transaction %d: %w", id, err)
	}
	return &tx, nil
}

func (s *transactionService) Delete(ctx context.Context, id models.ID) error {
	if err := s.api.Delete(ctx, transactionPath(id)); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

func (s *transactionService) Stats(ctx context.Context, p models.Period) (*models.TransactionStats, error) {
	var st models.TransactionStats
	if err := s.api.Get(ctx, "/transactions/stats/", p.Values(), &st); err != nil {
		return nil, fmt.Errorf("transaction stats: %w", err)
	}
	return &st, nil
}

func (s *transactionService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var st models.DashboardStats
	if err := s.api.Get(ctx, "/transactions/dashboard-stats/", nil, &st); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &st, nil
}

func (s *transactionService) Analytics(ctx context.Context, p models.Period) (*models.Analytics, error) {
	var a models.Analytics
	if err := s.api.Get(ctx, "/transactions/analytics/", p.Values(), &a); err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	return &a, nil
}

func (s *transactionService) History(ctx context.Context, f models.Filters) (*models.HistoryPage, error) {
	var h models.HistoryPage
	if err := s.api.Get(ctx, "/transactions/history/", f.Values(), &h); err != nil {
		return nil, fmt.Errorf("transaction history: %w", err)
	}
	return &h, nil
}
