package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
)

type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Stats(ctx context.Context) (*models.CategoryStats, error)
	Get(ctx context.Context, id models.ID) (*models.Category, error)
	Create(ctx context.Context, in models.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id models.ID, in models.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id models.ID) error
}

type categoryService struct {
	api API
}

func NewCategoryService(api API) CategoryService {
	return &categoryService{api: api}
}

func categoryPath(id models.ID) string {
	return fmt.Sprintf("/categories/%d/", id)
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	var page models.Page[models.Category]
	if err := s.api.Get(ctx, "/categories/", nil, &page); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return page.Results, nil
}

func (s *categoryService) Stats(ctx context.Context) (*models.CategoryStats, error) {
	var st models.CategoryStats
	if err := s.api.Get(ctx, "/categories/stats/", nil, &st); err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	return &st, nil
}

func (s *categoryService) Get(ctx context.Context, id models.ID) (*models.Category, error) {
	var c models.Category
	if err := s.api.Get(ctx, categoryPath(id), nil, &c); err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &c, nil
}

func validateCategory(in models.CategoryInput, partial bool) error {
	if !partial && (in.Name == nil || *in.Name == "" || in.Type == nil) {
		return invalid("name and type are required")
	}
	if in.Type != nil && !in.Type.Valid() {
		return invalid("unknown category type %q", *in.Type)
	}
	return nil
}

func (s *categoryService) Create(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	if err := validateCategory(in, false); err != nil {
		return nil, err
	}
	var c models.Category
	if err := s.api.Post(ctx, "/categories/", in, &c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *categoryService) Update(ctx context.Context, id models.ID, in models.CategoryInput) (*models.Category, error) {
	if err := validateCategory(in, true); err != nil {
		return nil, err
	}
	var c models.Category
	if err := s.api.Patch(ctx, categoryPath(id), in, &c); err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}
	return &c, nil
}

func (s *categoryService) Delete(ctx context.Context, id models.ID) error {
	if err := s.api.Delete(ctx, categoryPath(id)); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}
