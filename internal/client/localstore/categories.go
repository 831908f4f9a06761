package localstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/client/services"
)

type categoryView struct{ s *Store }

func (v categoryView) List(context.Context) ([]models.Category, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(""); err != nil {
		return nil, err
	}
	return slices.Clone(v.s.categories), nil
}

func (v categoryView) Stats(context.Context) (*models.CategoryStats, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(""); err != nil {
		return nil, err
	}

	counts := map[models.ID]int{}
	for _, e := range v.s.entries {
		if e.Category != nil {
			counts[e.Category.ID]++
		}
	}
	total := len(v.s.entries)
	out := &models.CategoryStats{Count: len(v.s.categories), TotalTransactions: total}
	for _, c := range v.s.categories {
		cs := models.CategoryWithStats{Category: c, TransactionCount: counts[c.ID]}
		if total > 0 {
			cs.Percentage = float64(cs.TransactionCount) * 100 / float64(total)
		}
		out.Categories = append(out.Categories, cs)
	}
	return out, nil
}

func (v categoryView) Get(_ context.Context, id models.ID) (*models.Category, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(""); err != nil {
		return nil, err
	}
	c, ok := v.s.categoryLocked(id)
	if !ok {
		return nil, notFound("category", id)
	}
	return &c, nil
}

func applyCategory(c *models.Category, in models.CategoryInput) error {
	if in.Type != nil && !in.Type.Valid() {
		return fmt.Errorf("%w: unknown category type %q", services.ErrInvalidInput, *in.Type)
	}
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
	return nil
}

func (v categoryView) Create(_ context.Context, in models.CategoryInput) (*models.Category, error) {
	if in.Name == nil || *in.Name == "" || in.Type == nil {
		return nil, fmt.Errorf("%w: name and type are required", services.ErrInvalidInput)
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, err := v.s.requireLocked(models.PermManageCategories); err != nil {
		return nil, err
	}

	var maxID models.ID
	for _, c := range v.s.categories {
		maxID = max(maxID, c.ID)
	}
	c := models.Category{ID: maxID + 1}
	if err := applyCategory(&c, in); err != nil {
		return nil, err
	}
	v.s.categories = append(v.s.categories, c)
	return &c, nil
}

func (v categoryView) Update(_ context.Context, id models.ID, in models.CategoryInput) (*models.Category, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, err := v.s.requireLocked(models.PermManageCategories); err != nil {
		return nil, err
	}

	i := slices.IndexFunc(v.s.categories, func(c models.Category) bool { return c.ID == id })
	if i < 0 {
		return nil, notFound("category", id)
	}
	c := v.s.categories[i]
	if err := applyCategory(&c, in); err != nil {
		return nil, err
	}
	v.s.categories[i] = c
	return &c, nil
}

// Delete removes the category. Transactions keep their copy of it.
func (v categoryView) Delete(_ context.Context, id models.ID) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, err := v.s.requireLocked(models.PermManageCategories); err != nil {
		return err
	}

	i := slices.IndexFunc(v.s.categories, func(c models.Category) bool { return c.ID == id })
	if i < 0 {
		return notFound("category", id)
	}
	v.s.categories = slices.Delete(v.s.categories, i, i+1)
	return nil
}
