package models

// CategoryType restricts which transactions a category applies to.
type CategoryType string

const (
	CategoryRecette CategoryType = "recette"
	CategoryDepense CategoryType = "depense"
	CategoryBoth    CategoryType = "both"
)

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryRecette, CategoryDepense, CategoryBoth:
		return true
	}
	return false
}

// Accepts reports whether a transaction of type tt may use the category.
func (t CategoryType) Accepts(tt TransactionType) bool {
	return t == CategoryBoth || string(t) == string(tt)
}

type Category struct {
	ID    ID           `json:"id"`
	Name  string       `json:"name"`
	Type  CategoryType `json:"type"`
	Color string       `json:"color"`
	Icon  string       `json:"icon"`
}

type CategoryInput struct {
	Name  *string       `json:"name,omitempty"`
	Type  *CategoryType `json:"type,omitempty"`
	Color *string       `json:"color,omitempty"`
	Icon  *string       `json:"icon,omitempty"`
}

type CategoryWithStats struct {
	Category
	TransactionCount int     `json:"transaction_count"`
	Percentage       float64 `json:"percentage"`
}

type CategoryStats struct {
	Count             int                 `json:"count"`
	TotalTransactions int                 `json:"total_transactions"`
	Categories        []CategoryWithStats `json:"categories"`
}
