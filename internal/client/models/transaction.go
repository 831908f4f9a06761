package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a cash movement.
type TransactionType string

const (
	// Recette is a receipt: money coming into the register.
	Recette TransactionType = "recette"
	// Depense is an expense: money leaving the register.
	Depense TransactionType = "depense"
)

func (t TransactionType) Valid() bool {
	return t == Recette || t == Depense
}

type Transaction struct {
	ID                  ID              `json:"id"`
	Type                TransactionType `json:"type"`
	Description         string          `json:"description,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	Ref                 string          `json:"ref,omitempty"`
	ExporterFournisseur string          `json:"exporter_fournisseur,omitempty"`
	Category            *Category       `json:"category,omitempty"`
	// Balance is the running balance right after this transaction.
	Balance    decimal.Decimal `json:"balance"`
	CreatedBy  *User           `json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	ModifiedBy *User           `json:"modified_by,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// SignedAmount returns the amount with the sign implied by the type:
// positive for receipts, negative for expenses. The stored amount may carry
// either sign.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Depense {
		return t.Amount.Abs().Neg()
	}
	return t.Amount.Abs()
}

// CategoryName returns the category name or "" when uncategorised.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

// TransactionInput is the create/update payload. Nil fields are left out,
// which makes the same type usable for partial updates.
type TransactionInput struct {
	Type                *TransactionType `json:"type,omitempty"`
	Description         *string          `json:"description,omitempty"`
	Amount              *decimal.Decimal `json:"amount,omitempty"`
	Ref                 *string          `json:"ref,omitempty"`
	ExporterFournisseur *string          `json:"exporter_fournisseur,omitempty"`
	CategoryID          *ID              `json:"category_id,omitempty"`
}

// HistoryAction is what happened to a transaction in the audit log.
type HistoryAction string

const (
	ActionCreated HistoryAction = "created"
	ActionUpdated HistoryAction = "updated"
	ActionDeleted HistoryAction = "deleted"
)

type FieldChange struct {
	Old *string `json:"old"`
	New *string `json:"new"`
}

// TransactionSnapshot is the state of a transaction recorded with a history
// entry.
type TransactionSnapshot struct {
	Type                string `json:"type"`
	Description         string `json:"description,omitempty"`
	Amount              string `json:"amount"`
	Ref                 string `json:"ref,omitempty"`
	ExporterFournisseur string `json:"exporter_fournisseur,omitempty"`
	CategoryID          ID     `json:"category_id,omitempty"`
	CategoryName        string `json:"category_name,omitempty"`
	CreatedByID         ID     `json:"created_by_id,omitempty"`
	CreatedByName       string `json:"created_by_name,omitempty"`
}

type HistoryEntry struct {
	ID              ID                     `json:"id"`
	TransactionID   ID                     `json:"transaction_id"`
	Action          HistoryAction          `json:"action"`
	ActionDisplay   string                 `json:"action_display"`
	TransactionData TransactionSnapshot    `json:"transaction_data"`
	PerformedBy     *User                  `json:"performed_by,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	Changes         map[string]FieldChange `json:"changes,omitempty"`
}

type HistoryStats struct {
	TotalActions  int             `json:"total_actions"`
	CreatedCount  int             `json:"created_count"`
	UpdatedCount  int             `json:"updated_count"`
	DeletedCount  int             `json:"deleted_count"`
	TotalRecettes decimal.Decimal `json:"total_recettes"`
	TotalDepenses decimal.Decimal `json:"total_depenses"`
}

type HistoryUser struct {
	ID    ID     `json:"performed_by__id"`
	Name  string `json:"performed_by__name"`
	Email string `json:"performed_by__email"`
}

// HistoryPage is the response of the history endpoint.
type HistoryPage struct {
	Results  []HistoryEntry `json:"results"`
	Count    int            `json:"count"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Stats    HistoryStats   `json:"stats"`
	Users    []HistoryUser  `json:"users"`
}
