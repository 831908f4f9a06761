package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalNumberAndString(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 7, "b": "42", "c": null}`), &v))
	assert.Equal(t, ID(7), v.A)
	assert.Equal(t, ID(42), v.B)
	assert.Equal(t, ID(0), v.C)

	var bad ID
	require.Error(t, json.Unmarshal([]byte(`"x1"`), &bad))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("12")
	require.NoError(t, err)
	assert.Equal(t, "12", id.String())

	for _, s := range []string{"", "0", "-1", "abc"} {
		_, err := ParseID(s)
		assert.Error(t, err, s)
	}
}

func TestTransaction_DecodesAPIShape(t *testing.T) {
	body := `{
		"id": 3,
		"type": "depense",
		"description": null,
		"amount": "1500.50",
		"ref": "DEP-001",
		"exporter_fournisseur": "Fournisseur XYZ",
		"category": {"id": 4, "name": "Fournitures", "type": "depense", "color": "#F59E0B", "icon": "Package"},
		"balance": 98499.5,
		"created_by": {"id": 1, "email": "admin@cashtrack.com", "name": "Admin User", "role": "admin"},
		"created_at": "2024-03-01T10:15:00Z"
	}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &tx))

	assert.Equal(t, ID(3), tx.ID)
	assert.Equal(t, Depense, tx.Type)
	assert.Empty(t, tx.Description)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1500.50")))
	assert.True(t, tx.Balance.Equal(decimal.RequireFromString("98499.5")))
	assert.Equal(t, "Fournitures", tx.CategoryName())
	assert.Equal(t, "Admin User", tx.CreatedBy.DisplayName())
	assert.Nil(t, tx.UpdatedAt)
}

func TestTransaction_SignedAmount(t *testing.T) {
	amt := decimal.NewFromInt(250)
	assert.True(t, Transaction{Type: Recette, Amount: amt}.SignedAmount().Equal(amt))
	assert.True(t, Transaction{Type: Depense, Amount: amt}.SignedAmount().Equal(amt.Neg()))
	// already negative expenses stay negative
	assert.True(t, Transaction{Type: Depense, Amount: amt.Neg()}.SignedAmount().Equal(amt.Neg()))
}

func TestTransactionInput_OmitsNilFields(t *testing.T) {
	desc := "Loyer"
	b, err := json.Marshal(TransactionInput{Description: &desc})
	require.NoError(t, err)
	assert.JSONEq(t, `{"description": "Loyer"}`, string(b))
}

func TestPage_Envelope(t *testing.T) {
	var p Page[Category]
	require.NoError(t, json.Unmarshal([]byte(`{
		"count": 12,
		"next": "http://x/api/categories/?page=2",
		"previous": null,
		"results": [{"id": 1, "name": "Ventes", "type": "recette"}]
	}`), &p))

	assert.Equal(t, 12, p.Count)
	assert.True(t, p.HasNext())
	assert.Empty(t, p.Previous)
	require.Len(t, p.Results, 1)
	assert.Equal(t, "Ventes", p.Results[0].Name)
}

func TestPage_BareArray(t *testing.T) {
	var p Page[Category]
	require.NoError(t, json.Unmarshal([]byte(` [{"id": 1}, {"id": 2}]`), &p))

	assert.Equal(t, 2, p.Count)
	assert.False(t, p.HasNext())
}

func TestPage_EnvelopeWithoutCount(t *testing.T) {
	var p Page[Category]
	require.NoError(t, json.Unmarshal([]byte(`{"results": [{"id": 1}]}`), &p))
	assert.Equal(t, 1, p.Count)
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleAdmin.Can(PermManageUsers))
	assert.True(t, RoleUser.Can(PermManageTransactions))
	assert.False(t, RoleUser.Can(PermManageCategories))
	assert.False(t, RoleReadonly.Can(PermManageTransactions))
	assert.True(t, RoleReadonly.Can(PermViewReports))
	assert.False(t, Role("guest").Can(PermViewDashboard))

	su := User{Role: RoleReadonly, IsSuperuser: true}
	assert.True(t, su.Can(PermManageUsers))
	assert.True(t, su.IsAdmin())

	perms := RoleUser.Permissions()
	perms[0] = "mutated"
	assert.Equal(t, PermViewDashboard, RoleUser.Permissions()[0])
}

func TestCategoryType_Accepts(t *testing.T) {
	assert.True(t, CategoryBoth.Accepts(Recette))
	assert.True(t, CategoryDepense.Accepts(Depense))
	assert.False(t, CategoryDepense.Accepts(Recette))
}

func TestCurrentMonth(t *testing.T) {
	p := CurrentMonth(time.Date(2024, 2, 17, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01..2024-02-29", p.String())

	p = CurrentMonth(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2023-12-01..2023-12-31", p.String())
}

func TestPeriod_ContainsUsesPeriodZone(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	p := CurrentMonth(time.Date(2026, 11, 10, 9, 0, 0, 0, zone))

	assert.True(t, p.Contains(time.Date(2026, 10, 31, 23, 30, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 11, 30, 22, 30, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2026, 11, 30, 21, 30, 0, 0, time.UTC)))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", p.Values().Get("date_from"))
	assert.Equal(t, "2024-01-31", p.Values().Get("date_to"))
	assert.True(t, p.Contains(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	_, err = ParsePeriod("2024-02-01", "2024-01-01")
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = ParsePeriod("01/02/2024", "2024-01-01")
	require.Error(t, err)
}

func TestParseFilters(t *testing.T) {
	f, err := ParseFilters([]string{"type=recette", "search=a=b", "amount_min="}, TransactionFilterKeys)
	require.NoError(t, err)

	want := Filters{"type": "recette", "search": "a=b", "amount_min": ""}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("filters mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "", f.Values().Get("amount_min"))
	assert.Equal(t, "a=b", f.Values().Get("search"))

	_, err = ParseFilters([]string{"justname"}, nil)
	require.ErrorIs(t, err, ErrIncorrectFilter)

	_, err = ParseFilters([]string{"colour=red"}, TransactionFilterKeys)
	require.Error(t, err)
}

func TestFilters_WithPeriodKeepsExplicitDates(t *testing.T) {
	p, err := ParsePeriod("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	f := Filters{"date_from": "2023-12-15"}.WithPeriod(p)
	assert.Equal(t, "2023-12-15", f["date_from"])
	assert.Equal(t, "2024-01-31", f["date_to"])
}

func TestReportType_Normalize(t *testing.T) {
	assert.Equal(t, ReportYearly, ReportAnnual.Normalize())
	assert.Equal(t, ReportMonthly, ReportMonthly.Normalize())
	assert.True(t, ReportAnnual.Valid())
	assert.False(t, ReportType("hourly").Valid())
}

func TestDefaultReportFilename(t *testing.T) {
	got := DefaultReportFilename(ReportMonthly, FormatXLSX, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "rapport_monthly_2024-03-05.xlsx", got)
}
