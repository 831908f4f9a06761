package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func tx(id int64, typ models.TransactionType, amount int64, at time.Time) models.Transaction {
	return models.Transaction{
		ID:        models.ID(id),
		Type:      typ,
		Amount:    decimal.NewFromInt(amount),
		CreatedAt: at,
	}
}

func balances(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Balance.String()
	}
	return out
}

func TestRecalculate_FoldsInTimestampOrder(t *testing.T) {
	txns := []models.Transaction{
		tx(3, models.Recette, 5, t0.Add(2*time.Hour)),
		tx(1, models.Recette, 100, t0),
		tx(2, models.Depense, 30, t0.Add(time.Hour)),
	}

	got := Recalculate(txns, decimal.NewFromInt(1000))

	assert.Equal(t, []string{"1100", "1070", "1075"}, balances(got))
	assert.Equal(t, models.ID(1), got[0].ID)
	assert.Equal(t, models.ID(2), got[1].ID)
	assert.Equal(t, models.ID(3), got[2].ID)
	assert.True(t, got[2].Transaction.Balance.Equal(got[2].Balance))
}

func TestRecalculate_DoesNotMutateInput(t *testing.T) {
	txns := []models.Transaction{
		tx(2, models.Recette, 10, t0.Add(time.Minute)),
		tx(1, models.Recette, 10, t0),
	}

	_ = Recalculate(txns, decimal.Zero)

	assert.Equal(t, models.ID(2), txns[0].ID)
	assert.True(t, txns[0].Balance.IsZero())
}

func TestRecalculate_Empty(t *testing.T) {
	got := Recalculate(nil, decimal.NewFromInt(42))
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRecalculate_TiesKeepInputOrder(t *testing.T) {
	txns := []models.Transaction{
		tx(7, models.Depense, 1, t0),
		tx(5, models.Recette, 2, t0),
		tx(6, models.Recette, 3, t0),
	}

	got := Recalculate(txns, decimal.Zero)

	assert.Equal(t, []models.ID{7, 5, 6}, []models.ID{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, []string{"-1", "1", "4"}, balances(got))
}

func TestRecalculate_PermutationsAgree(t *testing.T) {
	var txns []models.Transaction
	for i := int64(1); i <= 20; i++ {
		typ := models.Recette
		if i%3 == 0 {
			typ = models.Depense
		}
		txns = append(txns, tx(i, typ, i*17, t0.Add(time.Duration(i)*time.Minute)))
	}

	byID := func(entries []Entry) map[models.ID]string {
		m := make(map[models.ID]string, len(entries))
		for _, e := range entries {
			m[e.ID] = e.Balance.String()
		}
		return m
	}
	want := byID(Recalculate(txns, DefaultOpeningBalance))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]models.Transaction(nil), txns...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, byID(Recalculate(shuffled, DefaultOpeningBalance)))
	}
}

func TestRecalculate_ExactDecimalArithmetic(t *testing.T) {
	a := tx(1, models.Recette, 0, t0)
	a.Amount = decimal.RequireFromString("0.1")
	b := tx(2, models.Recette, 0, t0.Add(time.Second))
	b.Amount = decimal.RequireFromString("0.2")

	got := Recalculate([]models.Transaction{a, b}, decimal.Zero)
	assert.Equal(t, "0.3", got[1].Balance.String())
}

func TestSummarize(t *testing.T) {
	now := t0.Add(10 * time.Hour)
	yesterday := t0.Add(-24 * time.Hour)
	entries := Recalculate([]models.Transaction{
		tx(1, models.Recette, 1000, yesterday),
		tx(2, models.Depense, -200, yesterday.Add(time.Hour)),
		tx(3, models.Recette, 50, t0),
		tx(4, models.Depense, 20, t0.Add(time.Hour)),
	}, decimal.NewFromInt(100))

	s := Summarize(entries, now)

	assert.Equal(t, "930", s.CurrentBalance.String())
	assert.Equal(t, "1050", s.TotalRecettes.String())
	assert.Equal(t, "220", s.TotalDepenses.String())
	assert.Equal(t, "50", s.TodayRecettes.String())
	assert.Equal(t, "20", s.TodayDepenses.String())
	assert.Equal(t, 4, s.Count)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, t0)
	assert.True(t, s.CurrentBalance.IsZero())
	assert.Zero(t, s.Count)
}

func TestFilter(t *testing.T) {
	entries := Recalculate([]models.Transaction{
		tx(1, models.Recette, 10, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)),
		tx(2, models.Recette, 10, time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)),
	}, decimal.Zero)

	got := Filter(entries, models.CurrentMonth(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
	require.Len(t, got, 1)
	assert.Equal(t, models.ID(2), got[0].ID)
	assert.Equal(t, "20", got[0].Balance.String())

	assert.Len(t, Filter(entries, models.Period{}), 2)
}

func TestFilter_MatchesSummarizeDayInPeriodZone(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2026, 11, 1, 10, 0, 0, 0, zone)
	entries := Recalculate([]models.Transaction{
		tx(1, models.Recette, 10, time.Date(2026, 10, 31, 23, 30, 0, 0, time.UTC)),
	}, decimal.Zero)

	got := Filter(entries, models.CurrentMonth(now))

	require.Len(t, got, 1)
	assert.True(t, Summarize(got, now).TodayRecettes.Equal(decimal.NewFromInt(10)))
}
