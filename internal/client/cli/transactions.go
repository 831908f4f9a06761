package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/shopspring/decimal"
)

// withoutAll strips the "all" keyword and reports whether it was present.
func withoutAll(args []string) ([]string, bool) {
	i := slices.Index(args, "all")
	if i < 0 {
		return args, false
	}
	return slices.Delete(slices.Clone(args), i, i+1), true
}

func oneID(args []string, cmd string) (models.ID, error) {
	if len(args) != 1 {
		return 0, usage("%s <id>", cmd)
	}
	return models.ParseID(args[0])
}

// List prints one page of transactions. Filters are name=value pairs; the
// current period applies unless dates are given or "all" is passed.
func (a *App) List(ctx context.Context, args []string) error {
	args, all := withoutAll(args)
	f, err := models.ParseFilters(args, models.TransactionFilterKeys)
	if err != nil {
		return err
	}
	if !all {
		f = f.WithPeriod(a.getPeriod())
	}

	page, err := a.svc.Transactions.List(ctx, f)
	if err != nil {
		return err
	}
	if len(page.Results) == 0 {
		a.printf("No transactions\n")
		return nil
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tREF\tDESCRIPTION\tBALANCE")
	for _, tx := range page.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, stamp(tx.CreatedAt), tx.Type, money(tx.SignedAmount()),
			orDash(tx.CategoryName()), orDash(tx.Ref), orDash(tx.Description), money(tx.Balance))
	}
	tw.Flush()

	a.printf("Showing %d of %d", len(page.Results), page.Count)
	if page.HasNext() {
		a.printf(" (more with page=N)")
	}
	a.printf("\n")
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := oneID(args, "show")
	if err != nil {
		return err
	}
	tx, err := a.svc.Transactions.Get(ctx, id)
	if err != nil {
		return err
	}

	a.printf("ID:          %s\n", tx.ID)
	a.printf("Type:        %s\n", tx.Type)
	a.printf("Amount:      %s\n", money(tx.SignedAmount()))
	a.printf("Balance:     %s\n", money(tx.Balance))
	a.printf("Category:    %s\n", orDash(tx.CategoryName()))
	a.printf("Reference:   %s\n", orDash(tx.Ref))
	a.printf("Party:       %s\n", orDash(tx.ExporterFournisseur))
	a.printf("Description: %s\n", orDash(tx.Description))
	a.printf("Created:     %s by %s\n", stamp(tx.CreatedAt), userName(tx.CreatedBy))
	if tx.UpdatedAt != nil {
		a.printf("Updated:     %s by %s\n", stamp(*tx.UpdatedAt), userName(tx.ModifiedBy))
	}
	return nil
}

func parseType(s string) (models.TransactionType, error) {
	t := models.TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("type must be %q or %q", models.Recette, models.Depense)
	}
	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.New("amount must be positive")
	}
	return d, nil
}

func (a *App) Add(ctx context.Context) error {
	if !a.can(models.PermManageTransactions) {
		return errors.New("your role cannot record transactions")
	}

	var in models.TransactionInput

	s, err := a.ask("Type (recette/depense): ")
	if err != nil {
		return err
	}
	typ, err := parseType(s)
	if err != nil {
		return err
	}
	in.Type = &typ

	s, err = a.ask("Amount: ")
	if err != nil {
		return err
	}
	amount, err := parseAmount(s)
	if err != nil {
		return err
	}
	in.Amount = &amount

	if in.Description, err = a.optional("Description: "); err != nil {
		return err
	}
	if in.Ref, err = a.optional("Reference: "); err != nil {
		return err
	}
	if in.ExporterFournisseur, err = a.optional("Exporter/supplier: "); err != nil {
		return err
	}

	if err := a.printCategories(ctx, typ); err != nil {
		return err
	}
	s, err = a.ask("Category ID (empty for none): ")
	if err != nil {
		return err
	}
	if s != "" {
		id, err := models.ParseID(s)
		if err != nil {
			return err
		}
		in.CategoryID = &id
	}

	tx, err := a.svc.Transactions.Create(ctx, in)
	if err != nil {
		return err
	}
	a.printf("Transaction %s recorded, balance %s\n", tx.ID, money(tx.Balance))
	return nil
}

// optional asks for a value and returns nil when the answer is empty.
func (a *App) optional(prompt string) (*string, error) {
	s, err := a.ask(prompt)
	if err != nil || s == "" {
		return nil, err
	}
	return &s, nil
}

func (a *App) printCategories(ctx context.Context, typ models.TransactionType) error {
	cats, err := a.svc.Categories.List(ctx)
	if err != nil {
		return err
	}
	var names []string
	for _, c := range cats {
		if c.Type.Accepts(typ) {
			names = append(names, fmt.Sprintf("%s=%s", c.ID, c.Name))
		}
	}
	if len(names) > 0 {
		a.printf("Categories: %s\n", strings.Join(names, ", "))
	}
	return nil
}

// Edit prompts for every field with the current value as default and sends
// only what changed.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := oneID(args, "edit")
	if err != nil {
		return err
	}
	tx, err := a.svc.Transactions.Get(ctx, id)
	if err != nil {
		return err
	}

	var in models.TransactionInput
	changed := false

	s, ok, err := a.askDefault("Type", string(tx.Type))
	if err != nil {
		return err
	}
	if ok {
		typ, err := parseType(s)
		if err != nil {
			return err
		}
		in.Type, changed = &typ, true
	}

	s, ok, err = a.askDefault("Amount", tx.Amount.Abs().String())
	if err != nil {
		return err
	}
	if ok {
		amount, err := parseAmount(s)
		if err != nil {
			return err
		}
		in.Amount, changed = &amount, true
	}

	for _, field := range []struct {
		label   string
		current string
		dst     **string
	}{
		{"Description", tx.Description, &in.Description},
		{"Reference", tx.Ref, &in.Ref},
		{"Exporter/supplier", tx.ExporterFournisseur, &in.ExporterFournisseur},
	} {
		s, ok, err := a.askDefault(field.label, field.current)
		if err != nil {
			return err
		}
		if ok {
			*field.dst, changed = &s, true
		}
	}

	current := ""
	if tx.Category != nil {
		current = tx.Category.ID.String()
	}
	s, ok, err = a.askDefault("Category ID", current)
	if err != nil {
		return err
	}
	if ok {
		cid, err := models.ParseID(s)
		if err != nil {
			return err
		}
		in.CategoryID, changed = &cid, true
	}

	if !changed {
		a.printf("Nothing to update\n")
		return nil
	}
	updated, err := a.svc.Transactions.Update(ctx, id, in)
	if err != nil {
		return err
	}
	a.printf("Transaction %s updated, balance %s\n", updated.ID, money(updated.Balance))
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := oneID(args, "delete")
	if err != nil {
		return err
	}
	ok, err := a.confirm(fmt.Sprintf("Delete transaction %s?", id))
	if err != nil || !ok {
		return err
	}
	if err := a.svc.Transactions.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Transaction %s deleted\n", id)
	return nil
}

// History prints the audit log. Filters are name=value pairs.
func (a *App) History(ctx context.Context, args []string) error {
	f, err := models.ParseFilters(args, models.HistoryFilterKeys)
	if err != nil {
		return err
	}
	h, err := a.svc.Transactions.History(ctx, f)
	if err != nil {
		return err
	}
	if len(h.Results) == 0 {
		a.printf("No history\n")
		return nil
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "WHEN\tACTION\tTX\tAMOUNT\tBY\tCHANGES")
	for _, e := range h.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			stamp(e.CreatedAt), e.Action, e.TransactionID, e.TransactionData.Amount,
			userName(e.PerformedBy), orDash(changedFields(e.Changes)))
	}
	tw.Flush()

	st := h.Stats
	a.printf("%d actions: %d created, %d updated, %d deleted\n",
		st.TotalActions, st.CreatedCount, st.UpdatedCount, st.DeletedCount)
	return nil
}

func changedFields(changes map[string]models.FieldChange) string {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ",")
}
