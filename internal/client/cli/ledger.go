package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/ledger"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
)

// Stats prints the dashboard figures and the totals of the current period.
func (a *App) Stats(ctx context.Context) error {
	d, err := a.svc.Transactions.DashboardStats(ctx)
	if err != nil {
		return err
	}
	p := a.getPeriod()
	s, err := a.svc.Transactions.Stats(ctx, p)
	if err != nil {
		return err
	}

	a.printf("Current balance:  %s\n", money(d.CurrentBalance))
	a.printf("Today:            +%s / -%s\n", money(d.TodayRecettes), money(d.TodayDepenses))
	a.printf("All time:         +%s / -%s (%d transactions)\n",
		money(d.TotalRecettes), money(d.TotalDepenses.Abs()), d.TransactionCount)
	a.printf("Period %s: +%s / -%s (%d transactions)\n",
		periodLabel(p), money(s.TotalRecettes), money(s.TotalDepenses.Abs()), s.TransactionCount)

	if a.can(models.PermViewAnalytics) {
		an, err := a.svc.Transactions.Analytics(ctx, p)
		if err != nil {
			return err
		}
		a.printf("Profit margin:    %.1f%%\n", an.ProfitMargin)
		for _, c := range an.CategoryData {
			a.printf("  %-20s %s\n", c.Name, money(c.Value))
		}
	}
	return nil
}

func periodLabel(p models.Period) string {
	if p.IsZero() {
		return "all"
	}
	return p.String()
}

// Period shows or sets the date range used by list, stats, ledger and
// report. Accepted forms: "month", "all", "<from> <to>".
func (a *App) Period(_ context.Context, args []string) error {
	var p models.Period
	switch {
	case len(args) == 0:
		a.printf("Period: %s\n", periodLabel(a.getPeriod()))
		return nil
	case len(args) == 1 && args[0] == "month":
		p = models.CurrentMonth(a.now())
	case len(args) == 1 && args[0] == "today":
		today := a.now().Format(time.DateOnly)
		p, _ = models.ParsePeriod(today, today)
	case len(args) == 1 && args[0] == "all":
	case len(args) == 2:
		var err error
		if p, err = models.ParsePeriod(args[0], args[1]); err != nil {
			return err
		}
	default:
		return usage("period [month|today|all|YYYY-MM-DD YYYY-MM-DD]")
	}

	a.mu.Lock()
	a.period = p
	a.mu.Unlock()
	a.printf("Period: %s\n", periodLabel(p))
	return nil
}

// Ledger recomputes running balances locally from every transaction and
// prints the entries of the current period, oldest first.
func (a *App) Ledger(ctx context.Context, args []string) error {
	args, all := withoutAll(args)
	if len(args) > 0 {
		return usage("ledger [all]")
	}

	txns, err := a.svc.Transactions.All(ctx, nil)
	if err != nil {
		return err
	}
	entries := ledger.Recalculate(txns, a.cfg.OpeningBalance)
	sum := ledger.Summarize(entries, a.now())

	p := a.getPeriod()
	if all {
		p = models.Period{}
	}
	shown := ledger.Filter(entries, p)

	a.printf("Opening balance: %s\n", money(a.cfg.OpeningBalance))
	if len(shown) > 0 {
		tw := newTable(a.out)
		fmt.Fprintln(tw, "DATE\tID\tTYPE\tAMOUNT\tBALANCE\tDESCRIPTION")
		for _, e := range shown {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				stamp(e.CreatedAt), e.ID, e.Type, money(e.SignedAmount()), money(e.Balance), orDash(e.Description))
		}
		tw.Flush()
	}
	a.printf("%d of %d entries, period %s\n", len(shown), sum.Count, periodLabel(p))
	a.printf("Balance: %s (receipts %s, expenses %s)\n",
		money(sum.CurrentBalance), money(sum.TotalRecettes), money(sum.TotalDepenses))
	return nil
}
