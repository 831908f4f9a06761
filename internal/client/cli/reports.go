package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
)

var errNoReports = errors.New("reports are not available in this mode")

func (a *App) requireReports() error {
	if a.svc.Reports == nil {
		return errNoReports
	}
	if !a.can(models.PermViewReports) {
		return errors.New("your role cannot access reports")
	}
	return nil
}

// Reports lists report metadata: reports [format=pdf|xlsx] [type=...]
func (a *App) Reports(ctx context.Context, args []string) error {
	if err := a.requireReports(); err != nil {
		return err
	}
	f, err := models.ParseFilters(args, []string{"format", "type"})
	if err != nil {
		return err
	}

	list, err := a.svc.Reports.List(ctx, models.ReportFormat(f["format"]), models.ReportType(f["type"]))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No reports\n")
		return nil
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tFILE\tFORMAT\tTYPE\tPERIOD\tGENERATED\tDOWNLOADS\tAVAILABLE")
	for _, r := range list {
		available := "yes"
		if !r.FileExists {
			available = "no"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s..%s\t%s\t%d\t%s\n",
			r.ID, r.Filename, r.FormatType, r.ReportType, r.DateFrom, r.DateTo,
			stamp(r.GeneratedAt), r.DownloadCount, available)
	}
	return tw.Flush()
}

// Report generates a report for the current period and registers it:
// report <pdf|xlsx> [type]
func (a *App) Report(ctx context.Context, args []string) error {
	if err := a.requireReports(); err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return usage("report <pdf|xlsx> [daily|weekly|monthly|yearly|custom]")
	}
	format := models.ReportFormat(args[0])
	typ := models.ReportCustom
	if len(args) == 2 {
		typ = models.ReportType(args[1])
	}

	p := a.getPeriod()
	path, err := a.svc.Reports.Generate(ctx, format, typ, p)
	if err != nil {
		return err
	}
	a.printf("Report saved to %s\n", path)

	// The file is already on disk; registering it is best effort.
	if err := a.registerReport(ctx, format, typ, p, filepath.Base(path)); err != nil {
		a.log.Warn(ctx, "report metadata not saved", "file", path, "error", err)
		a.printf("warning: report not registered: %s\n", describe(err))
	}
	return nil
}

func (a *App) registerReport(ctx context.Context, format models.ReportFormat, typ models.ReportType, p models.Period, name string) error {
	st, err := a.svc.Transactions.Stats(ctx, p)
	if err != nil {
		return err
	}
	rec := models.ReportRecord{
		ReportType:       typ,
		TransactionCount: st.TransactionCount,
		TotalRecettes:    st.TotalRecettes,
		TotalDepenses:    st.TotalDepenses.Abs(),
		Balance:          st.CurrentBalance,
		FormatType:       format,
		Filename:         name,
	}
	if !p.IsZero() {
		rec.DateFrom = p.From.Format(time.DateOnly)
		rec.DateTo = p.To.Format(time.DateOnly)
	}
	_, err = a.svc.Reports.SaveMetadata(ctx, rec)
	return err
}

func (a *App) Download(ctx context.Context, args []string) error {
	if err := a.requireReports(); err != nil {
		return err
	}
	id, err := oneID(args, "download")
	if err != nil {
		return err
	}
	path, err := a.svc.Reports.DownloadByID(ctx, id)
	if err != nil {
		return err
	}
	a.printf("Report saved to %s\n", path)
	return nil
}
