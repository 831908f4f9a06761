package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/cashtrack/internal/buildinfo"
	"github.com/dmitrijs2005/cashtrack/internal/client/cli"
	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/config"
	"github.com/dmitrijs2005/cashtrack/internal/client/localstore"
	"github.com/dmitrijs2005/cashtrack/internal/client/services"
	"github.com/dmitrijs2005/cashtrack/internal/client/session"
	"github.com/dmitrijs2005/cashtrack/internal/logging"
	"github.com/dmitrijs2005/cashtrack/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil {
				log.Error(ctx, "metrics server stopped", "error", err)
			}
		}()
	}

	opts := []cli.Option{cli.WithLogger(log), cli.WithGatherer(reg)}

	if cfg.Demo {
		store := localstore.New(
			localstore.WithOpeningBalance(cfg.OpeningBalance),
			localstore.WithLogger(log.With("component", "localstore")),
		)
		app := cli.NewApp(cfg, cli.Services{
			Auth:         store.Auth(),
			Transactions: store.Transactions(),
			Categories:   store.Categories(),
			Users:        store.Users(),
		}, append(opts, cli.WithMode("demo"))...)
		app.Run(ctx)
		return nil
	}

	db, err := client.InitDatabase(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open local database: %w", err)
	}
	defer db.Close()

	base := cfg.APIBaseURL()
	sess := session.NewStore(db, client.NewRefresher(base, cfg.RequestTimeout),
		session.WithMetrics(m),
		session.WithLogger(log.With("component", "session")),
	)
	if err := sess.Hydrate(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn(ctx, "could not load saved session", "error", err)
	}

	// The navigator is the App itself, which needs the services first.
	nav := &lateNavigator{}
	api := client.NewHTTPClient(base, sess,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(log.With("component", "http")),
		client.WithMetrics(m),
		client.WithNavigator(nav),
	)

	app := cli.NewApp(cfg, cli.Services{
		Auth:         services.NewAuthService(api, sess, log),
		Transactions: services.NewTransactionService(api),
		Categories:   services.NewCategoryService(api),
		Users:        services.NewUserService(api),
		Reports:      services.NewReportService(api, cfg.DownloadDir, nil),
	}, opts...)
	nav.app = app

	app.Run(ctx)
	return nil
}

type lateNavigator struct {
	app *cli.App
}

func (n *lateNavigator) RedirectToLogin(ctx context.Context, path string) {
	if n.app != nil {
		n.app.RedirectToLogin(ctx, path)
	}
}
