package main

import (
	"context"
	"flag"
	"os"

	"github.com/ignite/billing-migrator/internal/chartmogul"
	"github.com/ignite/billing-migrator/internal/config"
	"github.com/ignite/billing-migrator/internal/lemonsqueezy"
	"github.com/ignite/billing-migrator/internal/migrate"
	"github.com/ignite/billing-migrator/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.RedactEmailsEnabled())

	source := lemonsqueezy.NewClient(lemonsqueezy.Config{
		BaseURL: cfg.LemonSqueezy.BaseURL,
		APIKey:  cfg.LemonSqueezy.APIKey,
		Timeout: cfg.LemonSqueezy.Timeout(),
	})
	dest := chartmogul.NewClient(chartmogul.Config{
		BaseURL:        cfg.ChartMogul.BaseURL,
		APIKey:         cfg.ChartMogul.APIKey,
		DataSourceUUID: cfg.ChartMogul.DataSourceUUID,
		Timeout:        cfg.ChartMogul.Timeout(),
	})

	runner := migrate.NewRunner(source, dest, migrate.Options{
		InvoiceStrategy:  cfg.Invoices.Strategy,
		PurgeDestination: cfg.Purge.Enabled,
	})

	report, err := runner.Run(context.Background())
	if err != nil {
		logger.Error("migration aborted", "error", err)
		os.Exit(1)
	}

	for _, stage := range report.Stages {
		logger.Info("stage summary",
			"stage", stage.Stage,
			"created", stage.Created,
			"updated", stage.Updated,
			"deleted", stage.Deleted,
			"skipped", stage.Skipped,
			"failed", stage.Failed,
			"partial_fetches", len(stage.PartialFetches))
	}

	// Per-item failures are part of a normal run; only a top-level error
	// changes the exit code.
	os.Exit(0)
}
