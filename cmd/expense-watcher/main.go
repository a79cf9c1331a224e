// Command expense-watcher consumes expense change events and logs the
// refreshed analytics of the month each changed expense belongs to.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger := cli.SetupLogger("info", applog.ComponentWatcher)
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWatcher)

	if err := cfg.ValidateWatcher(); err != nil {
		logger.Error("Watcher cannot start", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	registry, err := cli.NewRegistry(cfg)
	if err != nil {
		logger.Error("Invalid category configuration", "error", err)
		os.Exit(1)
	}
	// No cache: every event recomputes from the store.
	analyticsService := services.NewAnalyticsService(result.Store, registry, nil)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	handler := func(ctx context.Context, msg *amqp.ExpenseChangedMessage) error {
		ref := msg.Timestamp
		if msg.Op != store.OpDelete {
			e, err := result.Store.Get(ctx, msg.ID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				// deleted before we got here; nothing to recompute for it
			case err != nil:
				return fmt.Errorf("load expense %s: %w", msg.ID, err)
			case e.HasDate():
				ref = e.Date
			}
		}
		if ref.IsZero() {
			ref = time.Now()
		}

		m, err := analyticsService.Month(ctx, ref)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Month analytics refreshed",
			applog.FieldExpenseID, msg.ID,
			applog.FieldOperation, msg.Op,
			applog.FieldYear, m.Year,
			applog.FieldMonth, int(m.Month),
			"count", m.Count,
			"total", m.Summary.Total.String(),
			"top_category", m.Summary.TopCategory,
			"average_per_day", m.Summary.AveragePerDay.String())
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeExpenseChanges(gctx, handler)
	})

	logger.Info("Expense watcher started", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Watcher stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Expense watcher stopped")
}
