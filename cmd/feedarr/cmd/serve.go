package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feedarr/feedarr/internal/database"
	"github.com/feedarr/feedarr/internal/imaging"
	"github.com/feedarr/feedarr/internal/repository"
	"github.com/feedarr/feedarr/internal/scheduler"
	"github.com/feedarr/feedarr/internal/service"
	"github.com/feedarr/feedarr/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feedarr engine",
	Long: `Start the feedarr ingestion engine.

The engine refreshes every enabled tenant on its cron schedule: fetching
the tenant's playlist and guide sources, merging them into one normalized
snapshot and recording parse history. It runs until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("database", "", "Database DSN (overrides config)")
	serveCmd.Flags().String("data-dir", "", "Data directory for the artwork mirror (overrides config)")

	viper.BindPFlag("database.dsn", serveCmd.Flags().Lookup("database"))
	viper.BindPFlag("storage.base_dir", serveCmd.Flags().Lookup("data-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.New(cfg.Database, logger, nil)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	tenantRepo := repository.NewTenantRepository(db.DB)
	snapshotRepo := repository.NewSnapshotRepository(db.DB, cfg.Ingestion.ChannelBatchSize)
	overrideRepo := repository.NewOverrideRepository(db.DB)
	diagRepo := repository.NewDiagnosticsRepository(db.DB)
	cacheRepo := repository.NewImageCacheRepository(db.DB)

	mirror, err := imaging.NewMirror(cfg.Storage.MirrorPath())
	if err != nil {
		return fmt.Errorf("initializing artwork mirror: %w", err)
	}

	resolver := imaging.NewResolver(cfg.Imaging, cacheRepo, overrideRepo, snapshotRepo, mirror, logger)

	runner := scheduler.NewCycleRunner(cfg.Ingestion, tenantRepo, snapshotRepo, diagRepo, logger)
	sched := scheduler.New(tenantRepo, runner, cfg.Scheduler).WithLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	core := service.NewCore(tenantRepo, snapshotRepo, overrideRepo, diagRepo, cacheRepo, resolver, sched).
		WithLogger(logger)

	status, err := core.GetSchedulerStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading scheduler status: %w", err)
	}
	for _, tenant := range status.Tenants {
		attrs := []any{
			slog.String("tenant_id", tenant.TenantID.String()),
			slog.Bool("enabled", tenant.Enabled),
		}
		if tenant.NextRun != nil {
			attrs = append(attrs, slog.Time("next_run", *tenant.NextRun))
		}
		logger.Info("tenant schedule", attrs...)
	}

	logger.Info("feedarr engine started",
		slog.String("version", version.Version),
		slog.Int("tenants", len(status.Tenants)),
		slog.String("database_driver", db.Driver()),
		slog.String("mirror_dir", cfg.Storage.MirrorPath()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("received shutdown signal", slog.String("signal", sig.String()))

	return nil
}
