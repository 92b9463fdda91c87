package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yourusername/gltp-records/internal/api"
	"github.com/yourusername/gltp-records/internal/cache"
	"github.com/yourusername/gltp-records/internal/config"
	"github.com/yourusername/gltp-records/internal/database"
	"github.com/yourusername/gltp-records/internal/datasource"
	"github.com/yourusername/gltp-records/internal/health"
	"github.com/yourusername/gltp-records/internal/logger"
	"github.com/yourusername/gltp-records/internal/metrics"
	"github.com/yourusername/gltp-records/internal/repository"
	"github.com/yourusername/gltp-records/internal/scheduler"
	"github.com/yourusername/gltp-records/internal/service"
)

// resultCacheSize bounds the number of cached aggregation results
const resultCacheSize = 32

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the leaderboard service",
		Long:  `Periodically refreshes the leaderboards from the configured source and serves them over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the records schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled {
				return fmt.Errorf("database is not enabled in %s", configFile)
			}

			db, err := database.Initialize(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", database.SchemaVersion)
			return nil
		},
	}
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	log := logger.NewEnvironmentLogger(cfg.App.LogLevel, cfg.App.Environment)
	log.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": cfg.App.Environment,
		"source":      cfg.Records.Source,
	}).Info("Starting gltp-records")

	metrics.InitRegistry()

	var repo repository.RecordRepository
	var pinger health.DatabasePinger
	if cfg.Database.Enabled {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}
		repo = repos.Record
		pinger = db
	}

	factory := datasource.NewFactory(cfg, log)
	source, err := factory.NewRecordSource(repo)
	if err != nil {
		return fmt.Errorf("failed to create record source: %w", err)
	}

	opts := service.Options{
		Catalog:    factory.NewCatalogSource(),
		Repository: repo,
		Persist:    cfg.Records.Persist,
	}
	if cfg.Cache.Enabled {
		opts.Cache = cache.NewResultCache(cfg.CacheTTL(), resultCacheSize)
	}
	svc := service.NewLeaderboardService(source, log, opts)

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Address:     cfg.HealthAddress(),
		Logger:      log,
		DB:          pinger,
		Leaderboard: svc,
	})
	if err := healthServer.Start(ctx); err != nil {
		return err
	}

	sched := scheduler.NewScheduler(svc, log)
	if err := sched.RunOnce(ctx); err != nil {
		// keep serving; /ready reports pending until a refresh succeeds
		log.WithError(err).Error("Initial refresh failed")
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	apiServer := api.NewServer(svc, api.Config{
		Address:     cfg.Server.Address,
		MetricsPath: metricsPath,
		Logger:      log,
	})
	if err := apiServer.Start(ctx); err != nil {
		return err
	}

	if cfg.Scheduler.Enabled {
		if err := sched.ScheduleRecordRefresh(cfg.Scheduler.RecordsIntervalSeconds); err != nil {
			return err
		}
		if opts.Catalog != nil && cfg.Scheduler.CatalogCron != "" {
			if err := sched.ScheduleCatalogRefresh(cfg.Scheduler.CatalogCron); err != nil {
				return err
			}
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				log.WithError(err).Warn("Scheduler did not stop cleanly")
			}
		}()
	}

	healthServer.SetReady(true)
	log.Info("gltp-records is serving")

	<-ctx.Done()
	log.Info("Shutting down")
	return nil
}
