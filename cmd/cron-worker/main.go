package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/lensretail-backend/internal/audit"
	"github.com/angelmondragon/lensretail-backend/internal/cron"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/metrics"
	"github.com/angelmondragon/lensretail-backend/pkg/migrate"
	"github.com/angelmondragon/lensretail-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})
	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), "no .env file, using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "config.load_failed", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"
	logg = logger.ForApp("cron-worker", cfg.App)

	if err := run(cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "cron.worker_stopped", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger, once bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": cfg.Service.Kind})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { _ = dbClient.Close() }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	scheduler, err := buildScheduler(cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	logg.Info(ctx, "cron.worker_started")
	if once {
		return scheduler.RunOnce(ctx)
	}
	return scheduler.Run(ctx)
}

func buildScheduler(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Scheduler, error) {
	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	locker, err := cron.NewRedisLocker(redisClient, redisClient.LockKey("cron-worker:"+env), cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}

	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return nil, err
	}
	auditJob, err := cron.NewAuditRetentionJob(cron.RetentionJobParams{
		Logger:    logg,
		Store:     auditService,
		Retention: cfg.Audit.RetentionDays,
	})
	if err != nil {
		return nil, err
	}
	errorLogJob, err := cron.NewErrorLogRetentionJob(cron.RetentionJobParams{
		Logger:    logg,
		Store:     auditService,
		Retention: cfg.Audit.ErrorLogRetentionDays,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewScheduler(cron.SchedulerParams{
		Logger:   logg,
		Locker:   locker,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
		Jobs:     []cron.Job{auditJob, errorLogJob},
	})
}
