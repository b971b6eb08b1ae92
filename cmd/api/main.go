// Command api serves the LensRetail HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/lensretail-backend/api/routes"
	"github.com/angelmondragon/lensretail-backend/internal/audit"
	"github.com/angelmondragon/lensretail-backend/internal/auth"
	"github.com/angelmondragon/lensretail-backend/internal/catalog"
	"github.com/angelmondragon/lensretail-backend/internal/customers"
	"github.com/angelmondragon/lensretail-backend/internal/locations"
	"github.com/angelmondragon/lensretail-backend/internal/pricing"
	"github.com/angelmondragon/lensretail-backend/internal/saleorders"
	"github.com/angelmondragon/lensretail-backend/internal/trays"
	"github.com/angelmondragon/lensretail-backend/internal/users"
	"github.com/angelmondragon/lensretail-backend/internal/vendors"
	"github.com/angelmondragon/lensretail-backend/pkg/auth/session"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/metrics"
	"github.com/angelmondragon/lensretail-backend/pkg/migrate"
	"github.com/angelmondragon/lensretail-backend/pkg/redis"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	boot := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})
	if err := godotenv.Load(); err != nil {
		logg.Debug(boot, "no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(boot, "config.load_failed", err)
		os.Exit(1)
	}
	logg = logger.ForApp("api", cfg.App)

	if err := run(cfg, logg); err != nil {
		logg.Error(boot, "api.stopped", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := wire(cfg, logg, dbClient, redisClient, reg)
	if err != nil {
		return err
	}

	addr := ":" + listenPort(cfg)
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr, "driver": cfg.DB.Driver})
	logg.Info(logCtx, "api.listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "api.draining")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// listenPort prefers PORT, which container platforms inject.
func listenPort(cfg *config.Config) string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return cfg.App.Port
}

// wire builds every service over the shared connections.
func wire(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg *prometheus.Registry) (routes.Dependencies, error) {
	conn := dbClient.DB()
	deps := routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	}

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return deps, err
	}
	deps.Sessions = sessions
	userRepo := users.NewRepository(conn)

	steps := []func() error{
		func() (err error) {
			deps.Auth, err = auth.NewService(auth.ServiceParams{Users: userRepo, Sessions: sessions, JWT: cfg.JWT})
			return err
		},
		func() (err error) { deps.Users, err = users.NewService(userRepo, cfg.Password); return err },
		func() (err error) {
			deps.Pricing, err = pricing.NewService(pricing.NewRepository(conn), redisClient, cfg.Pricing, metrics.NewDiscountMetrics(reg), logg)
			return err
		},
		func() (err error) {
			deps.Catalog, err = catalog.NewService(catalog.NewRepository(conn), deps.Pricing)
			return err
		},
		func() (err error) { deps.Locations, err = locations.NewService(locations.NewRepository(conn)); return err },
		func() (err error) { deps.Trays, err = trays.NewService(trays.NewRepository(conn)); return err },
		func() (err error) { deps.Vendors, err = vendors.NewService(vendors.NewRepository(conn)); return err },
		func() (err error) { deps.Customers, err = customers.NewService(customers.NewRepository(conn)); return err },
		func() (err error) {
			deps.SaleOrders, err = saleorders.NewService(saleorders.NewRepository(conn), logg)
			return err
		},
		func() (err error) { deps.Audit, err = audit.NewService(audit.NewRepository(conn), logg); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return deps, err
		}
	}
	return deps, nil
}
