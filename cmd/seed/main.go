package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/lensretail-backend/internal/catalog"
	"github.com/angelmondragon/lensretail-backend/internal/customers"
	"github.com/angelmondragon/lensretail-backend/internal/users"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/env"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	email := flag.String("admin-email", env.Get("LENSRETAIL_SEED_ADMIN_EMAIL", "admin@lensretail.in"), "admin login email")
	password := flag.String("admin-password", env.Get("LENSRETAIL_SEED_ADMIN_PASSWORD", ""), "admin password")
	name := flag.String("admin-name", "Administrator", "admin display name")
	flag.Parse()

	ctx := context.Background()
	if *password == "" {
		logg.Warn(ctx, "admin password missing, set -admin-password or LENSRETAIL_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "config.load_failed", err)
		os.Exit(1)
	}
	logg = logger.ForApp("seed", cfg.App)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	s, err := newSeeder(cfg, logg, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to build seeder", err)
		os.Exit(1)
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	if err := s.run(ctx, adminAccount{Email: *email, Password: *password, Name: *name}); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seed completed")
}

func newSeeder(cfg *config.Config, logg *logger.Logger, client *db.Client) (*seeder, error) {
	conn := client.DB()
	userSvc, err := users.NewService(users.NewRepository(conn), cfg.Password)
	if err != nil {
		return nil, err
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	customerSvc, err := customers.NewService(customers.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	return &seeder{users: userSvc, catalog: catalogSvc, customers: customerSvc, logg: logg}, nil
}
