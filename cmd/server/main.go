package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Heidric/storefront/internal/config"
	"github.com/Heidric/storefront/internal/lib/jwt"
	"github.com/Heidric/storefront/internal/logger"
	"github.com/Heidric/storefront/internal/server"
	"github.com/Heidric/storefront/internal/services/auth"
	"github.com/Heidric/storefront/internal/services/catalog"
	"github.com/Heidric/storefront/internal/services/review"
	"github.com/Heidric/storefront/internal/storage/postgres"
	"github.com/Heidric/storefront/migrations"
	"github.com/Heidric/storefront/pkg/pgx"
	"github.com/Heidric/storefront/pkg/security"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runner, ctx := errgroup.WithContext(ctx)

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err, "Load config")
	}

	loggerSvc, err := logger.Initialize(cfg.Logger)
	if err != nil {
		log.Fatal(err, "Init logger")
	}
	ctx = loggerSvc.Zerolog().WithContext(ctx)

	codec, err := jwt.NewCodec(cfg.JWT)
	if err != nil {
		log.Fatal(err, "Init token codec")
	}

	if cfg.DB.Migrate {
		if err := pgx.Migrate(cfg.DB.DSN, migrations.FS); err != nil {
			log.Fatal(err, "Migrate db")
		}
	}

	db, err := pgx.NewPostgres(ctx, cfg.DB)
	if err != nil {
		log.Fatal(err, "Init db")
	}
	if err := db.Start(ctx, runner); err != nil {
		log.Fatal(err, "Start db")
	}

	storage := postgres.NewStorage(ctx, db)
	hasher := security.NewHasher()

	authSvc := auth.New(storage, hasher, codec, auth.WithTTL(cfg.JWT.TokenTTL))
	catalogSvc := catalog.New(storage)
	reviewSvc := review.New(storage)

	httpSrv := server.NewServer(cfg.ServerAddress, authSvc, catalogSvc, reviewSvc,
		server.WithHealthCheck(db.Ping))
	httpSrv.Run(ctx, runner)

	runner.Go(func() error {
		<-ctx.Done()

		if err := httpSrv.Shutdown(ctx); err != nil {
			loggerSvc.Zerolog().Error().Err(err).Msg("Shutdown http")
		}
		if err := db.Shutdown(ctx); err != nil {
			loggerSvc.Zerolog().Error().Err(err).Msg("Shutdown db")
			return err
		}
		return nil
	})

	if err := runner.Wait(); err != nil {
		loggerSvc.Zerolog().Error().Err(err).Msg("Stopped with error")
	}
}
