package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wildroots/wildroots/internal/server"
	"github.com/wildroots/wildroots/pkg/application"
	"github.com/wildroots/wildroots/pkg/configuration"
	"github.com/wildroots/wildroots/pkg/eventbus"
)

func main() {
	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})

	srv, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Pool:          pool,
		Application:   app,
	})
	if err != nil {
		logger.WithError(err).Error("failed to assemble server")
		os.Exit(1)
	}

	if err := app.Migrations().Apply(ctx); err != nil {
		logger.WithError(err).Error("failed to apply schema")
		os.Exit(1)
	}

	logger.Infof("listening on %s", conf.SocketAddress)
	if err := srv.Start(conf.SocketAddress); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
