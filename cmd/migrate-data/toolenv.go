package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	corepersistence "github.com/wildroots/wildroots/modules/core/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/migration/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/migration/services"
	"github.com/wildroots/wildroots/pkg/composables"
	"github.com/wildroots/wildroots/pkg/configuration"
	"github.com/wildroots/wildroots/pkg/logging"
)

// toolEnv holds the shared pieces every subcommand needs: the database pool
// and a console logger. Commands run against the live schema, the same one
// the server uses.
type toolEnv struct {
	conf   *configuration.Configuration
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func newToolEnv(ctx context.Context) (*toolEnv, error) {
	conf := configuration.Use()
	logger := logging.ConsoleLogger(conf.LogrusLogLevel())
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, err
	}
	return &toolEnv{conf: conf, pool: pool, logger: logger}, nil
}

func (e *toolEnv) Close() {
	e.pool.Close()
}

func (e *toolEnv) Context(ctx context.Context) context.Context {
	ctx = composables.WithPool(ctx, e.pool)
	return composables.WithLogger(ctx, logrus.NewEntry(e.logger))
}

func (e *toolEnv) migrationService() *services.MigrationService {
	return services.NewMigrationService(services.MigrationServiceConfig{
		Logs:              persistence.NewMigrationLogRepository(),
		Users:             corepersistence.NewUserRepository(),
		Schools:           corepersistence.NewSchoolRepository(),
		Memberships:       corepersistence.NewMembershipRepository(),
		Credentials:       services.NewCredentialGenerator(e.conf.Migration.TempPasswordLen),
		StaleRunThreshold: e.conf.Migration.StaleRunThreshold,
	})
}

func (e *toolEnv) consolidationService() *services.ConsolidationService {
	return services.NewConsolidationService(services.ConsolidationServiceConfig{
		Schools:     corepersistence.NewSchoolRepository(),
		Memberships: corepersistence.NewMembershipRepository(),
		Evidence:    corepersistence.NewEvidenceRepository(),
	})
}
