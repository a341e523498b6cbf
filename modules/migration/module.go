package migration

import (
	"embed"

	corepersistence "github.com/wildroots/wildroots/modules/core/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/migration/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/migration/presentation/controllers"
	"github.com/wildroots/wildroots/modules/migration/services"
	"github.com/wildroots/wildroots/pkg/application"
	"github.com/wildroots/wildroots/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/migration-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	app.Migrations().RegisterSchema(&migrationFiles)
	app.RegisterServices(
		services.NewMigrationService(services.MigrationServiceConfig{
			Logs:              persistence.NewMigrationLogRepository(),
			Users:             corepersistence.NewUserRepository(),
			Schools:           corepersistence.NewSchoolRepository(),
			Memberships:       corepersistence.NewMembershipRepository(),
			Credentials:       services.NewCredentialGenerator(conf.Migration.TempPasswordLen),
			Publisher:         app.EventPublisher(),
			StaleRunThreshold: conf.Migration.StaleRunThreshold,
		}),
		services.NewConsolidationService(services.ConsolidationServiceConfig{
			Schools:     corepersistence.NewSchoolRepository(),
			Memberships: corepersistence.NewMembershipRepository(),
			Evidence:    corepersistence.NewEvidenceRepository(),
			Publisher:   app.EventPublisher(),
		}),
	)
	app.RegisterControllers(
		controllers.NewMigrationController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "migration"
}
