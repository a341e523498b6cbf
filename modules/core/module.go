package core

import (
	"embed"

	"github.com/wildroots/wildroots/modules/core/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/core/presentation/controllers"
	"github.com/wildroots/wildroots/modules/core/services"
	"github.com/wildroots/wildroots/pkg/application"
)

//go:embed infrastructure/persistence/schema/core-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)
	app.RegisterServices(
		services.NewUserService(services.UserServiceConfig{
			Repo:      persistence.NewUserRepository(),
			Publisher: app.EventPublisher(),
		}),
		services.NewSchoolService(services.SchoolServiceConfig{
			Repo: persistence.NewSchoolRepository(),
		}),
	)
	app.RegisterControllers(
		controllers.NewUsersController(app),
		controllers.NewSchoolsController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "core"
}
