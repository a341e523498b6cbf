package modules

import (
	"github.com/wildroots/wildroots/modules/core"
	"github.com/wildroots/wildroots/modules/migration"
	"github.com/wildroots/wildroots/pkg/application"
)

var (
	BuiltInModules = []application.Module{
		core.NewModule(),
		migration.NewModule(),
	}
)

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range BuiltInModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
