package server

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/wildroots/wildroots/modules"
	"github.com/wildroots/wildroots/pkg/application"
	"github.com/wildroots/wildroots/pkg/configuration"
	"github.com/wildroots/wildroots/pkg/httpapi"
	"github.com/wildroots/wildroots/pkg/middleware"
	"github.com/wildroots/wildroots/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Pool          *pgxpool.Pool
	Application   application.Application
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	app.RegisterMiddleware(
		middleware.RequestLogger(options.Logger),
		middleware.ProvidePool(options.Pool),
	)
	if err := modules.Load(app); err != nil {
		return nil, err
	}

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return server.NewHTTPServer(app, notFound, methodNotAllowed), nil
}
