package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskflow-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskflow-api/internal/api/middleware"
)

// setupRouter creates the router with the middleware stack and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.CORS(app.config.Server.AllowedOrigins))
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(apiMiddleware.Recoverer)
	r.Use(middleware.RequestSize(app.config.Server.MaxBodyBytes))

	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	healthHandler := api.NewHealthHandler(app.taskStore)
	api.RegisterRoutes(r, taskHandler, healthHandler)

	return r
}
