package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/akawula/TaskMatic/cmd/server/auth"
	"github.com/akawula/TaskMatic/cmd/server/handlers"
	"github.com/akawula/TaskMatic/internal/tasks"
	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/store"
)

type routerDeps struct {
	logger   *slog.Logger
	db       store.Store
	auth     *auth.Authenticator
	svc      *tasks.Service
	calendar timeutils.WorkingCalendar
	now      func() time.Time
	origins  []string
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/livez", handlers.LivezHandler)
	r.Post("/login", handlers.LoginHandler(d.logger, d.db, d.auth))

	r.Group(func(r chi.Router) {
		r.Use(d.auth.JWTMiddleware)

		r.Get("/me", handlers.MeHandler)
		r.Post("/elapsed-hours", handlers.ElapsedHoursHandler(d.calendar))

		r.Get("/tasks", handlers.ListTasksHandler(d.logger, d.db))
		r.Get("/tasks/{id}", handlers.GetTaskHandler(d.db))
		r.Patch("/tasks/{id}/status", handlers.ChangeStatusHandler(d.logger, d.svc))
		r.Get("/tasks/{id}/valuations", handlers.ListValuationsHandler(d.db))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(tasks.RoleManager))

			r.Post("/users", handlers.CreateUserHandler(d.logger, d.db))
			r.Get("/users", handlers.ListUsersHandler(d.logger, d.db))
			r.Post("/tasks", handlers.CreateTaskHandler(d.logger, d.db))
			r.Delete("/tasks/{id}", handlers.DeleteTaskHandler(d.logger, d.db))
			r.Post("/tasks/{id}/valuations", handlers.CreateValuationHandler(d.logger, d.db))
			r.Get("/dashboard", handlers.DashboardHandler(d.logger, d.db, d.calendar, d.now))
			r.Get("/export.xlsx", handlers.ExportHandler(d.logger, d.db, d.calendar, d.now))
		})
	})

	return r
}
