package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/phrazzld/taskboard-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/notify"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", api.IdempotencyHeader},
		ExposedHeaders:   []string{apiMiddleware.TraceHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var taskOpts []api.TaskHandlerOption
	if app.deduper != nil {
		taskOpts = append(taskOpts, api.WithDeduper(app.deduper))
	}
	taskHandler := api.NewTaskHandler(app.taskService, taskOpts...)
	authHandler := api.NewAuthHandler(app.userService)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.verifier)

	wsHandler := notify.NewHandler(app.hub, notify.HandlerOptions{
		SessionBuffer:  app.config.Notify.SessionBuffer,
		AllowedOrigins: app.config.Server.AllowedOrigins,
		Logger:         app.logger,
	})

	r.Get("/health", api.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", taskHandler.CreateTask)
		r.Get("/me", taskHandler.GetMyTasks)
		r.Put("/{id}", taskHandler.UpdateTask)
		r.Delete("/{id}", taskHandler.DeleteTask)
	})

	r.Handle("/ws", wsHandler)

	return r
}
