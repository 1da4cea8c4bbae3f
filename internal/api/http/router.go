package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kdh92417/team-tasks/internal/api/http/handlers"
	"github.com/kdh92417/team-tasks/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Teams          *handlers.TeamsHandler
	Tasks          *handlers.TasksHandler
	SubTasks       *handlers.SubTasksHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Auth.Logout)

	requireUser := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireUser()}

	teams := app.Group("/teams", requireUser...)
	teams.Get("/", cfg.Teams.ListTeams)

	tasks := app.Group("/tasks", requireUser...)
	tasks.Get("/", cfg.Tasks.ListTasks)
	tasks.Post("/", cfg.Tasks.CreateTask)
	tasks.Get("/:id", cfg.Tasks.GetTask)
	tasks.Patch("/:id", cfg.Tasks.UpdateTask)
	tasks.Delete("/:id", cfg.Tasks.DeleteTask)

	tasks.Get("/:task_id/sub-tasks", cfg.SubTasks.ListSubTasks)
	tasks.Post("/:task_id/sub-tasks", cfg.SubTasks.AddSubTask)
	tasks.Get("/:task_id/sub-tasks/:id", cfg.SubTasks.GetSubTask)
	tasks.Delete("/:task_id/sub-tasks/:id", cfg.SubTasks.DeleteSubTask)

	subTasks := app.Group("/sub-tasks", requireUser...)
	subTasks.Post("/:id/completion", cfg.SubTasks.CompleteSubTask)
}
