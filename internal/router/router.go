package router

import (
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	apiHandler "github.com/fastygo/tasker/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

// New registers every route. Task routes answer 401 until a session is
// authenticated; the guard lives in the workspace.
func New(handlers Handlers) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if handlers.Metrics != nil {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(handlers.Metrics))
	}

	api := r.Group("/api/v1")

	api.GET("/session", handlers.Auth.Session)
	api.GET("/events", handlers.Auth.Events)
	api.POST("/auth/login", handlers.Auth.Login)
	api.POST("/auth/register", handlers.Auth.Register)
	api.POST("/auth/google", handlers.Auth.Google)
	api.POST("/auth/facebook", handlers.Auth.Facebook)
	api.POST("/auth/logout", handlers.Auth.Logout)

	api.GET("/tasks", handlers.Task.GetTasks)
	api.POST("/tasks", handlers.Task.CreateTask)
	api.PATCH("/tasks/{id}", handlers.Task.UpdateTask)
	api.POST("/tasks/{id}/toggle", handlers.Task.ToggleTask)
	api.DELETE("/tasks/{id}", handlers.Task.DeleteTask)

	return r
}

// Chain wraps h so the first middleware runs outermost.
func Chain(h fasthttp.RequestHandler, middlewares ...func(fasthttp.RequestHandler) fasthttp.RequestHandler) fasthttp.RequestHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			h = middlewares[i](h)
		}
	}
	return h
}
