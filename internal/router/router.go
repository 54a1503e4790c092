package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/teamtasks/api/handler"
)

type Handlers struct {
	Auth         *apiHandler.AuthHandler
	Profile      *apiHandler.ProfileHandler
	Team         *apiHandler.TeamHandler
	Task         *apiHandler.TaskHandler
	Notification *apiHandler.NotificationHandler
	Activity     *apiHandler.ActivityHandler
	Time         *apiHandler.TimeHandler
	Health       *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()
	auth := authMiddleware

	r.GET("/health", handlers.Health.Check)

	// Public auth routes
	r.POST("/api/v1/auth/signup", handlers.Auth.SignUp)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)

	api := r.Group("/api/v1")

	api.POST("/auth/logout", auth(handlers.Auth.Logout))
	api.POST("/auth/refresh", auth(handlers.Auth.Refresh))

	api.GET("/profile", auth(handlers.Profile.GetProfile))
	api.PUT("/profile", auth(handlers.Profile.UpdateProfile))
	api.PUT("/profile/password", auth(handlers.Profile.ChangePassword))
	api.GET("/users/search", auth(handlers.Profile.Search))

	api.GET("/teams", auth(handlers.Team.List))
	api.POST("/teams", auth(handlers.Team.Create))
	api.GET("/teams/{id}", auth(handlers.Team.Get))
	api.DELETE("/teams/{id}", auth(handlers.Team.Delete))
	api.POST("/teams/{id}/members", auth(handlers.Team.AddMember))
	api.DELETE("/teams/{id}/members/{username}", auth(handlers.Team.RemoveMember))
	api.GET("/teams/{id}/members/{userID}/activity", auth(handlers.Activity.Page))
	api.GET("/teams/{id}/tasks", auth(handlers.Task.List))
	api.POST("/teams/{id}/tasks", auth(handlers.Task.Create))

	api.GET("/tasks/{id}", auth(handlers.Task.Get))
	api.PUT("/tasks/{id}", auth(handlers.Task.Update))
	api.DELETE("/tasks/{id}", auth(handlers.Task.Delete))
	api.PUT("/tasks/{id}/assignees", auth(handlers.Task.SetAssignees))
	api.POST("/tasks/{id}/completion", auth(handlers.Task.ToggleCompletion))
	api.POST("/tasks/{id}/seen", auth(handlers.Notification.MarkSeen))
	api.GET("/tasks/{id}/time", auth(handlers.Time.Total))
	api.POST("/tasks/{id}/time", auth(handlers.Time.Submit))
	api.DELETE("/tasks/{id}/time", auth(handlers.Time.Reset))

	api.GET("/notifications", auth(handlers.Notification.List))
	api.GET("/reports/time", auth(handlers.Time.Summary))

	return r
}
