// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/notice-board/internal/handler"
	"github.com/iliyamo/notice-board/internal/middleware"
	"github.com/iliyamo/notice-board/internal/repository"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Notices   *handler.NoticeHandler
	Dashboard *handler.DashboardHandler
	JWTSecret string

	Redis          *redis.Client
	LoginRateLimit int
	LoginRateWin   time.Duration
}

// Register mounts all routes. Unauthenticated: health, login, refresh.
// Authenticated (any role): me, logout, notice reads. Admin: notice writes
// and dashboard statistics.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	pub := e.Group("/v1/auth")
	pub.POST("/login", d.Auth.Login,
		middleware.LoginRateLimit(d.Redis, d.LoginRateLimit, d.LoginRateWin))
	pub.POST("/refresh", d.Auth.Refresh)

	authed := e.Group("/v1")
	authed.Use(middleware.JWTAuth(d.JWTSecret))
	authed.POST("/auth/logout", d.Auth.Logout)
	authed.GET("/me", d.Auth.Me)
	authed.GET("/notices", d.Notices.List)
	authed.GET("/notices/:id", d.Notices.Get)

	admin := authed.Group("")
	admin.Use(middleware.RequireRole(repository.RoleAdmin))
	admin.POST("/notices", d.Notices.Create)
	admin.PATCH("/notices/:id", d.Notices.Update)
	admin.DELETE("/notices/:id", d.Notices.Delete)
	admin.GET("/dashboard/stats", d.Dashboard.Stats)
}
