// internal/handler/router.go
package handler

import (
	"net/http"
	"paycheck-tracker/internal/auth"
	"paycheck-tracker/internal/finance"
	"paycheck-tracker/internal/middleware"
	"paycheck-tracker/internal/storage"
	"time"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Auth     *auth.Service
	Finance  *finance.Service
	Store    storage.RecordStorage
	Location *time.Location
}

// NewRouter builds the HTTP API. Callers may add more routes, such as the
// telegram webhook, to the returned engine.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(d.Auth)
	authMiddleware := middleware.NewAuthMiddleware(d.Auth)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)

	protected := v1.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		NewRecordHandler(d.Finance, d.Store).Register(protected)
		NewSummaryHandler(d.Store, d.Location).Register(protected)
	}
	return router
}
