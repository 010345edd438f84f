package userapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/api/middleware"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/auth"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/services"
)

// RegisterRoutes wires the account endpoints onto the engine.
func RegisterRoutes(r *gin.Engine, svc *services.UserService, tokens *auth.TokenManager, serviceName string) {
	// Enable CORS for preflight requests
	r.Use(middleware.CORS())
	if serviceName != "" {
		r.Use(gintrace.Middleware(serviceName))
	}

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &Handler{svc: svc, tokens: tokens}

	r.POST("/api/auth/token", h.Token)
	r.POST("/api/users", h.Signup)

	users := r.Group("/api/users")
	users.Use(middleware.RequireAuth(tokens))
	{
		users.GET("/my", h.My)       // the caller's own account
		users.GET("/", h.List)       // admin listing with filters
		users.PUT("", h.Update)      // admin account changes
		users.DELETE("", h.Delete)   // admin account removal
	}
}
