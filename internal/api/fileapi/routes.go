package fileapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/api/middleware"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/auth"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/services"
)

// RegisterRoutes wires the file endpoints onto the engine.
func RegisterRoutes(r *gin.Engine, svc *services.FileService, tokens *auth.TokenManager, serviceName string) {
	// Enable CORS for preflight requests
	r.Use(middleware.CORS())
	if serviceName != "" {
		r.Use(gintrace.Middleware(serviceName))
	}

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &Handler{svc: svc}

	files := r.Group("/api/files")
	files.Use(middleware.RequireAuth(tokens))
	{
		files.POST("/upload", h.Upload)      // upload a file
		files.GET("/download", h.Download)   // download file contents
		files.GET("", h.Info)                // single file metadata
		files.GET("/list/", h.List)          // paged listing
		files.GET("/search/", h.Search)      // regex search on filenames
		files.GET("/count", h.Count)         // number of stored files
		files.GET("/usage", h.Usage)         // total bytes stored
		files.DELETE("", h.Delete)           // delete file
	}
}
