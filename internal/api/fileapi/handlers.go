package fileapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/api/middleware"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/authz"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/services"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/storage"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/validation"
)

type Handler struct {
	svc *services.FileService
}

func (h *Handler) Upload(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer src.Close()

	meta, err := h.svc.Upload(c.Request.Context(), caller, c.Query("user_id"), fileHeader.Filename, src)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *Handler) Download(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
		return
	}

	meta, rc, err := h.svc.Download(c.Request.Context(), caller, c.Query("user_id"), filename)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+meta.Filename)
	c.Header("Content-Transfer-Encoding", "binary")
	c.DataFromReader(http.StatusOK, meta.Size, "application/octet-stream", rc, nil)
}

func (h *Handler) Info(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
		return
	}

	meta, err := h.svc.Info(c.Request.Context(), caller, c.Query("user_id"), filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 100)
	desc := c.Query("desc") == "true"

	files, err := h.svc.List(c.Request.Context(), caller, c.Query("user_id"), offset, limit, c.Query("sort_by"), desc)
	if err != nil {
		respondError(c, err)
		return
	}
	if files == nil {
		files = []models.FileMeta{}
	}
	c.JSON(http.StatusOK, files)
}

func (h *Handler) Search(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern is required"})
		return
	}

	files, err := h.svc.Search(c.Request.Context(), caller, c.Query("user_id"), pattern, intQuery(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	if files == nil {
		files = []models.FileMeta{}
	}
	c.JSON(http.StatusOK, files)
}

func (h *Handler) Count(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	count, err := h.svc.Count(c.Request.Context(), caller, c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handler) Usage(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	total, err := h.svc.Usage(c.Request.Context(), caller, c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"storage_used": total})
}

func (h *Handler) Delete(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
		return
	}

	found, err := h.svc.Delete(c.Request.Context(), caller, c.Query("user_id"), filename)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func respondError(c *gin.Context, err error) {
	var verr *validation.FileValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, authz.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	case errors.Is(err, storage.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "File already exists"})
	default:
		log.Printf("Error: file request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
