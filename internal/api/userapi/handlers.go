package userapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/api/middleware"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/auth"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/authz"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/services"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/storage"
)

type Handler struct {
	svc    *services.UserService
	tokens *auth.TokenManager
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type updateRequest struct {
	Role             *string `json:"role"`
	StorageAllowance *int64  `json:"storage_allowance"`
	IsActive         *bool   `json:"is_active"`
}

// Token exchanges credentials for a bearer token. The form's username
// field carries the account email.
func (h *Handler) Token(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.svc.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		log.Printf("Error: failed to sign token for %s: %v", user.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signup payload"})
		return
	}

	user, err := h.svc.Create(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewPublicUserView(user))
}

// My returns the caller's own account in full.
func (h *Handler) My(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	user, err := h.svc.Get(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewAdminUserView(user))
}

func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	filter := models.UserFilter{
		UserID:   c.Query("user_id"),
		Username: c.Query("username"),
		Email:    c.Query("email"),
	}
	if raw := c.Query("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
			return
		}
		filter.Role = role
	}

	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 10)
	desc := c.Query("desc") == "true"

	users, total, err := h.svc.List(c.Request.Context(), caller, filter, offset, limit, c.Query("sort_by"), desc)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]models.AdminUserView, 0, len(users))
	for _, u := range users {
		views = append(views, models.NewAdminUserView(u))
	}
	c.JSON(http.StatusOK, gin.H{"count": total, "users": views})
}

func (h *Handler) Update(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update payload"})
		return
	}
	update := models.UserUpdate{
		StorageAllowance: req.StorageAllowance,
		IsActive:         req.IsActive,
	}
	if req.Role != nil {
		role, ok := models.ParseRole(*req.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
			return
		}
		update.Role = &role
	}

	user, err := h.svc.Update(c.Request.Context(), caller, userID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewAdminUserView(user))
}

func (h *Handler) Delete(c *gin.Context) {
	caller, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	found, err := h.svc.Delete(c.Request.Context(), caller, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
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
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect email or password"})
	case errors.Is(err, authz.ErrSelfDemotion):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Admins cannot demote themselves"})
	case errors.Is(err, authz.ErrSelfDelete):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Admins cannot delete themselves"})
	case errors.Is(err, authz.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
	default:
		log.Printf("Error: user request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
