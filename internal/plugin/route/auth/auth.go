// Package auth serves account registration, login and profile updates.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts the /auth endpoints. Registration and login are public;
// the rest require auth.
func MountRoutes(r *gin.Engine, store registrystore.RecordStore, tokens *security.TokenResolver, auth gin.HandlerFunc) {
	g := r.Group("/auth")
	g.POST("/register", func(c *gin.Context) { register(c, store, tokens) })
	g.POST("/login", func(c *gin.Context) { login(c, store, tokens) })

	protected := g.Group("", auth)
	protected.GET("/me", func(c *gin.Context) { me(c, store) })
	protected.PUT("/username", func(c *gin.Context) { updateUsername(c, store) })
	protected.PUT("/password", func(c *gin.Context) { updatePassword(c, store) })
	protected.DELETE("/account", func(c *gin.Context) { deleteAccount(c, store) })
}

type credentials struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username *string `json:"username"`
}

func register(c *gin.Context, store registrystore.RecordStore, tokens *security.TokenResolver) {
	var req credentials
	_ = c.ShouldBindJSON(&req)
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	if len(req.Password) < security.MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}
	var username *string
	if req.Username != nil {
		if u := strings.TrimSpace(*req.Username); u != "" {
			username = &u
		}
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	user, err := store.CreateUser(c.Request.Context(), email, hash, username)
	if err != nil {
		handleError(c, err)
		return
	}
	token, err := tokens.Issue(user)
	if err != nil {
		handleError(c, err)
		return
	}
	log.Info("User registered", "userId", user.ID)
	c.JSON(http.StatusOK, gin.H{"user": userView(user), "token": token})
}

func login(c *gin.Context, store registrystore.RecordStore, tokens *security.TokenResolver) {
	var req credentials
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	user, err := store.GetUserByEmail(c.Request.Context(), req.Email)
	if registrystore.IsNotFound(err) || (err == nil && !security.CheckPassword(user.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	token, err := tokens.Issue(user)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user), "token": token})
}

func me(c *gin.Context, store registrystore.RecordStore) {
	user, err := store.GetUser(c.Request.Context(), security.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

func updateUsername(c *gin.Context, store registrystore.RecordStore) {
	var req struct {
		Username string `json:"username"`
	}
	_ = c.ShouldBindJSON(&req)
	name := strings.TrimSpace(req.Username)
	if len([]rune(name)) < security.MinUsernameLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be at least 2 characters"})
		return
	}
	user, err := store.UpdateUsername(c.Request.Context(), security.GetUserID(c), name)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

func updatePassword(c *gin.Context, store registrystore.RecordStore) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	_ = c.ShouldBindJSON(&req)
	if len(req.NewPassword) < security.MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be at least 6 characters"})
		return
	}
	ctx := c.Request.Context()
	userID := security.GetUserID(c)
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	if !security.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}
	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := store.UpdatePasswordHash(ctx, userID, hash); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func deleteAccount(c *gin.Context, store registrystore.RecordStore) {
	userID := security.GetUserID(c)
	if err := store.DeleteUser(c.Request.Context(), userID); err != nil {
		handleError(c, err)
		return
	}
	log.Info("User deleted", "userId", userID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func userView(u *model.User) gin.H {
	return gin.H{"id": u.ID, "email": u.Email, "username": u.Username}
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	var validation *registrystore.ValidationError
	var conflict *registrystore.ConflictError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"code": conflict.Code, "error": err.Error()})
	default:
		log.Error("Auth request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
