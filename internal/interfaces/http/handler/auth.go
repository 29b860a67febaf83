package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles back-office authentication
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
	jwtConfig  config.JWTConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(jwtService *auth.JWTService, jwtConfig config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		jwtConfig:  jwtConfig,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=200"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if req.Username != h.jwtConfig.AdminUsername || !auth.VerifyPassword(h.jwtConfig.AdminPassword, req.Password) {
		h.Unauthorized(c, "Invalid credentials")
		return
	}

	token, err := h.jwtService.GenerateToken(req.Username)
	if err != nil {
		h.InternalError(c, "Failed to issue token")
		return
	}

	h.Success(c, token)
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
}
