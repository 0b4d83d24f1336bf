package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platebook/backend/internal/middleware"
	"github.com/platebook/backend/internal/service"
)

// AuthHandler serves token login/logout.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	token := router.Group("/auth/token")
	{
		token.POST("/login", h.Login)
		token.POST("/logout", middleware.AuthMiddleware(h.auth), h.Logout)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email and password are required"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth_token": token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	v, _ := c.Get(middleware.ClaimsKey)
	claims, ok := v.(*service.TokenClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
