package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/platebook/backend/internal/middleware"
	"github.com/platebook/backend/internal/models"
	"github.com/platebook/backend/internal/service"
)

// UserHandler serves user accounts, avatars and subscriptions.
type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
	rel   *service.RelationshipService
}

func NewUserHandler(users *service.UserService, auth *service.AuthService, rel *service.RelationshipService) *UserHandler {
	return &UserHandler{users: users, auth: auth, rel: rel}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", middleware.OptionalAuthMiddleware(h.auth), h.ListUsers)
		users.POST("", h.Register)
		users.GET("/me", middleware.AuthMiddleware(h.auth), h.Me)
		users.PUT("/me/avatar", middleware.AuthMiddleware(h.auth), h.SetAvatar)
		users.DELETE("/me/avatar", middleware.AuthMiddleware(h.auth), h.DeleteAvatar)
		users.POST("/set_password", middleware.AuthMiddleware(h.auth), h.SetPassword)
		users.GET("/subscriptions", middleware.AuthMiddleware(h.auth), h.ListSubscriptions)
		users.GET("/:user_id", middleware.OptionalAuthMiddleware(h.auth), h.GetUser)
		users.POST("/:user_id/subscribe", middleware.AuthMiddleware(h.auth), h.Subscribe)
		users.DELETE("/:user_id/subscribe", middleware.AuthMiddleware(h.auth), h.Unsubscribe)
	}
}

// userResponseFor renders a user relative to the current viewer.
func (h *UserHandler) userResponseFor(c *gin.Context, user *models.User) (UserResponse, error) {
	isSubscribed := false
	if viewer, ok := currentUserID(c); ok && viewer != user.ID {
		var err error
		isSubscribed, err = h.rel.IsSubscribed(c.Request.Context(), viewer, user.ID)
		if err != nil {
			return UserResponse{}, err
		}
	}
	return newUserResponse(user, isSubscribed), nil
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	page := paginate(c, users)
	out := make([]UserResponse, 0, len(page))
	for i := range page {
		resp, err := h.userResponseFor(c, &page[i])
		if err != nil {
			abortWithError(c, err)
			return
		}
		out = append(out, resp)
	}

	c.JSON(http.StatusOK, out)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp, err := h.userResponseFor(c, user)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), mustUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user, false))
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	var req AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "avatar is required"})
		return
	}

	user, err := h.users.SetAvatar(c.Request.Context(), mustUserID(c), req.Avatar)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar": user.AvatarURL})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	if err := h.users.DeleteAvatar(c.Request.Context(), mustUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "current and new password are required"})
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), mustUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	recipesLimit := 0
	if v := c.Query("recipes_limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			recipesLimit = n
		}
	}

	entries, err := h.users.Subscriptions(c.Request.Context(), mustUserID(c), recipesLimit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	page := paginate(c, entries)
	out := make([]SubscriptionResponse, 0, len(page))
	for i := range page {
		entry := &page[i]
		resp := SubscriptionResponse{
			// Every listed user is by definition subscribed to.
			UserResponse: newUserResponse(&entry.User, true),
			Recipes:      make([]RecipeShortResponse, 0, len(entry.Recipes)),
			RecipesCount: entry.RecipesCount,
		}
		for j := range entry.Recipes {
			resp.Recipes = append(resp.Recipes, newRecipeShortResponse(&entry.Recipes[j]))
		}
		out = append(out, resp)
	}

	c.JSON(http.StatusOK, out)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	following, err := h.rel.Subscribe(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(following, true))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.rel.Unsubscribe(c.Request.Context(), mustUserID(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
