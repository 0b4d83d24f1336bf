package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/platebook/backend/internal/api"
	"github.com/platebook/backend/internal/middleware"
)

// Setup configures the application routes.
func Setup(
	log *logrus.Logger,
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	recipeHandler *api.RecipeHandler,
	ingredientHandler *api.IngredientHandler,
) *gin.Engine {
	api.RegisterValidations()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin"},
		AllowCredentials: true,
	}))

	root := router.Group("/api")
	authHandler.RegisterRoutes(root)
	userHandler.RegisterRoutes(root)
	recipeHandler.RegisterRoutes(root)
	ingredientHandler.RegisterRoutes(root)

	router.GET("/s/:recipe_id", recipeHandler.ResolveShortLink)

	return router
}
