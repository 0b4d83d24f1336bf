package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platebook/backend/internal/middleware"
	"github.com/platebook/backend/internal/models"
	"github.com/platebook/backend/internal/service"
)

// RecipeHandler serves recipes, favorite/cart toggles and the
// shopping-list download.
type RecipeHandler struct {
	recipes  *service.RecipeService
	rel      *service.RelationshipService
	shopping *service.ShoppingListService
	auth     *service.AuthService
	baseURL  string
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	rel *service.RelationshipService,
	shopping *service.ShoppingListService,
	auth *service.AuthService,
	baseURL string,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		rel:      rel,
		shopping: shopping,
		auth:     auth,
		baseURL:  baseURL,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuthMiddleware(h.auth), h.ListRecipes)
		recipes.POST("", middleware.AuthMiddleware(h.auth), h.CreateRecipe)
		recipes.GET("/download_shopping_cart", middleware.AuthMiddleware(h.auth), h.DownloadShoppingCart)
		recipes.GET("/:recipe_id", middleware.OptionalAuthMiddleware(h.auth), h.GetRecipe)
		recipes.PUT("/:recipe_id", middleware.AuthMiddleware(h.auth), h.UpdateRecipe)
		recipes.PATCH("/:recipe_id", middleware.AuthMiddleware(h.auth), h.UpdateRecipe)
		recipes.DELETE("/:recipe_id", middleware.AuthMiddleware(h.auth), h.DeleteRecipe)
		recipes.GET("/:recipe_id/get-link", h.GetShortLink)
		recipes.POST("/:recipe_id/favorite", middleware.AuthMiddleware(h.auth), h.AddFavorite)
		recipes.DELETE("/:recipe_id/favorite", middleware.AuthMiddleware(h.auth), h.RemoveFavorite)
		recipes.POST("/:recipe_id/shopping_cart", middleware.AuthMiddleware(h.auth), h.AddCartItem)
		recipes.DELETE("/:recipe_id/shopping_cart", middleware.AuthMiddleware(h.auth), h.RemoveCartItem)
	}
}

func recipeInput(req RecipeRequest) service.RecipeInput {
	lines := make([]service.IngredientAmount, 0, len(req.Ingredients))
	for _, l := range req.Ingredients {
		lines = append(lines, service.IngredientAmount{ID: l.ID, Amount: l.Amount})
	}
	return service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		Ingredients: lines,
	}
}

// buildRecipeResponse assembles the full viewer-relative recipe
// representation.
func (h *RecipeHandler) buildRecipeResponse(c *gin.Context, recipe *models.Recipe) (RecipeResponse, error) {
	ctx := c.Request.Context()

	lines, err := h.recipes.Lines(ctx, recipe.ID)
	if err != nil {
		return RecipeResponse{}, err
	}
	ingredients := make([]IngredientLineResponse, 0, len(lines))
	for _, line := range lines {
		out := IngredientLineResponse{
			ID:     line.IngredientID,
			Amount: line.Amount,
		}
		if line.Ingredient != nil {
			out.Name = line.Ingredient.Name
			out.MeasurementUnit = line.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, out)
	}

	var author UserResponse
	if recipe.Author != nil {
		author = newUserResponse(recipe.Author, false)
		if viewer, ok := currentUserID(c); ok && viewer != recipe.AuthorID {
			subscribed, err := h.rel.IsSubscribed(ctx, viewer, recipe.AuthorID)
			if err != nil {
				return RecipeResponse{}, err
			}
			author.IsSubscribed = subscribed
		}
	}

	var favorited, inCart bool
	if viewer, ok := currentUserID(c); ok {
		if favorited, err = h.rel.IsFavorited(ctx, viewer, recipe.ID); err != nil {
			return RecipeResponse{}, err
		}
		if inCart, err = h.rel.IsInCart(ctx, viewer, recipe.ID); err != nil {
			return RecipeResponse{}, err
		}
	}

	return RecipeResponse{
		ID:               recipe.ID,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}, nil
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := service.ListFilter{
		Favorited: c.Query("is_favorited"),
		InCart:    c.Query("is_in_shopping_cart"),
	}
	if viewer, ok := currentUserID(c); ok {
		filter.Viewer = &viewer
	}
	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusOK, []RecipeResponse{})
			return
		}
		filter.AuthorID = &id
	}

	recipes, err := h.recipes.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	page := paginate(c, recipes)
	out := make([]RecipeResponse, 0, len(page))
	for i := range page {
		resp, err := h.buildRecipeResponse(c, &page[i])
		if err != nil {
			abortWithError(c, err)
			return
		}
		out = append(out, resp)
	}

	c.JSON(http.StatusOK, out)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp, err := h.buildRecipeResponse(c, recipe)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), mustUserID(c), recipeInput(req))
	if err != nil {
		abortWithError(c, err)
		return
	}

	created, err := h.recipes.Get(c.Request.Context(), recipe.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, err := h.buildRecipeResponse(c, created)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, mustUserID(c), recipeInput(req))
	if err != nil {
		abortWithError(c, err)
		return
	}

	updated, err := h.recipes.Get(c.Request.Context(), recipe.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp, err := h.buildRecipeResponse(c, updated)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), id, mustUserID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResolveShortLink redirects a short recipe link to the canonical
// recipe page. Registered at the root, outside the /api group.
func (h *RecipeHandler) ResolveShortLink(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	if _, err := h.recipes.Get(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/recipes/"+id.String())
}

func (h *RecipeHandler) GetShortLink(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	if _, err := h.recipes.Get(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"short-link": fmt.Sprintf("%s/s/%s", h.baseURL, id)})
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	recipe, err := h.rel.AddFavorite(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeShortResponse(recipe))
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	if err := h.rel.RemoveFavorite(c.Request.Context(), mustUserID(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddCartItem(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	recipe, err := h.rel.AddCartItem(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeShortResponse(recipe))
}

func (h *RecipeHandler) RemoveCartItem(c *gin.Context) {
	id, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	if err := h.rel.RemoveCartItem(c.Request.Context(), mustUserID(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	report, err := h.shopping.BuildReport(c.Request.Context(), mustUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping-list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}
