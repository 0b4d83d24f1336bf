package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platebook/backend/internal/models"
	"github.com/platebook/backend/internal/service"
	"github.com/platebook/backend/internal/testhelpers"
)

const maxTestImageBytes = 1 << 20

func validInput(ingredients ...service.IngredientAmount) service.RecipeInput {
	return service.RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		Image:       testhelpers.TinyPNG,
		CookingTime: 20,
		Ingredients: ingredients,
	}
}

func TestCreateRecipe(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, maxTestImageBytes)
	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	milk := testhelpers.CreateIngredient(t, db, "milk", "ml")

	recipe, err := recipes.Create(context.Background(), author.ID, validInput(
		service.IngredientAmount{ID: flour.ID, Amount: 200},
		service.IngredientAmount{ID: milk.ID, Amount: 300},
	))
	require.NoError(t, err)
	assert.Equal(t, author.ID, recipe.AuthorID)
	assert.NotEmpty(t, recipe.ImageURL)

	lines, err := recipes.Lines(context.Background(), recipe.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
}

func TestCreateRecipeValidation(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, maxTestImageBytes)
	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	tests := []struct {
		name   string
		mutate func(*service.RecipeInput)
		field  string
		reason string
	}{
		{
			name:   "cooking time too small",
			mutate: func(in *service.RecipeInput) { in.CookingTime = 0 },
			field:  "cooking_time",
			reason: service.ReasonOutOfRange,
		},
		{
			name:   "cooking time too large",
			mutate: func(in *service.RecipeInput) { in.CookingTime = 40000 },
			field:  "cooking_time",
			reason: service.ReasonOutOfRange,
		},
		{
			name:   "missing image",
			mutate: func(in *service.RecipeInput) { in.Image = "" },
			field:  "image",
			reason: service.ReasonEmpty,
		},
		{
			name:   "unparsable image",
			mutate: func(in *service.RecipeInput) { in.Image = "not base64 at all!!!" },
			field:  "image",
			reason: service.ReasonBadFormat,
		},
		{
			name:   "empty ingredient list",
			mutate: func(in *service.RecipeInput) { in.Ingredients = nil },
			field:  "ingredients",
			reason: service.ReasonEmpty,
		},
		{
			name: "non-positive amount",
			mutate: func(in *service.RecipeInput) {
				in.Ingredients = []service.IngredientAmount{{ID: flour.ID, Amount: 0}}
			},
			field:  "ingredients",
			reason: service.ReasonBadAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput(service.IngredientAmount{ID: flour.ID, Amount: 100})
			tc.mutate(&input)

			_, err := recipes.Create(context.Background(), author.ID, input)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.reason, verr.Reason)
		})
	}

	// None of the rejected writes may leave rows behind.
	var recipeCount, linkCount int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipeCount).Error)
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Count(&linkCount).Error)
	assert.Zero(t, recipeCount)
	assert.Zero(t, linkCount)
}

func TestCreateRecipeImageTooLarge(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, 16)
	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	_, err := recipes.Create(context.Background(), author.ID,
		validInput(service.IngredientAmount{ID: flour.ID, Amount: 100}))

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "image", verr.Field)
	assert.Equal(t, service.ReasonTooLarge, verr.Reason)
}

func TestCreateRecipeDuplicateIngredient(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, maxTestImageBytes)
	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	_, err := recipes.Create(context.Background(), author.ID, validInput(
		service.IngredientAmount{ID: flour.ID, Amount: 100},
		service.IngredientAmount{ID: flour.ID, Amount: 200},
	))

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, service.ReasonDuplicateIngredient, verr.Reason)

	var recipeCount int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipeCount).Error)
	assert.Zero(t, recipeCount)
}

func TestCreateRecipeUnknownIngredient(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, maxTestImageBytes)
	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	ghost := uuid.New()

	_, err := recipes.Create(context.Background(), author.ID, validInput(
		service.IngredientAmount{ID: flour.ID, Amount: 100},
		service.IngredientAmount{ID: ghost, Amount: 50},
	))

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, service.ReasonUnknownIngredient, verr.Reason)
	assert.Equal(t, []uuid.UUID{ghost}, verr.IDs)
}

func TestUpdateRecipeReplacesIngredientSet(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, maxTestImageBytes)
	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	milk := testhelpers.CreateIngredient(t, db, "milk", "ml")
	sugar := testhelpers.CreateIngredient(t, db, "sugar", "g")

	recipe, err := recipes.Create(context.Background(), author.ID, validInput(
		service.IngredientAmount{ID: flour.ID, Amount: 200},
		service.IngredientAmount{ID: milk.ID, Amount: 300},
	))
	require.NoError(t, err)

	input := validInput(
		service.IngredientAmount{ID: milk.ID, Amount: 150},
		service.IngredientAmount{ID: sugar.ID, Amount: 50},
	)
	input.Name = "Sweet pancakes"
	_, err = recipes.Update(context.Background(), recipe.ID, author.ID, input)
	require.NoError(t, err)

	lines, err := recipes.Lines(context.Background(), recipe.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	byID := map[uuid.UUID]int{}
	for _, line := range lines {
		byID[line.IngredientID] = line.Amount
	}
	assert.Equal(t, 150, byID[milk.ID])
	assert.Equal(t, 50, byID[sugar.ID])
	assert.NotContains(t, byID, flour.ID)

	updated, err := recipes.Get(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sweet pancakes", updated.Name)
}

func TestUpdateRecipeRejectedForNonAuthor(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, maxTestImageBytes)
	author := testhelpers.CreateUser(t, db, "alice")
	intruder := testhelpers.CreateUser(t, db, "bob")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	recipe, err := recipes.Create(context.Background(), author.ID,
		validInput(service.IngredientAmount{ID: flour.ID, Amount: 100}))
	require.NoError(t, err)

	_, err = recipes.Update(context.Background(), recipe.ID, intruder.ID,
		validInput(service.IngredientAmount{ID: flour.ID, Amount: 1}))
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	err = recipes.Delete(context.Background(), recipe.ID, intruder.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
}

func TestDeleteRecipeCascades(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, maxTestImageBytes)
	rel := service.NewRelationshipService(db)
	author := testhelpers.CreateUser(t, db, "alice")
	fan := testhelpers.CreateUser(t, db, "bob")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	recipe, err := recipes.Create(context.Background(), author.ID,
		validInput(service.IngredientAmount{ID: flour.ID, Amount: 100}))
	require.NoError(t, err)

	_, err = rel.AddFavorite(context.Background(), fan.ID, recipe.ID)
	require.NoError(t, err)
	_, err = rel.AddCartItem(context.Background(), fan.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, recipes.Delete(context.Background(), recipe.ID, author.ID))

	var links, favorites, cartItems int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&links).Error)
	require.NoError(t, db.Model(&models.Favorite{}).Where("recipe_id = ?", recipe.ID).Count(&favorites).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Where("recipe_id = ?", recipe.ID).Count(&cartItems).Error)
	assert.Zero(t, links)
	assert.Zero(t, favorites)
	assert.Zero(t, cartItems)

	_, err = recipes.Get(context.Background(), recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// The fan's cart is empty again, so aggregation reports that.
	shopping := service.NewShoppingListService(db)
	_, err = shopping.BuildReport(context.Background(), fan.ID)
	assert.ErrorIs(t, err, service.ErrEmptyCart)
}

func TestListRecipesFilters(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	recipes := service.NewRecipeService(db, &testhelpers.MemoryImageStore{}, maxTestImageBytes)
	rel := service.NewRelationshipService(db)
	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")

	mk := func(author uuid.UUID, name string) *models.Recipe {
		input := validInput(service.IngredientAmount{ID: flour.ID, Amount: 100})
		input.Name = name
		recipe, err := recipes.Create(context.Background(), author, input)
		require.NoError(t, err)
		return recipe
	}

	r1 := mk(alice.ID, "Bread")
	r2 := mk(bob.ID, "Soup")
	mk(bob.ID, "Salad")

	_, err := rel.AddFavorite(context.Background(), alice.ID, r2.ID)
	require.NoError(t, err)

	// Author filter.
	got, err := recipes.List(context.Background(), service.ListFilter{AuthorID: &bob.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Favorited filter, value "1" selects membership.
	got, err = recipes.List(context.Background(), service.ListFilter{Favorited: "1", Viewer: &alice.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r2.ID, got[0].ID)

	// Any other value selects the complement.
	got, err = recipes.List(context.Background(), service.ListFilter{Favorited: "0", Viewer: &alice.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Without a viewer the filter is ignored.
	got, err = recipes.List(context.Background(), service.ListFilter{Favorited: "1"})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// Cart filter.
	_, err = rel.AddCartItem(context.Background(), alice.ID, r1.ID)
	require.NoError(t, err)
	got, err = recipes.List(context.Background(), service.ListFilter{InCart: "1", Viewer: &alice.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r1.ID, got[0].ID)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &service.ValidationError{
		Field:   "ingredients",
		Reason:  service.ReasonUnknownIngredient,
		IDs:     []uuid.UUID{uuid.Nil},
		Message: "some ingredients were not found",
	}
	assert.True(t, strings.Contains(err.Error(), "ingredients"))
	assert.True(t, strings.Contains(err.Error(), uuid.Nil.String()))
}
