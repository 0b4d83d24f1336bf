package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebook/backend/internal/models"
)

// Bounds shared by cooking_time and ingredient amounts.
const (
	MinAmount = 1
	MaxAmount = 32000
)

// IngredientAmount is one line of a recipe's ingredient list.
type IngredientAmount struct {
	ID     uuid.UUID
	Amount int
}

// RecipeInput is the payload for creating or fully updating a recipe.
// The ingredient list always replaces the stored set wholesale.
type RecipeInput struct {
	Name        string
	Text        string
	Image       string // base64, bare or data URI
	CookingTime int
	Ingredients []IngredientAmount
}

// RecipeService handles recipe reads and writes.
type RecipeService struct {
	db            *gorm.DB
	images        ImageStore
	maxImageBytes int64
}

func NewRecipeService(db *gorm.DB, images ImageStore, maxImageBytes int64) *RecipeService {
	return &RecipeService{
		db:            db,
		images:        images,
		maxImageBytes: maxImageBytes,
	}
}

// validate checks the payload per the recipe write contract and
// returns the decoded image. The ingredient existence check is a
// single set-membership query over the full requested id set.
func (s *RecipeService) validate(ctx context.Context, input RecipeInput) ([]byte, string, error) {
	if input.CookingTime < MinAmount || input.CookingTime > MaxAmount {
		return nil, "", newValidationError("cooking_time", ReasonOutOfRange, "cooking time must be between 1 and 32000 minutes")
	}

	if input.Image == "" {
		return nil, "", newValidationError("image", ReasonEmpty, "image is required")
	}
	data, contentType, err := DecodeBase64Image(input.Image)
	if err != nil {
		return nil, "", newValidationError("image", ReasonBadFormat, "image must be a valid base64 payload")
	}
	if int64(len(data)) > s.maxImageBytes {
		return nil, "", newValidationError("image", ReasonTooLarge, "image exceeds the maximum allowed size")
	}

	if len(input.Ingredients) == 0 {
		return nil, "", newValidationError("ingredients", ReasonEmpty, "ingredient list must not be empty")
	}

	ids := make([]uuid.UUID, 0, len(input.Ingredients))
	seen := make(map[uuid.UUID]struct{}, len(input.Ingredients))
	for _, line := range input.Ingredients {
		if _, dup := seen[line.ID]; dup {
			return nil, "", &ValidationError{
				Field:   "ingredients",
				Reason:  ReasonDuplicateIngredient,
				IDs:     []uuid.UUID{line.ID},
				Message: "ingredients must not repeat",
			}
		}
		seen[line.ID] = struct{}{}
		ids = append(ids, line.ID)

		if line.Amount < MinAmount || line.Amount > MaxAmount {
			return nil, "", newValidationError("ingredients", ReasonBadAmount, "amount must be between 1 and 32000")
		}
	}

	var existing []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).
		Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return nil, "", err
	}
	if len(existing) != len(ids) {
		found := make(map[uuid.UUID]struct{}, len(existing))
		for _, id := range existing {
			found[id] = struct{}{}
		}
		var missing []uuid.UUID
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, "", &ValidationError{
			Field:   "ingredients",
			Reason:  ReasonUnknownIngredient,
			IDs:     missing,
			Message: "some ingredients were not found",
		}
	}

	return data, contentType, nil
}

// Create validates the payload, stores the image and persists the
// recipe together with its ingredient links in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	data, contentType, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Upload(ctx, data, contentType, "recipes")
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Text:        input.Text,
		ImageURL:    imageURL,
		CookingTime: input.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return &recipe, nil
}

// Update is a full replace: every field and the whole ingredient set.
// Only the author may update.
func (s *RecipeService) Update(ctx context.Context, recipeID, actorID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != actorID {
		return nil, ErrPermissionDenied
	}

	data, contentType, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Upload(ctx, data, contentType, "recipes")
	if err != nil {
		return nil, err
	}

	recipe.Name = input.Name
	recipe.Text = input.Text
	recipe.ImageURL = imageURL
	recipe.CookingTime = input.CookingTime

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&recipe).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return &recipe, nil
}

func replaceIngredients(tx *gorm.DB, recipeID uuid.UUID, lines []IngredientAmount) error {
	links := make([]models.RecipeIngredient, len(lines))
	for i, line := range lines {
		links[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.ID,
			Amount:       line.Amount,
		}
	}
	return tx.Create(&links).Error
}

// Get retrieves a recipe by id.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Preload("Author").First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Lines returns the recipe's ingredient links with the catalog rows.
func (s *RecipeService) Lines(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error) {
	var lines []models.RecipeIngredient
	err := s.db.WithContext(ctx).Preload("Ingredient").
		Where("recipe_id = ?", recipeID).Order("id").Find(&lines).Error
	return lines, err
}

// Delete removes the recipe and cascades to its ingredient links,
// favorites and cart entries inside one transaction. Only the author
// may delete.
func (s *RecipeService) Delete(ctx context.Context, recipeID, actorID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if recipe.AuthorID != actorID {
		return ErrPermissionDenied
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipeID).Error
	})
}

// ListFilter narrows the recipe listing. Membership filters take the
// raw query value: "1" selects edges of the viewer, any other
// non-empty value selects the complement. Both are ignored when there
// is no authenticated viewer.
type ListFilter struct {
	AuthorID  *uuid.UUID
	Favorited string
	InCart    string
	Viewer    *uuid.UUID
}

// List returns the full ordered result, newest first. Pagination is
// the caller's concern.
func (s *RecipeService) List(ctx context.Context, filter ListFilter) ([]models.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{}).Preload("Author").
		Order("created_at DESC").Order("id DESC")

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}

	if filter.Viewer != nil {
		if filter.Favorited != "" {
			sub := s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *filter.Viewer)
			if filter.Favorited == "1" {
				query = query.Where("recipes.id IN (?)", sub)
			} else {
				query = query.Where("recipes.id NOT IN (?)", sub)
			}
		}
		if filter.InCart != "" {
			sub := s.db.Model(&models.CartItem{}).Select("recipe_id").Where("user_id = ?", *filter.Viewer)
			if filter.InCart == "1" {
				query = query.Where("recipes.id IN (?)", sub)
			} else {
				query = query.Where("recipes.id NOT IN (?)", sub)
			}
		}
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}
