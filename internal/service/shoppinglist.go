package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebook/backend/internal/models"
)

// ReportLine is one aggregated ingredient of the shopping list.
// Grouping is by the (name, measurement unit) pair, not ingredient id.
type ReportLine struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int    `json:"total"`
}

// ShoppingListService aggregates a user's cart into a text report.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate returns the cart's recipes ordered by name and the summed
// ingredient lines ordered by ingredient name. ErrEmptyCart when the
// cart has no entries.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uuid.UUID) ([]models.Recipe, []ReportLine, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Joins("JOIN cart_items ON cart_items.recipe_id = recipes.id").
		Where("cart_items.user_id = ?", userID).
		Order("recipes.name ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, nil, err
	}
	if len(recipes) == 0 {
		return nil, nil, ErrEmptyCart
	}

	ids := make([]uuid.UUID, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}

	var lines []ReportLine
	err = s.db.WithContext(ctx).Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN ?", ids).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, nil, err
	}

	return recipes, lines, nil
}

// BuildReport renders the aggregated cart as a plain-text report:
// the chosen recipe names, a rule, and one line per ingredient.
func (s *ShoppingListService) BuildReport(ctx context.Context, userID uuid.UUID) (string, error) {
	recipes, lines, err := s.Aggregate(ctx, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Selected recipes:\n\n")
	for _, r := range recipes {
		b.WriteString(r.Name)
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("-", 50))
	b.WriteString("\n\nIngredients needed:\n\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "%s: %d %s\n", line.Name, line.Total, line.MeasurementUnit)
	}

	return b.String(), nil
}
