package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebook/backend/internal/models"
)

// EdgeRelation is a generic toggle over a unique-pair membership table.
// Favorite, CartItem and Subscription all share the same add/remove
// semantics and differ only in table and column names.
//
// Add relies on the store's unique constraint for duplicate detection
// rather than a pre-check, so two concurrent adds of the same pair
// have exactly one winner.
type EdgeRelation[E any] struct {
	db         *gorm.DB
	subjectCol string
	objectCol  string
	newEdge    func(subject, object uuid.UUID) *E
}

func NewEdgeRelation[E any](db *gorm.DB, subjectCol, objectCol string, newEdge func(subject, object uuid.UUID) *E) *EdgeRelation[E] {
	return &EdgeRelation[E]{
		db:         db,
		subjectCol: subjectCol,
		objectCol:  objectCol,
		newEdge:    newEdge,
	}
}

// Add creates the edge, failing with ErrAlreadyExists when present.
func (r *EdgeRelation[E]) Add(ctx context.Context, subject, object uuid.UUID) (*E, error) {
	edge := r.newEdge(subject, object)
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return edge, nil
}

// Remove deletes the edge, failing with ErrNotFound when absent.
func (r *EdgeRelation[E]) Remove(ctx context.Context, subject, object uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where(fmt.Sprintf("%s = ? AND %s = ?", r.subjectCol, r.objectCol), subject, object).
		Delete(new(E))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether the edge is present.
func (r *EdgeRelation[E]) Exists(ctx context.Context, subject, object uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(E)).
		Where(fmt.Sprintf("%s = ? AND %s = ?", r.subjectCol, r.objectCol), subject, object).
		Count(&count).Error
	return count > 0, err
}

// RelationshipService toggles favorites, cart membership and
// subscriptions. All operations are single-edge and check that the
// object entity exists before touching the edge table.
type RelationshipService struct {
	db            *gorm.DB
	favorites     *EdgeRelation[models.Favorite]
	cart          *EdgeRelation[models.CartItem]
	subscriptions *EdgeRelation[models.Subscription]
}

func NewRelationshipService(db *gorm.DB) *RelationshipService {
	return &RelationshipService{
		db: db,
		favorites: NewEdgeRelation(db, "user_id", "recipe_id", func(subject, object uuid.UUID) *models.Favorite {
			return &models.Favorite{UserID: subject, RecipeID: object}
		}),
		cart: NewEdgeRelation(db, "user_id", "recipe_id", func(subject, object uuid.UUID) *models.CartItem {
			return &models.CartItem{UserID: subject, RecipeID: object}
		}),
		subscriptions: NewEdgeRelation(db, "follower_id", "following_id", func(subject, object uuid.UUID) *models.Subscription {
			return &models.Subscription{FollowerID: subject, FollowingID: object}
		}),
	}
}

func (s *RelationshipService) getRecipe(ctx context.Context, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// AddFavorite marks the recipe as a favorite of the user and returns
// the recipe for the response representation.
func (s *RelationshipService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.favorites.Add(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *RelationshipService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	if _, err := s.getRecipe(ctx, recipeID); err != nil {
		return err
	}
	return s.favorites.Remove(ctx, userID, recipeID)
}

func (s *RelationshipService) IsFavorited(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	return s.favorites.Exists(ctx, userID, recipeID)
}

// AddCartItem puts the recipe into the user's shopping cart.
func (s *RelationshipService) AddCartItem(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.cart.Add(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *RelationshipService) RemoveCartItem(ctx context.Context, userID, recipeID uuid.UUID) error {
	if _, err := s.getRecipe(ctx, recipeID); err != nil {
		return err
	}
	return s.cart.Remove(ctx, userID, recipeID)
}

func (s *RelationshipService) IsInCart(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	return s.cart.Exists(ctx, userID, recipeID)
}

// Subscribe creates a follower edge to the author. Self-subscription
// is rejected before any existence check.
func (s *RelationshipService) Subscribe(ctx context.Context, followerID, followingID uuid.UUID) (*models.User, error) {
	if followerID == followingID {
		return nil, ErrSelfSubscription
	}

	var following models.User
	if err := s.db.WithContext(ctx).First(&following, "id = ?", followingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := s.subscriptions.Add(ctx, followerID, followingID); err != nil {
		return nil, err
	}
	return &following, nil
}

func (s *RelationshipService) Unsubscribe(ctx context.Context, followerID, followingID uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", followingID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return s.subscriptions.Remove(ctx, followerID, followingID)
}

func (s *RelationshipService) IsSubscribed(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	return s.subscriptions.Exists(ctx, followerID, followingID)
}
