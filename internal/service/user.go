package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebook/backend/internal/models"
)

// UserService handles user reads, avatars and the subscription
// listing.
type UserService struct {
	db            *gorm.DB
	images        ImageStore
	maxImageBytes int64
}

func NewUserService(db *gorm.DB, images ImageStore, maxImageBytes int64) *UserService {
	return &UserService{
		db:            db,
		images:        images,
		maxImageBytes: maxImageBytes,
	}
}

// List returns all users ordered by username.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Get retrieves a user by id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetAvatar validates and stores a new avatar image, replacing any
// previous one.
func (s *UserService) SetAvatar(ctx context.Context, userID uuid.UUID, payload string) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if payload == "" {
		return nil, newValidationError("avatar", ReasonEmpty, "avatar is required")
	}
	data, contentType, err := DecodeBase64Image(payload)
	if err != nil {
		return nil, newValidationError("avatar", ReasonBadFormat, "avatar must be a valid base64 payload")
	}
	if int64(len(data)) > s.maxImageBytes {
		return nil, newValidationError("avatar", ReasonTooLarge, "avatar exceeds the maximum allowed size")
	}

	url, err := s.images.Upload(ctx, data, contentType, "avatars")
	if err != nil {
		return nil, err
	}

	if user.AvatarURL != "" {
		// Old object is best-effort garbage; the reference swap matters.
		_ = s.images.Delete(ctx, user.AvatarURL)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("avatar_url", url).Error; err != nil {
		return nil, err
	}
	user.AvatarURL = url
	return user, nil
}

// DeleteAvatar removes the stored avatar and clears the reference.
func (s *UserService) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.AvatarURL == "" {
		return nil
	}

	if err := s.images.Delete(ctx, user.AvatarURL); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("avatar_url", "").Error
}

// SubscriptionEntry is one followed author with their recipes.
type SubscriptionEntry struct {
	User         models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

// Subscriptions lists the authors the user follows, each with their
// recipes (newest first, capped by recipesLimit when positive) and the
// total recipe count.
func (s *UserService) Subscriptions(ctx context.Context, followerID uuid.UUID, recipesLimit int) ([]SubscriptionEntry, error) {
	var followed []models.User
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.following_id = users.id").
		Where("subscriptions.follower_id = ?", followerID).
		Order("users.username ASC").
		Find(&followed).Error
	if err != nil {
		return nil, err
	}

	entries := make([]SubscriptionEntry, 0, len(followed))
	for _, author := range followed {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
			Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
			return nil, err
		}

		query := s.db.WithContext(ctx).Model(&models.Recipe{}).
			Where("author_id = ?", author.ID).
			Order("created_at DESC").Order("id DESC")
		if recipesLimit > 0 {
			query = query.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := query.Find(&recipes).Error; err != nil {
			return nil, err
		}

		entries = append(entries, SubscriptionEntry{
			User:         author,
			Recipes:      recipes,
			RecipesCount: count,
		})
	}

	return entries, nil
}
