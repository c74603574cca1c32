package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/models"
)

var (
	ErrValidation      = errors.New("validation")
	ErrNotFound        = errors.New("not found")
	ErrProductNotFound = errors.New("product not found")
	ErrConflict        = errors.New("already reviewed")
)

const maxComment = 500

type CreateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewService struct {
	DB *gorm.DB
}

func publicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "first_name", "last_name", "email")
}

// ForProduct lists a product's reviews, newest first, with the reviewer's name.
func (s *ReviewService) ForProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	reviews := make([]models.Review, 0)
	err := s.DB.WithContext(ctx).
		Preload("User", publicUser).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (s *ReviewService) Create(ctx context.Context, userID, productID uuid.UUID, req CreateRequest) (*models.Review, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", ErrValidation)
	}
	if req.Comment == "" {
		return nil, fmt.Errorf("comment is required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(req.Comment) > maxComment {
		return nil, fmt.Errorf("comment cannot exceed %d characters: %w", maxComment, ErrValidation)
	}

	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}
	if err := db.Model(&models.Review{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("product %s: %w", productID, ErrConflict)
	}

	r := &models.Review{UserID: userID, ProductID: productID, Rating: req.Rating, Comment: req.Comment}
	if err := db.Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrConflict)
		}
		return nil, err
	}
	if err := db.Preload("User", publicUser).First(r, "id = ?", r.ID).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// All lists every review for moderation with reviewer and product name.
func (s *ReviewService) All(ctx context.Context) ([]models.Review, error) {
	reviews := make([]models.Review, 0)
	err := s.DB.WithContext(ctx).
		Preload("User", publicUser).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (s *ReviewService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return nil
}
