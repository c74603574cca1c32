package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/mykafka"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

var (
	ErrValidation      = errors.New("validation")
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicate       = errors.New("already in wishlist")
)

type WishlistService struct {
	DB     *gorm.DB
	Events mykafka.Publisher
}

// Products returns the user's wishlisted products in the order they were added.
func (s *WishlistService) Products(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var items []models.WishlistItem
	err := s.DB.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at").Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(items))
	for _, it := range items {
		if it.Product != nil {
			products = append(products, *it.Product)
		}
	}
	return products, nil
}

func (s *WishlistService) has(db *gorm.DB, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := db.Model(&models.WishlistItem{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&n).Error
	return n > 0, err
}

func (s *WishlistService) Add(ctx context.Context, userID, productID uuid.UUID) ([]models.Product, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("productId is required: %w", ErrValidation)
	}
	db := s.DB.WithContext(ctx)

	var n int64
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}
	exists, err := s.has(db, userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("product %s: %w", productID, ErrDuplicate)
	}
	if err := db.Create(&models.WishlistItem{UserID: userID, ProductID: productID}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrDuplicate)
		}
		return nil, err
	}

	s.emit(ctx, "wishlist_added", userID, productID)
	return s.Products(ctx, userID)
}

// Remove is idempotent: removing a product that is not listed is not an error.
func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) ([]models.Product, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("productId is required: %w", ErrValidation)
	}
	res := s.DB.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		s.emit(ctx, "wishlist_removed", userID, productID)
	}
	return s.Products(ctx, userID)
}

// Toggle flips membership and reports whether the product is now listed.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, []models.Product, error) {
	if productID == uuid.Nil {
		return false, nil, fmt.Errorf("productId is required: %w", ErrValidation)
	}
	exists, err := s.has(s.DB.WithContext(ctx), userID, productID)
	if err != nil {
		return false, nil, err
	}
	if exists {
		products, err := s.Remove(ctx, userID, productID)
		return false, products, err
	}
	products, err := s.Add(ctx, userID, productID)
	return err == nil, products, err
}

type UserWishlist struct {
	ID        uuid.UUID        `json:"id"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Email     string           `json:"email"`
	Wishlist  []models.Product `json:"wishlist"`
}

// All lists every user, newest first, with their wishlisted products.
func (s *WishlistService) All(ctx context.Context) ([]UserWishlist, error) {
	db := s.DB.WithContext(ctx)

	var users []models.User
	if err := db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	var items []models.WishlistItem
	if err := db.Preload("Product").Order("created_at").Order("id").Find(&items).Error; err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID][]models.Product, len(users))
	for _, it := range items {
		if it.Product != nil {
			byUser[it.UserID] = append(byUser[it.UserID], *it.Product)
		}
	}
	out := make([]UserWishlist, 0, len(users))
	for _, u := range users {
		list := byUser[u.ID]
		if list == nil {
			list = []models.Product{}
		}
		out = append(out, UserWishlist{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Wishlist: list})
	}
	return out, nil
}

func (s *WishlistService) emit(ctx context.Context, typ string, userID, productID uuid.UUID) {
	mykafka.Emit(ctx, s.Events, logging.FromContext(ctx), mykafka.TopicUser, userID.String(),
		mykafka.NewEvent(typ, map[string]any{"userId": userID, "productId": productID}))
}
