package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/boutique/internal/cart"
	"github.com/Skotchmaster/boutique/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

type Line struct {
	ProductID uuid.UUID
	Quantity  int64
}

// mergeLines sums duplicate products and sorts by product id so concurrent
// orders lock rows in the same order. No merged line may exceed cart.MaxQuantity.
func mergeLines(lines []Line) ([]Line, error) {
	byID := make(map[uuid.UUID]int64, len(lines))
	for _, ln := range lines {
		if ln.Quantity < 1 || ln.Quantity > cart.MaxQuantity-byID[ln.ProductID] {
			return nil, fmt.Errorf("quantity for product %s must be between 1 and %d: %w", ln.ProductID, cart.MaxQuantity, ErrValidation)
		}
		byID[ln.ProductID] += ln.Quantity
	}
	out := make([]Line, 0, len(byID))
	for id, q := range byID {
		out = append(out, Line{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID.String() < out[j].ProductID.String() })
	return out, nil
}

// PlaceOrder decrements stock for every line and inserts the order in one
// transaction. Any failing line rolls the whole order back.
func (r *GormRepo) PlaceOrder(ctx context.Context, o *models.Order, lines []Line) error {
	lines, err := mergeLines(lines)
	if err != nil {
		return err
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := make([]models.OrderItem, 0, len(lines))
		var subtotal int64

		for _, ln := range lines {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", ln.ProductID, ln.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", ln.Quantity))
			if res.Error != nil {
				return res.Error
			}

			var p models.Product
			if err := tx.Where("id = ?", ln.ProductID).First(&p).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %s: %w", ln.ProductID, ErrProductNotFound)
				}
				return err
			}
			if res.RowsAffected == 0 {
				return &StockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: ln.Quantity}
			}

			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  ln.Quantity,
				Image:     p.Image,
			})
			subtotal += p.Price * ln.Quantity
		}

		o.Items = items
		o.Subtotal = subtotal
		o.Total = subtotal
		return tx.Create(o).Error
	})
}

type ListFilter struct {
	Status      string
	Email       string
	OrderNumber string
	UserID      *uuid.UUID
}

func (r *GormRepo) ListOrders(ctx context.Context, f ListFilter) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Email != "" {
		q = q.Where("LOWER(customer_email) = ?", strings.ToLower(f.Email))
	}
	if f.OrderNumber != "" {
		q = q.Where("order_number = ?", f.OrderNumber)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	orders := make([]models.Order, 0)
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus locks the order row and applies next when the transition is allowed.
func (r *GormRepo) UpdateStatus(ctx context.Context, id uuid.UUID, next string) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&o).Error; err != nil {
			return err
		}
		if !CanTransition(o.Status, next) {
			return fmt.Errorf("%s -> %s: %w", o.Status, next, ErrInvalidTransition)
		}
		if err := tx.Model(&o).Update("status", next).Error; err != nil {
			return err
		}
		return tx.Preload("Items").Where("id = ?", id).First(&o).Error
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}
