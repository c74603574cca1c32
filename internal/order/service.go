package order

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/cart"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/mykafka"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type StockError struct {
	ProductID uuid.UUID
	Name      string
	Available int64
	Requested int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested", e.Name, e.Available, e.Requested)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Carts is the part of the cart service an order needs.
type Carts interface {
	Get(ctx context.Context, ownerKey string) (cart.Cart, error)
	Clear(ctx context.Context, ownerKey string) error
}

type OrderService struct {
	Repo   *GormRepo
	Seq    Sequencer
	Carts  Carts
	Events mykafka.Publisher
	Now    func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Viewer is who is asking for orders.
type Viewer struct {
	UserID *uuid.UUID
	Email  string
	Admin  bool
}

func validatePlace(req *PlaceOrderRequest) error {
	c := &req.Customer
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.FirstName == "" || c.LastName == "" || c.Email == "" || c.Phone == "" {
		return fmt.Errorf("customer firstName, lastName, email and phone are required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("customer email is invalid: %w", ErrValidation)
	}

	a := req.ShippingAddress
	if strings.TrimSpace(a.Address) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.State) == "" ||
		strings.TrimSpace(a.ZipCode) == "" || strings.TrimSpace(a.Country) == "" {
		return fmt.Errorf("complete shipping address is required: %w", ErrValidation)
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return fmt.Errorf("payment method is required: %w", ErrValidation)
	}
	for _, it := range req.Items {
		if it.ProductID == uuid.Nil {
			return fmt.Errorf("productId is required for every item: %w", ErrValidation)
		}
		if it.Quantity < 1 || it.Quantity > cart.MaxQuantity {
			return fmt.Errorf("quantity must be between 1 and %d: %w", cart.MaxQuantity, ErrValidation)
		}
	}
	return nil
}

// PlaceOrder builds the order from the request items, or from the owner's cart
// when the request carries none. The cart is cleared once the order commits.
func (s *OrderService) PlaceOrder(ctx context.Context, ownerKey string, userID *uuid.UUID, req PlaceOrderRequest) (*models.Order, error) {
	if err := validatePlace(&req); err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if len(lines) == 0 && ownerKey != "" {
		c, err := s.Carts.Get(ctx, ownerKey)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		for _, it := range c.Items {
			if it.Quantity < 1 {
				continue
			}
			lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("order has no items: %w", ErrValidation)
	}
	lines, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	seq, err := s.Seq.Next(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	o := &models.Order{
		OrderNumber:     FormatNumber(now, seq),
		UserID:          userID,
		Customer:        req.Customer,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          StatusPending,
	}
	if err := s.Repo.PlaceOrder(ctx, o, lines); err != nil {
		return nil, err
	}

	l := logging.FromContext(ctx)
	if ownerKey != "" {
		if err := s.Carts.Clear(ctx, ownerKey); err != nil {
			l.Error("order_cart_clear_error", "order_number", o.OrderNumber, "error", err)
		}
	}
	mykafka.Emit(ctx, s.Events, l, mykafka.TopicOrder, o.OrderNumber,
		mykafka.NewEvent("order_placed", map[string]any{
			"id":          o.ID,
			"orderNumber": o.OrderNumber,
			"email":       o.Customer.Email,
			"items":       len(o.Items),
			"total":       o.Total,
		}))
	return o, nil
}

// ListOrders scopes the filter to what the viewer may see. Guests must name
// both the order number and the customer email.
func (s *OrderService) ListOrders(ctx context.Context, v Viewer, f ListFilter) ([]models.Order, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, fmt.Errorf("unknown status %q: %w", f.Status, ErrValidation)
	}
	switch {
	case v.Admin:
	case v.UserID != nil:
		f.UserID = v.UserID
	default:
		if f.OrderNumber == "" || f.Email == "" {
			return nil, fmt.Errorf("orderNumber and email are required: %w", ErrUnauthorized)
		}
	}
	return s.Repo.ListOrders(ctx, f)
}

func (s *OrderService) GetOrder(ctx context.Context, v Viewer, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	switch {
	case v.Admin:
	case v.UserID != nil && o.UserID != nil && *o.UserID == *v.UserID:
	case v.UserID == nil && v.Email != "" && strings.EqualFold(v.Email, o.Customer.Email):
	default:
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}
	o, err := s.Repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	mykafka.Emit(ctx, s.Events, logging.FromContext(ctx), mykafka.TopicOrder, o.OrderNumber,
		mykafka.NewEvent("order_status_changed", map[string]any{
			"id":          o.ID,
			"orderNumber": o.OrderNumber,
			"status":      o.Status,
		}))
	return o, nil
}
