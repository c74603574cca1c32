package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/mykafka"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

var (
	ErrValidation      = errors.New("validation")
	ErrNotFound        = errors.New("not found")
	ErrProductNotFound = errors.New("product not found")
)

// Catalog is the product lookup the cart needs to price its lines.
type Catalog interface {
	ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Owner identifies whose cart is touched. Email is stored on the cart when known.
type Owner struct {
	Key   string
	Email string
}

type Service struct {
	Store   Store
	Catalog Catalog
	Events  mykafka.Publisher
}

func NewService(store Store, catalog Catalog, events mykafka.Publisher) *Service {
	if events == nil {
		events = mykafka.NopPublisher{}
	}
	return &Service{Store: store, Catalog: catalog, Events: events}
}

func (s *Service) Get(ctx context.Context, ownerKey string) (Cart, error) {
	return s.Store.Get(ctx, ownerKey)
}

// Put replaces the cart. Lines below quantity one are dropped, duplicates are
// merged, and name, price and image are taken from the catalog. Lines whose
// product no longer exists are dropped.
func (s *Service) Put(ctx context.Context, owner Owner, items []Item) (Cart, error) {
	c := Cart{OwnerKey: owner.Key, Items: items, Email: owner.Email}
	if err := c.Normalize(); err != nil {
		return Cart{}, err
	}

	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Catalog.ProductsByID(ctx, ids)
	if err != nil {
		return Cart{}, err
	}

	priced := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		p, ok := products[it.ProductID]
		if !ok {
			logging.FromContext(ctx).Warn("cart_put_unknown_product", "product_id", it.ProductID)
			continue
		}
		priced = append(priced, fromProduct(p, it.Quantity))
	}
	c.Items = priced

	if c.IsEmpty() {
		if err := s.Clear(ctx, owner.Key); err != nil {
			return Cart{}, err
		}
		return Cart{OwnerKey: owner.Key, Items: []Item{}}, nil
	}

	if err := s.Store.Put(ctx, owner.Key, c); err != nil {
		return Cart{}, err
	}
	s.emitUpdated(ctx, &c)
	return c, nil
}

func (s *Service) Clear(ctx context.Context, ownerKey string) error {
	if err := s.Store.Clear(ctx, ownerKey); err != nil {
		return err
	}
	mykafka.Emit(ctx, s.Events, logging.FromContext(ctx), mykafka.TopicCart, ownerKey,
		mykafka.NewEvent("cart_cleared", map[string]any{"ownerKey": ownerKey}))
	return nil
}

// AddItem adds qty units of a product; qty below one counts as one.
func (s *Service) AddItem(ctx context.Context, owner Owner, productID uuid.UUID, qty int64) (Cart, error) {
	if productID == uuid.Nil {
		return Cart{}, fmt.Errorf("productId is required: %w", ErrValidation)
	}
	if qty < 1 {
		qty = 1
	}
	if err := checkQuantity(qty); err != nil {
		return Cart{}, err
	}
	p, err := s.product(ctx, productID)
	if err != nil {
		return Cart{}, err
	}

	return s.update(ctx, owner, func(c *Cart) error {
		return c.Add(fromProduct(p, 0), qty)
	})
}

// SetQuantity sets a line's quantity; qty below one removes the line.
func (s *Service) SetQuantity(ctx context.Context, owner Owner, productID uuid.UUID, qty int64) (Cart, error) {
	if err := checkQuantity(qty); err != nil {
		return Cart{}, err
	}
	return s.update(ctx, owner, func(c *Cart) error {
		if !c.SetQuantity(productID, qty) {
			return fmt.Errorf("item not in cart: %w", ErrNotFound)
		}
		return nil
	})
}

func (s *Service) RemoveOne(ctx context.Context, owner Owner, productID uuid.UUID) (Cart, error) {
	return s.update(ctx, owner, func(c *Cart) error {
		if !c.RemoveOne(productID) {
			return fmt.Errorf("item not in cart: %w", ErrNotFound)
		}
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (Cart, error) {
	return s.update(ctx, owner, func(c *Cart) error {
		if !c.Remove(productID) {
			return fmt.Errorf("item not in cart: %w", ErrNotFound)
		}
		return nil
	})
}

// List returns the non-empty carts for the admin monitor.
func (s *Service) List(ctx context.Context) ([]Cart, error) {
	all, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Cart, 0, len(all))
	for _, c := range all {
		if !c.IsEmpty() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) update(ctx context.Context, owner Owner, fn func(*Cart) error) (Cart, error) {
	c, err := s.Store.Update(ctx, owner.Key, func(c *Cart) error {
		if owner.Email != "" {
			c.Email = owner.Email
		}
		return fn(c)
	})
	if err != nil {
		return Cart{}, err
	}
	s.emitUpdated(ctx, &c)
	return c, nil
}

func (s *Service) product(ctx context.Context, id uuid.UUID) (models.Product, error) {
	products, err := s.Catalog.ProductsByID(ctx, []uuid.UUID{id})
	if err != nil {
		return models.Product{}, fmt.Errorf("lookup product %s: %w", id, err)
	}
	p, ok := products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	return p, nil
}

func (s *Service) emitUpdated(ctx context.Context, c *Cart) {
	mykafka.Emit(ctx, s.Events, logging.FromContext(ctx), mykafka.TopicCart, c.OwnerKey,
		mykafka.NewEvent("cart_updated", map[string]any{
			"ownerKey": c.OwnerKey,
			"count":    c.Count(),
			"total":    c.Total(),
		}))
}

func fromProduct(p models.Product, qty int64) Item {
	return Item{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  qty,
		Image:     p.Image,
	}
}
