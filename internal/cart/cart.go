// Package cart keeps shopping carts keyed by owner in Redis.
package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxQuantity caps a single line.
const MaxQuantity int64 = 999

func checkQuantity(q int64) error {
	if q > MaxQuantity {
		return fmt.Errorf("quantity must be at most %d: %w", MaxQuantity, ErrValidation)
	}
	return nil
}

type Item struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unitPrice"`
	Quantity  int64     `json:"quantity"`
	Image     string    `json:"image"`
}

func (i Item) LineTotal() int64 {
	return i.UnitPrice * i.Quantity
}

type Cart struct {
	OwnerKey  string    `json:"ownerKey"`
	Items     []Item    `json:"items"`
	Email     string    `json:"email,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Cart) Count() int64 {
	var n int64
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Total() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.LineTotal()
	}
	return sum
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) index(productID uuid.UUID) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add increments an existing line or appends a new one. The cart is left
// unchanged when the line would exceed MaxQuantity.
func (c *Cart) Add(item Item, qty int64) error {
	if i := c.index(item.ProductID); i >= 0 {
		if qty > MaxQuantity-c.Items[i].Quantity {
			return checkQuantity(MaxQuantity + 1)
		}
		c.Items[i].Quantity += qty
		return nil
	}
	if err := checkQuantity(qty); err != nil {
		return err
	}
	item.Quantity = qty
	c.Items = append(c.Items, item)
	return nil
}

// SetQuantity reports false when the product is not in the cart.
// Quantities above MaxQuantity are capped.
func (c *Cart) SetQuantity(productID uuid.UUID, qty int64) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if qty > MaxQuantity {
		qty = MaxQuantity
	}
	if qty < 1 {
		c.removeAt(i)
		return true
	}
	c.Items[i].Quantity = qty
	return true
}

// RemoveOne drops one unit; the last unit removes the line.
func (c *Cart) RemoveOne(productID uuid.UUID) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if c.Items[i].Quantity <= 1 {
		c.removeAt(i)
		return true
	}
	c.Items[i].Quantity--
	return true
}

func (c *Cart) Remove(productID uuid.UUID) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Normalize drops lines with quantity below one and merges duplicate products,
// keeping the first line's position. A merged line above MaxQuantity is an error.
func (c *Cart) Normalize() error {
	out := make([]Item, 0, len(c.Items))
	pos := make(map[uuid.UUID]int, len(c.Items))
	for _, it := range c.Items {
		if it.Quantity < 1 || it.ProductID == uuid.Nil {
			continue
		}
		if err := checkQuantity(it.Quantity); err != nil {
			return err
		}
		if i, ok := pos[it.ProductID]; ok {
			if it.Quantity > MaxQuantity-out[i].Quantity {
				return checkQuantity(MaxQuantity + 1)
			}
			out[i].Quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(out)
		out = append(out, it)
	}
	c.Items = out
	return nil
}

// View is the response body of every cart endpoint.
type View struct {
	Items []ItemView `json:"items"`
	Count int64      `json:"count"`
	Total int64      `json:"total"`
}

type ItemView struct {
	Item
	LineTotal int64 `json:"lineTotal"`
}

func (c *Cart) View() View {
	items := make([]ItemView, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, ItemView{Item: it, LineTotal: it.LineTotal()})
	}
	return View{Items: items, Count: c.Count(), Total: c.Total()}
}
