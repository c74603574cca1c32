package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/session"
	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
)

type Handler struct {
	Svc *Service
}

func (h *Handler) owner(c echo.Context) Owner {
	return Owner{Key: session.OwnerKeyFrom(c), Email: authmw.Email(c)}
}

func (h *Handler) fail(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProductNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
	case errors.Is(err, ErrConflict):
		l.Warn(event, "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, "cart is busy, retry")
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	cart, err := h.Svc.Get(ctx, session.OwnerKeyFrom(c))
	if err != nil {
		return h.fail(l, "get_cart_error", err)
	}
	return httpx.OK(c, http.StatusOK, cart.View())
}

type putRequest struct {
	Items []struct {
		ProductID uuid.UUID `json:"productId"`
		Quantity  int64     `json:"quantity"`
	} `json:"items"`
}

func (h *Handler) PutCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.put")

	var req putRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("put_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	cart, err := h.Svc.Put(ctx, h.owner(c), items)
	if err != nil {
		return h.fail(l, "put_cart_error", err)
	}
	l.Info("cart_replaced", "lines", len(cart.Items))
	return httpx.OK(c, http.StatusOK, cart.View())
}

func (h *Handler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, session.OwnerKeyFrom(c)); err != nil {
		return h.fail(l, "clear_cart_error", err)
	}
	empty := Cart{Items: []Item{}}
	return httpx.OK(c, http.StatusOK, empty.View())
}

type addRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int64     `json:"quantity"`
}

func (h *Handler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req addRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Svc.AddItem(ctx, h.owner(c), req.ProductID, req.Quantity)
	if err != nil {
		return h.fail(l, "add_item_error", err)
	}
	l.Info("item_added", "product_id", req.ProductID)
	return httpx.OK(c, http.StatusOK, cart.View())
}

func (h *Handler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		l.Warn("update_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	var req struct {
		Quantity *int64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		l.Warn("update_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "quantity is required")
	}

	cart, err := h.Svc.SetQuantity(ctx, h.owner(c), productID, *req.Quantity)
	if err != nil {
		return h.fail(l, "update_item_error", err)
	}
	return httpx.OK(c, http.StatusOK, cart.View())
}

// RemoveItem drops one unit, or the whole line with ?all=true.
func (h *Handler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		l.Warn("remove_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var cart Cart
	if c.QueryParam("all") == "true" {
		cart, err = h.Svc.RemoveItem(ctx, h.owner(c), productID)
	} else {
		cart, err = h.Svc.RemoveOne(ctx, h.owner(c), productID)
	}
	if err != nil {
		return h.fail(l, "remove_item_error", err)
	}
	return httpx.OK(c, http.StatusOK, cart.View())
}

type monitorEntry struct {
	OwnerKey    string     `json:"ownerKey"`
	Guest       bool       `json:"guest"`
	Email       string     `json:"email,omitempty"`
	Items       []ItemView `json:"items"`
	Count       int64      `json:"count"`
	Total       int64      `json:"total"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

func (h *Handler) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.admin_list")

	carts, err := h.Svc.List(ctx)
	if err != nil {
		return h.fail(l, "list_carts_error", err)
	}

	out := make([]monitorEntry, 0, len(carts))
	for _, ct := range carts {
		v := ct.View()
		out = append(out, monitorEntry{
			OwnerKey:    ct.OwnerKey,
			Guest:       session.IsGuest(ct.OwnerKey),
			Email:       ct.Email,
			Items:       v.Items,
			Count:       v.Count,
			Total:       v.Total,
			LastUpdated: ct.UpdatedAt,
		})
	}
	return httpx.List(c, out, len(out))
}
