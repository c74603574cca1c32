package wishlist

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
)

type WishlistHTTP struct {
	Svc *WishlistService
}

type productRequest struct {
	ProductID string `json:"productId"`
}

func fail(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product id is required")
	case errors.Is(err, ErrDuplicate):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product already in wishlist")
	case errors.Is(err, ErrProductNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(authmw.UserID(c))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

// parseProduct treats a malformed id as an unknown product.
func parseProduct(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrValidation
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrProductNotFound
	}
	return id, nil
}

func (h *WishlistHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.get")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	products, err := h.Svc.Products(ctx, userID)
	if err != nil {
		return fail(l, "get_wishlist_error", err)
	}
	return httpx.OK(c, http.StatusOK, products)
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req productRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_wishlist_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	productID, err := parseProduct(req.ProductID)
	if err != nil {
		return fail(l, "add_wishlist_error", err)
	}

	products, err := h.Svc.Add(ctx, userID, productID)
	if err != nil {
		return fail(l, "add_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, httpx.Envelope{Success: true, Data: products, Message: "product added to wishlist"})
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	productID, err := parseProduct(c.QueryParam("productId"))
	if err != nil {
		return fail(l, "remove_wishlist_error", err)
	}

	products, err := h.Svc.Remove(ctx, userID, productID)
	if err != nil {
		return fail(l, "remove_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, httpx.Envelope{Success: true, Data: products, Message: "product removed from wishlist"})
}

func (h *WishlistHTTP) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.toggle")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req productRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("toggle_wishlist_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	productID, err := parseProduct(req.ProductID)
	if err != nil {
		return fail(l, "toggle_wishlist_error", err)
	}

	listed, products, err := h.Svc.Toggle(ctx, userID, productID)
	if err != nil {
		return fail(l, "toggle_wishlist_error", err)
	}
	return httpx.OK(c, http.StatusOK, map[string]any{"inWishlist": listed, "wishlist": products})
}

func (h *WishlistHTTP) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.admin_list")

	all, err := h.Svc.All(ctx)
	if err != nil {
		return fail(l, "admin_list_wishlists_error", err)
	}
	return httpx.List(c, all, len(all))
}
