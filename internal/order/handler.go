package order

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/session"
	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *OrderService
}

func viewer(c echo.Context) Viewer {
	v := Viewer{Admin: authmw.IsAdmin(c)}
	if uid, err := uuid.Parse(authmw.UserID(c)); err == nil {
		v.UserID = &uid
	}
	return v
}

func fail(l *slog.Logger, event string, err error) error {
	var se *StockError
	switch {
	case errors.As(err, &se):
		l.Warn(event, "status", 409, "product_id", se.ProductID, "error", err)
		return echo.NewHTTPError(http.StatusConflict, se.Error())
	case errors.Is(err, ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnauthorized):
		l.Warn(event, "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "orderNumber and email are required to look up an order")
	case errors.Is(err, ErrProductNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, ErrInvalidTransition):
		l.Warn(event, "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	o, err := h.Svc.PlaceOrder(ctx, session.OwnerKeyFrom(c), viewer(c).UserID, req)
	if err != nil {
		return fail(l, "place_order_error", err)
	}

	l.Info("order_placed", "order_number", o.OrderNumber, "total", o.Total)
	return httpx.OK(c, http.StatusCreated, o)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	orders, err := h.Svc.ListOrders(ctx, viewer(c), ListFilter{
		Status:      c.QueryParam("status"),
		Email:       c.QueryParam("email"),
		OrderNumber: c.QueryParam("orderNumber"),
	})
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return httpx.List(c, orders, len(orders))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	v := viewer(c)
	v.Email = c.QueryParam("email")
	o, err := h.Svc.GetOrder(ctx, v, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return httpx.OK(c, http.StatusOK, o)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	o, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "update_status_error", err)
	}
	l.Info("order_status_updated", "order_number", o.OrderNumber, "order_status", o.Status)
	return httpx.OK(c, http.StatusOK, o)
}
