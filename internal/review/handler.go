package review

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
)

type ReviewHTTP struct {
	Svc *ReviewService
}

func (h *ReviewHTTP) ListForProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("list_reviews_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id format")
	}

	reviews, err := h.Svc.ForProduct(ctx, productID)
	if err != nil {
		l.Error("list_reviews_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list reviews")
	}
	return httpx.List(c, reviews, len(reviews))
}

func (h *ReviewHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create")

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("create_review_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id format")
	}
	userID, err := uuid.Parse(authmw.UserID(c))
	if err != nil {
		l.Warn("create_review_error", "status", 401, "reason", "no user in session")
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_review_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	r, err := h.Svc.Create(ctx, userID, productID, req)
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		l.Warn("create_review_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProductNotFound):
		l.Warn("create_review_error", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, ErrConflict):
		l.Warn("create_review_error", "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, "you have already reviewed this product")
	default:
		l.Error("create_review_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create review")
	}

	l.Info("review_created", "review_id", r.ID, "product_id", productID)
	return httpx.OK(c, http.StatusCreated, r)
}

func (h *ReviewHTTP) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.admin_list")

	reviews, err := h.Svc.All(ctx)
	if err != nil {
		l.Error("admin_list_reviews_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list reviews")
	}
	return httpx.List(c, reviews, len(reviews))
}

func (h *ReviewHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_review_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid review id format")
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("delete_review_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "review not found")
		}
		l.Error("delete_review_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete review")
	}
	l.Info("review_deleted", "review_id", id)
	return httpx.Message(c, http.StatusOK, "review deleted successfully")
}
