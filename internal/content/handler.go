package content

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

type ContentHTTP struct {
	Store Store
}

type upsertRequest struct {
	Content json.RawMessage `json:"content"`
}

func pageKey(c echo.Context) (string, error) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "content key is required")
	}
	return key, nil
}

func (h *ContentHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "content.get")

	key, err := pageKey(c)
	if err != nil {
		return err
	}
	p, err := h.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("get_content_error", "status", 404, "key", key)
			return echo.NewHTTPError(http.StatusNotFound, "content not found")
		}
		l.Error("get_content_error", "status", 500, "key", key, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load content")
	}
	return httpx.OK(c, http.StatusOK, p)
}

// AdminGet answers with null data for keys that were never saved.
func (h *ContentHTTP) AdminGet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "content.admin_get")

	key, err := pageKey(c)
	if err != nil {
		return err
	}
	p, err := h.Store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusOK, map[string]any{"success": true, "data": nil})
	}
	if err != nil {
		l.Error("admin_get_content_error", "status", 500, "key", key, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load content")
	}
	return httpx.OK(c, http.StatusOK, p)
}

func (h *ContentHTTP) Upsert(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "content.upsert")

	key, err := pageKey(c)
	if err != nil {
		return err
	}
	var req upsertRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("upsert_content_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.Content) == 0 || string(req.Content) == "null" {
		l.Warn("upsert_content_error", "status", 400, "reason", "content missing", "key", key)
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	p, err := h.Store.Upsert(ctx, key, req.Content)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			l.Warn("upsert_content_error", "status", 400, "key", key, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("upsert_content_error", "status", 500, "key", key, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save content")
	}
	l.Info("content_saved", "key", key)
	return httpx.OK(c, http.StatusOK, p)
}
