package contact

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

type ContactHTTP struct {
	Svc *ContactService
}

func (h *ContactHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.submit")

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("contact_submit_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	m, err := h.Svc.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			l.Warn("contact_submit_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("contact_submit_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot send message")
	}
	l.Info("contact_message_received", "message_id", m.ID)
	return c.JSON(http.StatusCreated, httpx.Envelope{Success: true, Data: m, Message: "message sent successfully"})
}

func (h *ContactHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.list")

	msgs, err := h.Svc.List(ctx, c.QueryParam("status"))
	if err != nil {
		if errors.Is(err, ErrValidation) {
			l.Warn("contact_list_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("contact_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list messages")
	}
	return httpx.List(c, msgs, len(msgs))
}

func (h *ContactHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.update")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("contact_update_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid message id format")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("contact_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	m, err := h.Svc.Update(ctx, id, req)
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		l.Warn("contact_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		l.Warn("contact_update_error", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "message not found")
	default:
		l.Error("contact_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update message")
	}
	return httpx.OK(c, http.StatusOK, m)
}
