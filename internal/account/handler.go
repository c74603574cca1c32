package account

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	"github.com/Skotchmaster/boutique/pkg/tokens"
)

type AccountHTTP struct {
	Svc          *AccountService
	SecureCookie bool
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	AccessExp int64        `json:"accessExp"`
}

func (h *AccountHTTP) setCookies(c echo.Context, pair tokens.Pair) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, pair.AccessToken, "/", pair.AccessExp, h.SecureCookie))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp, h.SecureCookie))
}

func (h *AccountHTTP) clearCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.SecureCookie))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.SecureCookie))
}

func (h *AccountHTTP) createUser(c echo.Context, event string, create func() (*models.User, error)) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "account."+event)

	u, err := create()
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		l.Warn(event+"_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUserExists):
		l.Warn(event+"_error", "status", 400, "reason", "email taken")
		return echo.NewHTTPError(http.StatusBadRequest, "user with this email already exists")
	default:
		l.Error(event+"_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	l.Info(event+"_success", "user_id", u.ID, "role", u.Role)
	return c.JSON(http.StatusCreated, httpx.Envelope{Success: true, Data: u, Message: "user registered successfully"})
}

func (h *AccountHTTP) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return h.createUser(c, "register", func() (*models.User, error) {
		return h.Svc.Register(c.Request().Context(), req)
	})
}

func (h *AccountHTTP) CreateAdmin(c echo.Context) error {
	var req AdminRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return h.createUser(c, "create_admin", func() (*models.User, error) {
		return h.Svc.CreateAdmin(c.Request().Context(), req)
	})
}

func (h *AccountHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.login")

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		l.Warn("login_error", "status", 400, "reason", "missing credentials")
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	u, pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("login_error", "status", 401, "reason", "invalid email or password")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.setCookies(c, pair)
	l.Info("login_success", "user_id", u.ID, "role", u.Role)
	return httpx.OK(c, http.StatusOK, sessionResponse{User: u, AccessExp: pair.AccessExp.Unix()})
}

func (h *AccountHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.refresh")

	ck, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "no refresh cookie")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token required")
	}

	pair, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		h.clearCookies(c)
		if errors.Is(err, ErrTokenInvalid) {
			l.Warn("refresh_error", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		l.Error("refresh_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.setCookies(c, pair)
	return httpx.OK(c, http.StatusOK, map[string]int64{"accessExp": pair.AccessExp.Unix()})
}

func (h *AccountHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.logout")

	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			l.Error("logout_error", "status", 500, "error", err)
		}
	}
	h.clearCookies(c)
	return httpx.Message(c, http.StatusOK, "logged out")
}

func (h *AccountHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.profile")

	id, err := uuid.Parse(authmw.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	p, err := h.Svc.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("profile_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("profile_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return httpx.OK(c, http.StatusOK, p)
}

func (h *AccountHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.update_profile")

	id, err := uuid.Parse(authmw.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_profile_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	p, err := h.Svc.UpdateProfile(ctx, id, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("update_profile_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("update_profile_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, httpx.Envelope{Success: true, Data: p, Message: "profile updated successfully"})
}
