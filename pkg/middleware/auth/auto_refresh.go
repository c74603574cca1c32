package authmw

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/pkg/logging"
	"github.com/Skotchmaster/boutique/pkg/tokens"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxEmail  = "email"
)

// Refresher rotates a refresh token into a fresh token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (tokens.Pair, error)
}

type Authenticator struct {
	AccessSecret []byte
	Refresher    Refresher
	SecureCookie bool
}

func NewAuthenticator(secret []byte, refresher Refresher, secure bool) *Authenticator {
	return &Authenticator{AccessSecret: secret, Refresher: refresher, SecureCookie: secure}
}

var errNoSession = errors.New("no session")

// Optional attaches the session when one is present and never rejects the request.
func (a *Authenticator) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := a.resolve(c)
		if err == nil {
			setUserContext(c, claims)
		}
		return next(c)
	}
}

func (a *Authenticator) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := a.resolve(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		setUserContext(c, claims)
		return next(c)
	}
}

// RequirePermission passes when the caller's role holds any of the bits in p.
func (a *Authenticator) RequirePermission(p Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := a.resolve(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !Allows(claims.Role, p) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			setUserContext(c, claims)
			return next(c)
		}
	}
}

func (a *Authenticator) resolve(c echo.Context) (*tokens.AccessClaims, error) {
	if UserID(c) != "" {
		return &tokens.AccessClaims{Role: Role(c), Email: Email(c), RegisteredClaims: jwt.RegisteredClaims{Subject: UserID(c)}}, nil
	}

	accessCookie, err := c.Cookie(tokens.AccessCookie)
	if err == nil && accessCookie.Value != "" {
		claims, pErr := tokens.AccessClaimsFromToken(accessCookie.Value, a.AccessSecret)
		if pErr == nil {
			return claims, nil
		}
		if !errors.Is(pErr, jwt.ErrTokenExpired) {
			a.clearAuthCookies(c)
			return nil, pErr
		}
	}

	refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
	if rErr != nil || refreshCookie.Value == "" || a.Refresher == nil {
		return nil, errNoSession
	}

	ctx := c.Request().Context()
	pair, refErr := a.Refresher.Refresh(ctx, refreshCookie.Value)
	if refErr != nil {
		logging.FromContext(ctx).Warn("auto_refresh_failed", "error", refErr)
		a.clearAuthCookies(c)
		return nil, refErr
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, pair.AccessToken, "/", pair.AccessExp, a.SecureCookie))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp, a.SecureCookie))

	claims, pErr := tokens.AccessClaimsFromToken(pair.AccessToken, a.AccessSecret)
	if pErr != nil {
		a.clearAuthCookies(c)
		return nil, pErr
	}
	return claims, nil
}

func (a *Authenticator) clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", a.SecureCookie))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", a.SecureCookie))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxEmail, claims.Email)
}

func UserID(c echo.Context) string {
	v, _ := c.Get(ctxUserID).(string)
	return v
}

func Role(c echo.Context) string {
	v, _ := c.Get(ctxRole).(string)
	return v
}

func Email(c echo.Context) string {
	v, _ := c.Get(ctxEmail).(string)
	return v
}

func IsAdmin(c echo.Context) bool {
	return IsAdminRole(Role(c))
}
