// Package session resolves the cart owner of a request: the signed-in user or
// an anonymous visitor identified by a long-lived cookie.
package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
)

const (
	CookieName   = "cart-session"
	CookieMaxAge = 30 * 24 * time.Hour

	userPrefix  = "user:"
	guestPrefix = "guest:"
	ctxOwnerKey = "owner_key"

	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

type Resolver struct {
	SecureCookie bool
	Now          func() time.Time
}

func NewResolver(secure bool) *Resolver {
	return &Resolver{SecureCookie: secure, Now: time.Now}
}

// Middleware stores the owner key on the context. It must run after the
// optional authenticator so a signed-in user is already known.
func (r *Resolver) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(ctxOwnerKey, r.Resolve(c))
		return next(c)
	}
}

// Resolve never fails; the only side effect is setting the guest cookie on first contact.
func (r *Resolver) Resolve(c echo.Context) string {
	if uid := authmw.UserID(c); uid != "" {
		return UserKey(uid)
	}

	if ck, err := c.Cookie(CookieName); err == nil && validToken(ck.Value) {
		return guestPrefix + ck.Value
	}

	token := r.newToken()
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return guestPrefix + token
}

func (r *Resolver) newToken() string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return fmt.Sprintf("sess_%d_%s", now().UnixMilli(), randomBase36(9))
}

func randomBase36(n int) string {
	var sb strings.Builder
	base := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, base)
		if err != nil {
			panic(fmt.Sprintf("session: crypto/rand failed: %v", err))
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String()
}

func validToken(v string) bool {
	return strings.HasPrefix(v, "sess_") && len(v) <= 64
}

func UserKey(userID string) string {
	return userPrefix + userID
}

// OwnerKeyFrom returns the key set by Middleware, or "" when it did not run.
func OwnerKeyFrom(c echo.Context) string {
	v, _ := c.Get(ctxOwnerKey).(string)
	return v
}

func IsGuest(ownerKey string) bool {
	return strings.HasPrefix(ownerKey, guestPrefix)
}

// UserIDFrom returns the user id encoded in a user owner key.
func UserIDFrom(ownerKey string) (string, bool) {
	if !strings.HasPrefix(ownerKey, userPrefix) {
		return "", false
	}
	return strings.TrimPrefix(ownerKey, userPrefix), true
}
