package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/account"
	"github.com/Skotchmaster/boutique/internal/blog"
	"github.com/Skotchmaster/boutique/internal/cart"
	"github.com/Skotchmaster/boutique/internal/catalog"
	"github.com/Skotchmaster/boutique/internal/contact"
	"github.com/Skotchmaster/boutique/internal/content"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/mykafka"
	"github.com/Skotchmaster/boutique/internal/order"
	"github.com/Skotchmaster/boutique/internal/review"
	"github.com/Skotchmaster/boutique/internal/session"
	"github.com/Skotchmaster/boutique/internal/testutil"
	"github.com/Skotchmaster/boutique/internal/upload"
	"github.com/Skotchmaster/boutique/internal/wishlist"
	"github.com/Skotchmaster/boutique/pkg/httpx"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	"github.com/Skotchmaster/boutique/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/boutique/pkg/tokens"
)

var (
	accessSecret  = []byte("router-access")
	refreshSecret = []byte("router-refresh")
)

type server struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Events *mykafka.Recorder
	Deps   *Deps
}

func newServer(t *testing.T) *server {
	db := testutil.OpenDB(t)
	rdb, _ := testutil.OpenRedis(t)
	events := &mykafka.Recorder{}

	store, err := upload.NewStorage(t.TempDir(), "http://shop.test")
	require.NoError(t, err)

	catalogRepo := &catalog.GormRepo{DB: db}
	carts := cart.NewService(cart.NewRedisStore(rdb, time.Hour), catalogRepo, events)
	accounts := &account.AccountService{
		Repo:          &account.GormRepo{DB: db},
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		Events:        events,
	}

	d := &Deps{
		Auth:     authmw.NewAuthenticator(accessSecret, accounts, false),
		Sessions: session.NewResolver(false),
		Contact:  ratelimit.New(1, 5),
		Catalog:  &catalog.CatalogHTTP{Svc: &catalog.CatalogService{Repo: catalogRepo, Images: store, Events: events}},
		Reviews:  &review.ReviewHTTP{Svc: &review.ReviewService{DB: db}},
		Cart:     &cart.Handler{Svc: carts},
		Orders: &order.OrderHTTP{Svc: &order.OrderService{
			Repo:   &order.GormRepo{DB: db},
			Seq:    order.NewRedisSequencer(rdb),
			Carts:  carts,
			Events: events,
		}},
		Blogs:     &blog.BlogHTTP{Svc: &blog.BlogService{DB: db, Images: store}},
		Wishlist:  &wishlist.WishlistHTTP{Svc: &wishlist.WishlistService{DB: db, Events: events}},
		Content:   &content.ContentHTTP{Store: &content.GormStore{DB: db}},
		Messages:  &contact.ContactHTTP{Svc: &contact.ContactService{DB: db}},
		Accounts:  &account.AccountHTTP{Svc: accounts},
		Uploads:   &upload.UploadHTTP{Store: store},
		UploadDir: store.Dir,
		Ready: map[string]Check{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}

	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler
	Register(e, d)
	return &server{T: t, E: e, DB: db, Events: events, Deps: d}
}

func (s *server) doJSONRequest(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(testutil.Ctx())
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)
	return rec
}

func (s *server) login(role string) *http.Cookie {
	u := testutil.SeedUser(s.T, s.DB, role+"@shop.test", role)
	tok, err := tokens.SignAccess(u.ID.String(), role, u.Email, time.Now().Add(time.Minute), accessSecret)
	require.NoError(s.T, err)
	return &http.Cookie{Name: tokens.AccessCookie, Value: tok}
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusOK, s.doJSONRequest(http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, s.doJSONRequest(http.MethodGet, "/health/ready", nil).Code)

	s.Deps.Ready["db"] = func(context.Context) error { return errors.New("connection refused") }
	rec := s.doJSONRequest(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRoutes_PermissionGates(t *testing.T) {
	s := newServer(t)
	user := s.login(authmw.RoleUser)
	admin := s.login(authmw.RoleAdmin)

	cases := []struct {
		name   string
		method string
		path   string
		cookie *http.Cookie
		want   int
	}{
		{"public catalog", http.MethodGet, "/api/products", nil, http.StatusOK},
		{"product create anonymous", http.MethodPost, "/api/products", nil, http.StatusUnauthorized},
		{"product create as user", http.MethodPost, "/api/products", user, http.StatusForbidden},
		{"wishlist anonymous", http.MethodGet, "/api/wishlist", nil, http.StatusUnauthorized},
		{"wishlist as user", http.MethodGet, "/api/wishlist", user, http.StatusOK},
		{"contact inbox as user", http.MethodGet, "/api/contact", user, http.StatusForbidden},
		{"contact inbox as admin", http.MethodGet, "/api/contact", admin, http.StatusOK},
		{"cart monitor as admin", http.MethodGet, "/api/admin/carts", admin, http.StatusOK},
		{"admin creation as admin", http.MethodPost, "/api/admin/admins", admin, http.StatusForbidden},
		{"admin content as user", http.MethodGet, "/api/admin/content/about", user, http.StatusForbidden},
		{"public content missing", http.MethodGet, "/api/content/about", nil, http.StatusNotFound},
		{"upload as user", http.MethodPost, "/api/upload", user, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tc.cookie != nil {
				cookies = append(cookies, tc.cookie)
			}
			rec := s.doJSONRequest(tc.method, tc.path, nil, cookies...)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestGuestCheckoutFlow(t *testing.T) {
	s := newServer(t)
	p := testutil.SeedProduct(t, s.DB, "scarf", 1500, 4)

	rec := s.doJSONRequest(http.MethodPost, "/api/cart/items", map[string]any{"productId": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	guest := cookieNamed(rec, session.CookieName)
	require.NotNil(t, guest)

	rec = s.doJSONRequest(http.MethodPost, "/api/orders", order.PlaceOrderRequest{
		Customer:        models.Customer{FirstName: "Grace", LastName: "Hopper", Email: "grace@shop.test", Phone: "555-0199"},
		ShippingAddress: models.Address{Address: "7 Cobol St", City: "Arlington", State: "VA", ZipCode: "22201", Country: "US"},
		PaymentMethod:   "card",
	}, guest)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var placed struct {
		Data models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.Equal(t, int64(3000), placed.Data.Total)

	var stock models.Product
	require.NoError(t, s.DB.First(&stock, "id = ?", p.ID).Error)
	assert.Equal(t, int64(2), stock.Stock)

	rec = s.doJSONRequest(http.MethodGet, "/api/cart", nil, guest)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)

	rec = s.doJSONRequest(http.MethodGet, "/api/orders?orderNumber="+placed.Data.OrderNumber+"&email=GRACE@shop.test", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), placed.Data.OrderNumber)

	assert.Len(t, s.Events.ByTopic(mykafka.TopicOrder), 1)
}

func TestContactIsRateLimited(t *testing.T) {
	s := newServer(t)
	s.Deps.Contact = ratelimit.New(0.001, 1)
	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler
	Register(e, s.Deps)
	s.E = e

	msg := map[string]any{
		"firstName": "Alan", "lastName": "Turing", "email": "alan@shop.test",
		"subject": "Sizes", "message": "Do you stock larger sizes?",
	}
	assert.Equal(t, http.StatusCreated, s.doJSONRequest(http.MethodPost, "/api/contact", msg).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.doJSONRequest(http.MethodPost, "/api/contact", msg).Code)
}
