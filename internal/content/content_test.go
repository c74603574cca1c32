package content

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/boutique/internal/testutil"
	"github.com/Skotchmaster/boutique/pkg/httpx"
)

func newTestEcho(store Store) *echo.Echo {
	h := &ContentHTTP{Store: store}
	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler
	e.GET("/api/content/:key", h.Get)
	e.GET("/api/admin/content/:key", h.AdminGet)
	e.POST("/api/admin/content/:key", h.Upsert)
	return e
}

func doJSONRequest(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestContentHandlers(t *testing.T) {
	e := newTestEcho(&GormStore{DB: testutil.OpenDB(t)})

	rec := doJSONRequest(t, e, http.MethodGet, "/api/content/home", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSONRequest(t, e, http.MethodGet, "/api/admin/content/home", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":null}`, rec.Body.String())

	rec = doJSONRequest(t, e, http.MethodPost, "/api/admin/content/home", `{"content":{"hero":"Autumn","tiles":[1,2]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSONRequest(t, e, http.MethodPost, "/api/admin/content/home", `{"content":{"hero":"Winter"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSONRequest(t, e, http.MethodGet, "/api/content/home", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "home", resp.Data.Key)
	assert.JSONEq(t, `{"hero":"Winter"}`, string(resp.Data.Content))

	rec = doJSONRequest(t, e, http.MethodPost, "/api/admin/content/home", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGormStoreRejectsInvalidJSON(t *testing.T) {
	s := &GormStore{DB: testutil.OpenDB(t)}
	_, err := s.Upsert(testutil.Ctx(), "about", json.RawMessage(`{"broken"`))
	require.ErrorIs(t, err, ErrValidation)
	_, err = s.Get(testutil.Ctx(), "about")
	require.ErrorIs(t, err, ErrNotFound)
}

// Integration test: needs a running MongoDB.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	db := client.Database("boutique_test_" + time.Now().Format("150405"))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	s := NewMongoStore(db)
	require.NoError(t, s.EnsureIndexes(ctx))

	_, err = s.Get(ctx, "faq")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Upsert(ctx, "faq", json.RawMessage(`{"items":[{"q":"Shipping?","a":"3 days"}],"count":1}`))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "faq", json.RawMessage(`{"items":[],"count":0}`))
	require.NoError(t, err)

	p, err := s.Get(ctx, "faq")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"count":0}`, string(p.Content))

	n, err := s.Coll.CountDocuments(ctx, map[string]any{"key": "faq"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
