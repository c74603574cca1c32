package blog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/testutil"
	"github.com/Skotchmaster/boutique/pkg/httpx"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	"github.com/Skotchmaster/boutique/pkg/tokens"
)

var testSecret = []byte("blog-test-secret")

type fakeImages struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeImages) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

type testEnv struct {
	T      *testing.T
	DB     *gorm.DB
	E      *echo.Echo
	Svc    *BlogService
	Images *fakeImages
}

type blogResponse struct {
	Success bool        `json:"success"`
	Data    models.Blog `json:"data"`
	Message string      `json:"message"`
}

type pagedResponse struct {
	Success    bool          `json:"success"`
	Data       []models.Blog `json:"data"`
	Count      int           `json:"count"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

func newTestEnv(t *testing.T) *testEnv {
	db := testutil.OpenDB(t)
	images := &fakeImages{}
	svc := &BlogService{DB: db, Images: images}
	h := &BlogHTTP{Svc: svc}

	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler
	auth := authmw.NewAuthenticator(testSecret, nil, false)
	content := auth.RequirePermission(authmw.PermContent)
	g := e.Group("/api/blogs")
	g.GET("", h.List, auth.Optional)
	g.POST("", h.Create, content)
	g.GET("/:slug", h.Get)
	g.PUT("/:slug", h.Update, content)
	g.DELETE("/:slug", h.Delete, content)
	g.GET("/:slug/comments", h.Comments)
	g.POST("/:slug/comments", h.AddComment, auth.RequireAuth)
	mod := e.Group("/api/admin/comments", auth.RequirePermission(authmw.PermModeration))
	mod.GET("", h.AdminComments)
	mod.DELETE("/:id", h.DeleteComment)

	return &testEnv{T: t, DB: db, E: e, Svc: svc, Images: images}
}

func (env *testEnv) doJSONRequest(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) cookieFor(u models.User) *http.Cookie {
	tok, err := tokens.SignAccess(u.ID.String(), u.Role, u.Email, time.Now().Add(time.Minute), testSecret)
	require.NoError(env.T, err)
	return &http.Cookie{Name: tokens.AccessCookie, Value: tok}
}

func str(s string) *string { return &s }
func flag(b bool) *bool     { return &b }

func (env *testEnv) seed(title string, published bool) *models.Blog {
	b, err := env.Svc.Create(testutil.Ctx(), BlogRequest{
		Title:     str(title),
		Excerpt:   str(title + " excerpt"),
		Content:   str(title + " content"),
		Published: flag(published),
	}, "editor@shop.test")
	require.NoError(env.T, err)
	return b
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":             "hello-world",
		"  Summer '24: Linen!!  ": "summer-24-linen",
		"Crème brûlée":            "cr-me-br-l-e",
		"???":                     "post",
		"a--b":                    "a-b",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCreateBlog_UniqueSlugAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	a := env.seed("Spring Lookbook", true)
	b := env.seed("Spring Lookbook", true)

	assert.Equal(t, "spring-lookbook", a.Slug)
	assert.Equal(t, "spring-lookbook-2", b.Slug)
	assert.Equal(t, DefaultCategory, a.Category)
	assert.Equal(t, "editor@shop.test", a.AuthorEmail)
	assert.NotNil(t, a.Tags)
}

func TestCreateBlogHandler(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.SeedUser(t, env.DB, "admin@shop.test", authmw.RoleAdmin)
	user := testutil.SeedUser(t, env.DB, "user@shop.test", authmw.RoleUser)
	body := BlogRequest{Title: str("Care Guide"), Excerpt: str("short"), Content: str("long"), Tags: &[]string{"care", "wool"}}

	rec := env.doJSONRequest(http.MethodPost, "/api/blogs", body, env.cookieFor(user))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/blogs", BlogRequest{Title: str("No body")}, env.cookieFor(admin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/blogs", body, env.cookieFor(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp blogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "care-guide", resp.Data.Slug)
	assert.Equal(t, "admin@shop.test", resp.Data.AuthorEmail)
	assert.Equal(t, models.StringList{"care", "wool"}, resp.Data.Tags)
	assert.Equal(t, "blog created successfully", resp.Message)
}

func TestListBlogs_DraftsAndPaging(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.SeedUser(t, env.DB, "admin@shop.test", authmw.RoleAdmin)
	for _, title := range []string{"One", "Two", "Three"} {
		env.seed(title, true)
	}
	env.seed("Draft", false)

	rec := env.doJSONRequest(http.MethodGet, "/api/blogs?limit=2&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp pagedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 1, resp.Count)

	rec = env.doJSONRequest(http.MethodGet, "/api/blogs?published=false", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Total)

	rec = env.doJSONRequest(http.MethodGet, "/api/blogs?published=false", nil, env.cookieFor(admin))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(4), resp.Total)

	rec = env.doJSONRequest(http.MethodGet, "/api/blogs?search=THREE", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Three", resp.Data[0].Title)
}

func TestGetBlog_BySlugOrIDCountsViews(t *testing.T) {
	env := newTestEnv(t)
	b := env.seed("Denim Notes", true)

	rec := env.doJSONRequest(http.MethodGet, "/api/blogs/denim-notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp blogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Views)

	rec = env.doJSONRequest(http.MethodGet, "/api/blogs/"+b.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.Views)

	rec = env.doJSONRequest(http.MethodGet, "/api/blogs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndDeleteBlog(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.SeedUser(t, env.DB, "admin@shop.test", authmw.RoleAdmin)
	b := env.seed("Old Title", false)
	require.NoError(t, env.DB.Model(b).Update("image_id", "img-1").Error)

	rec := env.doJSONRequest(http.MethodPut, "/api/blogs/old-title", BlogRequest{Title: str("New Title"), Published: flag(true)}, env.cookieFor(admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp blogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "New Title", resp.Data.Title)
	assert.Equal(t, "old-title", resp.Data.Slug)
	assert.True(t, resp.Data.Published)

	rec = env.doJSONRequest(http.MethodPut, "/api/blogs/old-title", BlogRequest{Excerpt: str("")}, env.cookieFor(admin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSONRequest(http.MethodDelete, "/api/blogs/old-title", nil, env.cookieFor(admin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"img-1"}, env.Images.removed)

	rec = env.doJSONRequest(http.MethodDelete, "/api/blogs/old-title", nil, env.cookieFor(admin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.SeedUser(t, env.DB, "admin@shop.test", authmw.RoleAdmin)
	user := testutil.SeedUser(t, env.DB, "user@shop.test", authmw.RoleUser)
	env.seed("Talk", true)

	rec := env.doJSONRequest(http.MethodPost, "/api/blogs/talk/comments", CommentRequest{Content: "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/blogs/talk/comments", CommentRequest{Content: "  "}, env.cookieFor(user))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/blogs/talk/comments", CommentRequest{Content: "lovely"}, env.cookieFor(user))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data models.Comment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Data.User)
	assert.Equal(t, "Test", created.Data.User.FirstName)

	rec = env.doJSONRequest(http.MethodGet, "/api/blogs/talk/comments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []models.Comment `json:"data"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = env.doJSONRequest(http.MethodPost, "/api/blogs/nope/comments", CommentRequest{Content: "x"}, env.cookieFor(user))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/admin/comments", nil, env.cookieFor(admin))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.NotNil(t, list.Data[0].Blog)
	assert.Equal(t, "talk", list.Data[0].Blog.Slug)

	rec = env.doJSONRequest(http.MethodDelete, "/api/admin/comments/"+created.Data.ID.String(), nil, env.cookieFor(admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.doJSONRequest(http.MethodDelete, "/api/admin/comments/"+created.Data.ID.String(), nil, env.cookieFor(admin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
