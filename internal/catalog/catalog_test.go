package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/es"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/mykafka"
	"github.com/Skotchmaster/boutique/internal/testutil"
)

type fakeIndex struct {
	docs      map[uuid.UUID]models.Product
	deleted   []uuid.UUID
	searchIDs []uuid.UUID
	searchErr error
}

func (f *fakeIndex) Put(_ context.Context, p models.Product) error {
	f.docs[p.ID] = p
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ es.Query) (int64, []uuid.UUID, error) {
	return int64(len(f.searchIDs)), f.searchIDs, f.searchErr
}

type fakeImages struct {
	removed []string
	err     error
}

func (f *fakeImages) Remove(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return f.err
}

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	P      *CatalogHTTP
	Index  *fakeIndex
	Images *fakeImages
	Events *mykafka.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	db := testutil.OpenDB(t)
	env := &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Index:  &fakeIndex{docs: map[uuid.UUID]models.Product{}},
		Images: &fakeImages{},
		Events: &mykafka.Recorder{},
	}
	env.P = &CatalogHTTP{Svc: &CatalogService{
		Repo:   &GormRepo{DB: db},
		Index:  env.Index,
		Images: env.Images,
		Events: env.Events,
	}}
	return env
}

func (env *testEnv) doJSONRequest(method, path string, body any) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(testutil.Ctx())
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

type productResp struct {
	Success bool           `json:"success"`
	Data    models.Product `json:"data"`
}

type listResp struct {
	Success    bool             `json:"success"`
	Count      int              `json:"count"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"totalPages"`
	Data       []models.Product `json:"data"`
}

func validCreate() CreateProductRequest {
	return CreateProductRequest{
		Name:        "Linen shirt",
		Description: "Breathable summer shirt",
		Price:       4999,
		Image:       "/uploads/shirt.jpg",
		ImageID:     "shirt.jpg",
		Category:    models.CategoryClothing,
		Sizes:       []string{"S", "M"},
		Stock:       5,
	}
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/products", validCreate())
	require.NoError(t, env.P.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp productResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEqual(t, uuid.Nil, resp.Data.ID)
	assert.Equal(t, models.StringList{"S", "M"}, resp.Data.Sizes)
	assert.Equal(t, models.StringList{}, resp.Data.Colors)

	assert.Contains(t, env.Index.docs, resp.Data.ID)
	events := env.Events.ByTopic(mykafka.TopicProduct)
	require.Len(t, events, 1)
	assert.Equal(t, "product_created", events[0].Event["type"])
}

func TestCreateProduct_Validation(t *testing.T) {
	cases := map[string]func(*CreateProductRequest){
		"empty name":     func(r *CreateProductRequest) { r.Name = " " },
		"long name":      func(r *CreateProductRequest) { r.Name = string(bytes.Repeat([]byte("a"), 101)) },
		"negative price": func(r *CreateProductRequest) { r.Price = -1 },
		"bad category":   func(r *CreateProductRequest) { r.Category = "hats" },
		"no image":       func(r *CreateProductRequest) { r.Image = "" },
		"negative stock": func(r *CreateProductRequest) { r.Stock = -3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			req := validCreate()
			mutate(&req)

			_, c := env.doJSONRequest(http.MethodPost, "/api/products", req)
			err := env.P.CreateProduct(c)
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Code)
		})
	}
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.SeedProduct(t, env.DB, "cap", 1500, 3)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/products/"+p.ID.String(), nil)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	require.NoError(t, env.P.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, p.ID, resp.Data.ID)
	assert.Equal(t, int64(1500), resp.Data.Price)

	_, c = env.doJSONRequest(http.MethodGet, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	he, ok := env.P.GetProduct(c).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)

	_, c = env.doJSONRequest(http.MethodGet, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues("42")
	he, ok = env.P.GetProduct(c).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetProducts_FiltersAndLikeSearch(t *testing.T) {
	env := newTestEnv(t)
	env.P.Svc.Index = nil

	testutil.SeedProduct(t, env.DB, "Linen Shirt", 10, 1)
	testutil.SeedProduct(t, env.DB, "Wool Coat", 20, 1)
	boot := models.Product{Name: "Chelsea boot", Description: "leather", Image: "x", Category: models.CategoryShoes, Featured: true}
	require.NoError(t, env.DB.Create(&boot).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/products?search=SHIRT", nil)
	require.NoError(t, env.P.GetProducts(c))
	var resp listResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Linen Shirt", resp.Data[0].Name)

	rec, c = env.doJSONRequest(http.MethodGet, "/api/products?category=shoes&featured=true", nil)
	require.NoError(t, env.P.GetProducts(c))
	resp = listResp{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, boot.ID, resp.Data[0].ID)

	rec, c = env.doJSONRequest(http.MethodGet, "/api/products?size=2&page=2", nil)
	require.NoError(t, env.P.GetProducts(c))
	resp = listResp{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestGetProducts_UsesIndexOrder(t *testing.T) {
	env := newTestEnv(t)
	a := testutil.SeedProduct(t, env.DB, "alpha", 10, 1)
	b := testutil.SeedProduct(t, env.DB, "beta", 10, 1)
	env.Index.searchIDs = []uuid.UUID{b.ID, uuid.New(), a.ID}

	rec, c := env.doJSONRequest(http.MethodGet, "/api/products?search=zzz", nil)
	require.NoError(t, env.P.GetProducts(c))

	var resp listResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, b.ID, resp.Data[0].ID)
	assert.Equal(t, a.ID, resp.Data[1].ID)
}

func TestGetProducts_IndexFailureFallsBack(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedProduct(t, env.DB, "alpha", 10, 1)
	env.Index.searchErr = errors.New("es down")

	rec, c := env.doJSONRequest(http.MethodGet, "/api/products?search=alp", nil)
	require.NoError(t, env.P.GetProducts(c))

	var resp listResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestCategoryCounts(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedProduct(t, env.DB, "a", 1, 1)
	testutil.SeedProduct(t, env.DB, "b", 1, 1)
	require.NoError(t, env.DB.Create(&models.Product{Name: "c", Description: "c", Image: "x", Category: models.CategoryShoes}).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/products/category-counts", nil)
	require.NoError(t, env.P.CategoryCounts(c))

	var resp struct {
		Data []CategoryCount `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []CategoryCount{{"clothing", 2}, {"shoes", 1}}, resp.Data)
}

func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	p := testutil.SeedProduct(t, env.DB, "cap", 1500, 3)

	rec, c := env.doJSONRequest(http.MethodPut, "/", map[string]any{"price": 1800, "stock": 10, "featured": true})
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	require.NoError(t, env.P.UpdateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, env.DB.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, int64(1800), got.Price)
	assert.Equal(t, int64(10), got.Stock)
	assert.True(t, got.Featured)
	assert.Equal(t, "cap", got.Name)

	_, c = env.doJSONRequest(http.MethodPut, "/", map[string]any{"category": "hats"})
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	he, ok := env.P.UpdateProduct(c).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestDeleteProduct_RemovesImageAndIndex(t *testing.T) {
	env := newTestEnv(t)
	env.Images.err = errors.New("disk gone")
	p := models.Product{Name: "x", Description: "x", Image: "/uploads/x.jpg", ImageID: "x.jpg", Category: models.CategoryAccessories}
	require.NoError(t, env.DB.Create(&p).Error)

	rec, c := env.doJSONRequest(http.MethodDelete, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	require.NoError(t, env.P.DeleteProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"x.jpg"}, env.Images.removed)
	assert.Equal(t, []uuid.UUID{p.ID}, env.Index.deleted)

	var n int64
	env.DB.Model(&models.Product{}).Where("id = ?", p.ID).Count(&n)
	assert.Zero(t, n)

	_, c = env.doJSONRequest(http.MethodDelete, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	he, ok := env.P.DeleteProduct(c).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}
