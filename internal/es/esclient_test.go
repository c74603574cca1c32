package es

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/testutil"
)

type fakeES struct {
	mu       sync.Mutex
	requests []recorded
	hits     []string
}

type recorded struct {
	Method string
	Path   string
	Body   string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		hits := make([]map[string]any, 0, len(f.hits))
		for _, id := range f.hits {
			hits = append(hits, map[string]any{"_id": id})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": len(f.hits)}, "hits": hits},
		})
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	default:
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}
}

func newIndex(t *testing.T, f *fakeES) *Index {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := NewClient(testutil.Ctx(), Config{URL: srv.URL})
	require.NoError(t, err)
	return &Index{Client: client, Name: "products"}
}

func TestIndex_PutSendsDocument(t *testing.T) {
	f := &fakeES{}
	ix := newIndex(t, f)

	p := models.Product{ID: uuid.New(), Name: "Boot", Description: "leather", Category: models.CategoryShoes, Price: 9900}
	require.NoError(t, ix.Put(testutil.Ctx(), p))

	last := f.requests[len(f.requests)-1]
	assert.Equal(t, "/products/_doc/"+p.ID.String(), last.Path)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Body), &doc))
	assert.Equal(t, "Boot", doc["name"])
	assert.Equal(t, "shoes", doc["category"])
}

func TestIndex_SearchReturnsIDsInOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	f := &fakeES{hits: []string{b.String(), "not-a-uuid", a.String()}}
	ix := newIndex(t, f)

	featured := true
	total, ids, err := ix.Search(testutil.Ctx(), Query{Text: "boot", Category: "shoes", Featured: &featured, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []uuid.UUID{b, a}, ids)

	last := f.requests[len(f.requests)-1]
	assert.Contains(t, last.Body, `"multi_match"`)
	assert.Contains(t, last.Body, `"category":"shoes"`)
	assert.Contains(t, last.Body, `"featured":true`)
}

func TestIndex_DeleteMissingIsNotAnError(t *testing.T) {
	ix := newIndex(t, &fakeES{})
	require.NoError(t, ix.Delete(testutil.Ctx(), uuid.New()))
}

func TestNewClient_FailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	_, err := NewClient(testutil.Ctx(), Config{URL: srv.URL})
	require.Error(t, err)
}
