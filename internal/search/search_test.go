package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/electro_shop/internal/dbtest"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/pkg/models"
)

func TestPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size         int
		wantOffset, wantLn int
	}{
		{0, 0, 0, DefaultPageSize},
		{1, 5, 0, 5},
		{3, 5, 10, 5},
		{2, MaxPageSize + 1, DefaultPageSize, DefaultPageSize},
		{-4, 20, 0, 20},
	}
	for _, tt := range tests {
		off, lim := Page(tt.page, tt.size)
		assert.Equal(t, tt.wantOffset, off)
		assert.Equal(t, tt.wantLn, lim)
	}
}

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	q := buildQuery("kettle", 10, 5)
	assert.Equal(t, 10, q["from"])
	assert.Equal(t, 5, q["size"])
	mm := q["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "kettle", mm["query"])
	assert.Contains(t, mm["fields"], "name^2")
}

func TestDBIndex(t *testing.T) {
	t.Parallel()

	r := repo.New(dbtest.InitTestDB(t))
	ctx := context.Background()
	require.NoError(t, r.CreateProduct(ctx, &models.Product{Name: "Kettle", Quantity: 1, Price: 1}))
	require.NoError(t, r.CreateProduct(ctx, &models.Product{Name: "Lamp", Quantity: 1, Price: 1}))

	idx := &DBIndex{Repo: r}
	require.NoError(t, idx.IndexProduct(ctx, models.Product{}))
	require.NoError(t, idx.DeleteProduct(ctx, uuid.New()))

	total, items, err := idx.Search(ctx, "kett", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Kettle", items[0].Name)
}

// fakeES answers just enough of the Elasticsearch API for ESIndex.
type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[{"_source":{"id":"8f2b8a3e-4f5b-4a35-9d2b-0c7a1f2e9b11","name":"Kettle","quantity":3,"price":20}}]}}`)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	default:
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}
}

func TestESIndex(t *testing.T) {
	t.Parallel()

	fake := &fakeES{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	idx := &ESIndex{ES: es, Index: "products"}
	ctx := context.Background()

	p := models.Product{ID: uuid.New(), Name: "Kettle", Quantity: 3, Price: 20}
	require.NoError(t, idx.IndexProduct(ctx, p))
	require.NoError(t, idx.DeleteProduct(ctx, p.ID))

	total, items, err := idx.Search(ctx, "kettle", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Kettle", items[0].Name)
	assert.Equal(t, 3, items[0].Quantity)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.requests, 3)
	assert.Equal(t, "PUT /products/_doc/"+p.ID.String(), fake.requests[0])
	assert.Equal(t, "DELETE /products/_doc/"+p.ID.String(), fake.requests[1])

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.bodies[2]), &sent))
	assert.EqualValues(t, 10, sent["size"])
}
