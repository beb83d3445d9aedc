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

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopfront/internal/models"
)

type esCall struct {
	Method string
	Path   string
	Body   string
}

func fakeES(t *testing.T, searchResp string) (*httptest.Server, func() []esCall) {
	t.Helper()
	var mu sync.Mutex
	var calls []esCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, esCall{Method: r.Method, Path: r.URL.Path, Body: string(b)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/":
			_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = io.WriteString(w, searchResp)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
		default:
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"result":"created"}`)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, func() []esCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]esCall(nil), calls...)
	}
}

func TestClient_IndexSearchDelete(t *testing.T) {
	id := uuid.New()
	resp := `{"hits":{"total":{"value":1},"hits":[{"_source":{"id":"` + id.String() + `","name":"Blue Jeans","price":49.5}}]}}`
	srv, calls := fakeES(t, resp)
	ctx := context.Background()

	c, err := NewClient(ctx, Config{URL: srv.URL, Index: "products_test"})
	require.NoError(t, err)

	require.NoError(t, c.Index(ctx, models.Product{ID: id, Name: "Blue Jeans", Price: 49.5}))

	res, err := c.Search(ctx, "jeens", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, id, res.Items[0].ID)

	// a missing document is not an error
	require.NoError(t, c.Delete(ctx, id))

	got := calls()
	require.Len(t, got, 4)
	assert.Equal(t, "/products_test/_doc/"+id.String(), got[1].Path)

	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(got[2].Body), &q))
	mm := q["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "jeens", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Equal(t, http.MethodDelete, got[3].Method)
}

func TestClient_EmptyQuery(t *testing.T) {
	srv, calls := fakeES(t, `{}`)
	c, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)

	res, err := c.Search(context.Background(), "   ", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Len(t, calls(), 1)
}
