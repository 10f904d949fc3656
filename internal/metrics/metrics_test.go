package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/category-tree/internal/cache"
	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/usecase"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ cache.Observer           = (*Collector)(nil)
	_ usecase.MutationObserver = (*Collector)(nil)
)

func TestCollector_CountsCacheEvents(t *testing.T) {
	c := NewCollector("test")

	c.CacheMiss(domain.LocaleEN)
	c.CacheHit(domain.LocaleEN)
	c.CacheHit(domain.LocaleEN)
	c.FetchFailed(domain.LocaleAR)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheEvents.WithLabelValues("hit", "en")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheEvents.WithLabelValues("miss", "en")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheEvents.WithLabelValues("fetch_failed", "ar")))
}

func TestCollector_CountsMutationsByKind(t *testing.T) {
	c := NewCollector("test")

	c.MutationDone("delete", &e.CountError{Kind: e.ErrHasChildren, ID: "x", Count: 2})
	c.MutationDone("delete", nil)
	c.MutationDone("create", e.Wrap("CategoryUseCase.Create", errors.New("boom")))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Mutations.WithLabelValues("delete", "has_children")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Mutations.WithLabelValues("delete", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Mutations.WithLabelValues("create", "internal")))
}

func TestCollector_MiddlewareAndHandler(t *testing.T) {
	c := NewCollector("test")

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", c.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/123", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/categories/{id}", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "test_http_requests_total")
}
