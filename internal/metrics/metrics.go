// Package metrics — метрики Prometheus сервиса дерева категорий.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector хранит метрики в собственном реестре, поэтому несколько экземпляров не конфликтуют.
type Collector struct {
	registry *prometheus.Registry

	CacheEvents  *prometheus.CounterVec
	Mutations    *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		CacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "children_cache_events_total",
				Help:      "Children cache lookups by outcome (hit, miss, shared, fetch_failed)",
			},
			[]string{"event", "locale"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "category_mutations_total",
				Help:      "Category mutations by operation and result kind",
			},
			[]string{"op", "result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		c.CacheEvents,
		c.Mutations,
		c.HTTPRequests,
		c.HTTPDuration,
		prometheus.NewGoCollector(),
	)

	return c
}

// Handler отдаёт метрики реестра коллектора.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) CacheHit(locale domain.Locale)    { c.cacheEvent("hit", locale) }
func (c *Collector) CacheMiss(locale domain.Locale)   { c.cacheEvent("miss", locale) }
func (c *Collector) CacheShared(locale domain.Locale) { c.cacheEvent("shared", locale) }
func (c *Collector) FetchFailed(locale domain.Locale) { c.cacheEvent("fetch_failed", locale) }

func (c *Collector) cacheEvent(event string, locale domain.Locale) {
	c.CacheEvents.WithLabelValues(event, locale.String()).Inc()
}

// MutationDone считает мутации по виду результата (ok, slug_taken, has_children, ...).
func (c *Collector) MutationDone(op string, err error) {
	c.Mutations.WithLabelValues(op, e.Kind(err)).Inc()
}

// Middleware считает запросы по шаблону маршрута chi, а не по сырому пути.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
