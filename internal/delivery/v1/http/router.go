package http

import (
	_ "github.com/DRSN-tech/category-tree/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/category-tree/internal/cache"
	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/metrics"
	"github.com/DRSN-tech/category-tree/internal/usecase"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router  *chi.Mux
	metrics *metrics.Collector
	logger  logger.Logger
}

// NewRouter создаёт роутер. collector может быть nil, тогда /metrics не регистрируется.
func NewRouter(router *chi.Mux, collector *metrics.Collector, logger logger.Logger) *Router {
	return &Router{router: router, metrics: collector, logger: logger}
}

func (r *Router) Init(categoryUC usecase.CategoryUC, defaultLocale domain.Locale) {
	r.router.Use(middleware.RequestID, middleware.Recoverer)

	var cacheObserver cache.Observer
	if r.metrics != nil {
		r.router.Use(r.metrics.Middleware)
		r.router.Handle("/metrics", r.metrics.Handler())
		cacheObserver = r.metrics
	}

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		categoryHandler := NewCategoryHandler(categoryUC, cacheObserver, defaultLocale, r.logger)
		registerCategoryRoutes(v1, categoryHandler)
	})
}

func registerCategoryRoutes(router chi.Router, h *CategoryHandler) {
	router.Route("/categories", func(cr chi.Router) {
		cr.Get("/", h.listChildren)
		cr.Post("/", h.create)
		cr.Get("/tree", h.tree)
		cr.Get("/export", h.export)
		cr.Get("/search", h.search)
		cr.Get("/reveal", h.reveal)
		cr.Get("/{id}", h.get)
		cr.Patch("/{id}", h.update)
		cr.Delete("/{id}", h.delete)
	})
}
