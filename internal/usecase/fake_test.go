package usecase

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/category-tree/internal/cfg"
	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/google/uuid"
)

// memStore — хранилище категорий в памяти с откатом транзакций по снимку.
type memStore struct {
	mu         sync.Mutex
	categories map[uuid.UUID]domain.Category
	order      []uuid.UUID
	products   map[uuid.UUID]int
	events     []*OutboxEvent
	clock      time.Time

	searchCalls  int
	searchLimits []int
	getByIDsCall int
	locks        int
}

func newMemStore() *memStore {
	return &memStore{
		categories: make(map[uuid.UUID]domain.Category),
		products:   make(map[uuid.UUID]int),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// add кладёт категорию напрямую, минуя проверки.
func (s *memStore) add(name string, parent *domain.Category, locale domain.Locale) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := domain.Category{ID: uuid.New(), Name: &name, Slug: strings.ToLower(name), Level: 1, Locale: locale}
	if parent != nil {
		c.ParentID = &parent.ID
		c.Level = parent.Level + 1
	}
	s.insert(c)
	return c
}

func (s *memStore) insert(c domain.Category) {
	s.clock = s.clock.Add(time.Second)
	c.CreatedAt, c.UpdatedAt = s.clock, s.clock
	s.categories[c.ID] = c
	s.order = append(s.order, c.ID)
}

func (s *memStore) setParent(id uuid.UUID, parentID *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.categories[id]
	c.ParentID = parentID
	s.categories[id] = c
}

func (s *memStore) setProducts(id uuid.UUID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = n
}

func (s *memStore) get(id uuid.UUID) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	return c, ok
}

func (s *memStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.categories)
}

func (s *memStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *memStore) withCounts(c domain.Category) domain.Category {
	c.ChildrenCount = 0
	for _, other := range s.categories {
		if other.ParentID != nil && *other.ParentID == c.ID {
			c.ChildrenCount++
		}
	}
	c.ProductCount = s.products[c.ID]
	return c
}

func (s *memStore) inOrder(match func(domain.Category) bool) []domain.Category {
	var out []domain.Category
	for _, id := range s.order {
		c, ok := s.categories[id]
		if ok && match(c) {
			out = append(out, s.withCounts(c))
		}
	}
	return out
}

type snapshot struct {
	categories map[uuid.UUID]domain.Category
	order      []uuid.UUID
	events     []*OutboxEvent
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{maps.Clone(s.categories), slices.Clone(s.order), slices.Clone(s.events)}
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories, s.order, s.events = snap.categories, snap.order, snap.events
}

// memTx откатывает memStore, если fn вернула ошибку.
type memTx struct {
	store *memStore
}

func (m memTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type memCategories struct {
	*memStore
}

func (r memCategories) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, &e.NotFoundError{ID: id.String()}
	}
	c = r.withCounts(c)
	return &c, nil
}

func (r memCategories) GetByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.getByIDsCall++
	var out []domain.Category
	for _, id := range ids {
		if c, ok := r.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCategories) ListChildren(_ context.Context, key domain.ChildrenKey) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inOrder(func(c domain.Category) bool {
		return c.Locale == key.Locale && c.SiblingsKey() == key
	}), nil
}

func (r memCategories) ListByLocale(_ context.Context, locale domain.Locale) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inOrder(func(c domain.Category) bool { return c.Locale == locale }), nil
}

func (r memCategories) Search(_ context.Context, locale domain.Locale, query string, limit int) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.searchCalls++
	r.searchLimits = append(r.searchLimits, limit)
	q := strings.ToLower(query)
	found := r.inOrder(func(c domain.Category) bool {
		if c.Locale != locale {
			return false
		}
		fields := []string{c.Slug}
		if c.Name != nil {
			fields = append(fields, *c.Name)
		}
		if c.Description != nil {
			fields = append(fields, *c.Description)
		}
		return slices.ContainsFunc(fields, func(f string) bool { return strings.Contains(strings.ToLower(f), q) })
	})
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (r memCategories) SlugExists(_ context.Context, slug string, locale domain.Locale, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.Slug == slug && c.Locale == locale && (excludeID == nil || c.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (r memCategories) Create(_ context.Context, category *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insert(*category)
	c := r.categories[category.ID]
	return &c, nil
}

func (r memCategories) Update(_ context.Context, category *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.ID]; !ok {
		return nil, &e.NotFoundError{ID: category.ID.String()}
	}
	r.clock = r.clock.Add(time.Second)
	c := *category
	c.UpdatedAt = r.clock
	r.categories[c.ID] = c
	return &c, nil
}

func (r memCategories) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.withCounts(r.categories[id]).ChildrenCount > 0 {
		return e.ErrHasChildren
	}
	delete(r.categories, id)
	return nil
}

func (r memCategories) LockTree(context.Context, domain.Locale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks++
	return nil
}

type memOutbox struct {
	*memStore
}

func (o memOutbox) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	event.ID = int64(len(o.events) + 1)
	o.events = append(o.events, event)
	return event, nil
}

func (o memOutbox) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (o memOutbox) MarkAsProcessed(context.Context, int64) error { return nil }
func (o memOutbox) MarkAsPending(context.Context, int64) error   { return nil }

// memChildrenCache — общий слой кэша с версиями ключей, запоминает удалённые ключи.
type memChildrenCache struct {
	mu       sync.Mutex
	entries  map[domain.ChildrenKey][]domain.Category
	versions map[domain.ChildrenKey]int64
	deleted  []domain.ChildrenKey
	rejected int
}

func newMemChildrenCache() *memChildrenCache {
	return &memChildrenCache{
		entries:  make(map[domain.ChildrenKey][]domain.Category),
		versions: make(map[domain.ChildrenKey]int64),
	}
}

func (m *memChildrenCache) GetChildren(_ context.Context, key domain.ChildrenKey) ([]domain.Category, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	children, ok := m.entries[key]
	return children, m.versions[key], ok, nil
}

func (m *memChildrenCache) SetChildren(_ context.Context, key domain.ChildrenKey, version int64, children []domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[key] != version {
		m.rejected++
		return nil
	}
	m.entries[key] = children
	return nil
}

func (m *memChildrenCache) DeleteChildren(_ context.Context, keys ...domain.ChildrenKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
		m.versions[key]++
	}
	m.deleted = append(m.deleted, keys...)
	return nil
}

type memImages map[string]bool

func (m memImages) Exists(_ context.Context, key string) (bool, error) {
	return m[key], nil
}

type recordedMutation struct {
	op   string
	kind string
}

type mutationRecorder struct {
	mu   sync.Mutex
	seen []recordedMutation
}

func (r *mutationRecorder) MutationDone(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recordedMutation{op: op, kind: e.Kind(err)})
}

type fixture struct {
	store    *memStore
	shared   *memChildrenCache
	recorder *mutationRecorder
	images   ImageRepository
	cfg      *cfg.TreeCfg
	uc       *CategoryUseCase
}

func newFixture(opts ...func(*fixture)) *fixture {
	f := &fixture{
		store:    newMemStore(),
		shared:   newMemChildrenCache(),
		recorder: &mutationRecorder{},
		cfg:      cfg.DefaultTreeCfg(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.uc = NewCategoryUC(
		memCategories{f.store},
		memOutbox{f.store},
		f.shared,
		f.images,
		memTx{f.store},
		f.recorder,
		f.cfg,
		logger.Nop(),
	)
	return f
}

func withImages(images memImages) func(*fixture) {
	return func(f *fixture) { f.images = images }
}

func strictParent(f *fixture) {
	f.cfg.StrictParent = true
}

func ptr[T any](v T) *T {
	return &v
}
