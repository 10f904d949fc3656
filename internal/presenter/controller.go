// Package presenter управляет состоянием отображения дерева: раскрытые узлы,
// раскрытие пути к найденной категории и цель прокрутки.
// Controller живёт в пределах сессии или запроса и владеет собственным кэшем детей.
package presenter

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/DRSN-tech/category-tree/internal/cache"
	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/google/uuid"
)

// Level — один раскрытый уровень дерева. ParentID == nil для корней.
type Level struct {
	ParentID *uuid.UUID
	Children []domain.Category
}

// Reveal — результат раскрытия пути к категории.
// Path — цепочка от корня до цели включительно, Levels — списки детей вдоль этой цепочки.
type Reveal struct {
	Target uuid.UUID
	Path   []uuid.UUID
	Levels []Level
}

type Controller struct {
	children *cache.ChildrenCache
	logger   logger.Logger

	mu           sync.Mutex
	locale       domain.Locale
	expanded     map[uuid.UUID]struct{}
	scrollTarget *uuid.UUID
}

func NewController(children *cache.ChildrenCache, locale domain.Locale, logger logger.Logger) *Controller {
	return &Controller{
		children: children,
		logger:   logger,
		locale:   locale,
		expanded: make(map[uuid.UUID]struct{}),
	}
}

func (c *Controller) Locale() domain.Locale {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locale
}

// Roots возвращает корневой уровень текущей локали.
func (c *Controller) Roots(ctx context.Context) ([]domain.Category, error) {
	return c.children.Get(ctx, domain.RootKey(c.Locale()))
}

// Expand загружает детей узла и помечает его раскрытым.
// При ошибке узел остаётся свёрнутым.
func (c *Controller) Expand(ctx context.Context, id uuid.UUID) ([]domain.Category, error) {
	children, err := c.children.Get(ctx, domain.ChildrenKey{ParentID: id, Locale: c.Locale()})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.expanded[id] = struct{}{}
	c.mu.Unlock()

	return children, nil
}

// Collapse сворачивает узел. Загруженные дети остаются в кэше.
func (c *Controller) Collapse(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.expanded, id)
}

func (c *Controller) IsExpanded(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.expanded[id]
	return ok
}

// Expanded возвращает раскрытые узлы в детерминированном порядке.
func (c *Controller) Expanded() []uuid.UUID {
	c.mu.Lock()
	ids := make([]uuid.UUID, 0, len(c.expanded))
	for id := range c.expanded {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}

// Reveal раскрывает по порядку всех предков найденной категории и делает её целью прокрутки.
// Если узла цепочки нет в закэшированном списке родителя, список перезагружается один раз.
func (c *Controller) Reveal(ctx context.Context, match domain.SearchResult) (*Reveal, error) {
	const op = "Controller.Reveal"

	locale := c.Locale()
	if match.Locale != locale {
		return nil, e.Wrap(op, e.ErrInvalidLocale)
	}

	path := append(slices.Clone(match.AncestryIDs), match.ID)
	levels := make([]Level, 0, len(path))

	key := domain.RootKey(locale)
	for _, id := range path {
		children, err := c.levelContaining(ctx, key, id)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		levels = append(levels, Level{ParentID: key.Parent(), Children: children})

		if id == match.ID {
			break
		}
		c.mu.Lock()
		c.expanded[id] = struct{}{}
		c.mu.Unlock()
		key = domain.ChildrenKey{ParentID: id, Locale: locale}
	}

	c.mu.Lock()
	target := match.ID
	c.scrollTarget = &target
	c.mu.Unlock()

	return &Reveal{Target: match.ID, Path: path, Levels: levels}, nil
}

// RevealAll раскрывает пути ко всем результатам через общий кэш.
// Целью прокрутки становится первый результат.
func (c *Controller) RevealAll(ctx context.Context, matches []domain.SearchResult) ([]Reveal, error) {
	reveals := make([]Reveal, 0, len(matches))
	for _, match := range matches {
		reveal, err := c.Reveal(ctx, match)
		if err != nil {
			return nil, err
		}
		reveals = append(reveals, *reveal)
	}

	if len(matches) > 0 {
		c.mu.Lock()
		target := matches[0].ID
		c.scrollTarget = &target
		c.mu.Unlock()
	}

	return reveals, nil
}

// levelContaining возвращает детей key, среди которых есть id.
func (c *Controller) levelContaining(ctx context.Context, key domain.ChildrenKey, id uuid.UUID) ([]domain.Category, error) {
	children, err := c.children.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if containsID(children, id) {
		return children, nil
	}

	c.logger.Debugf("Category %s missing from cached level %s, refetching", id, key)
	c.children.Invalidate(key)

	children, err = c.children.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !containsID(children, id) {
		return nil, &e.NotFoundError{ID: id.String()}
	}

	return children, nil
}

// ScrollTarget возвращает категорию, к которой нужно прокрутить список.
func (c *Controller) ScrollTarget() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scrollTarget == nil {
		return uuid.Nil, false
	}
	return *c.scrollTarget, true
}

// SwitchLocale меняет локаль, сбрасывает раскрытые узлы и весь кэш.
func (c *Controller) SwitchLocale(locale domain.Locale) error {
	if !locale.Valid() {
		return e.Wrap("Controller.SwitchLocale", e.ErrInvalidLocale)
	}

	c.mu.Lock()
	c.locale = locale
	clear(c.expanded)
	c.scrollTarget = nil
	c.mu.Unlock()

	c.children.InvalidateAll()
	return nil
}

// Apply инвалидирует ключи, которые вернула завершённая мутация.
func (c *Controller) Apply(keys ...domain.ChildrenKey) {
	c.children.Invalidate(keys...)
}

func containsID(categories []domain.Category, id uuid.UUID) bool {
	return slices.ContainsFunc(categories, func(c domain.Category) bool { return c.ID == id })
}
