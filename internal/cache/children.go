// Package cache хранит уже загруженные списки непосредственных детей категорий.
//
// Записи живут до явной инвалидации: структура дерева меняется только через мутации,
// после которых вызывающий инвалидирует затронутые ключи. На каждый ключ одновременно
// выполняется не более одной загрузки, остальные вызывающие ждут её результата.
package cache

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/pkg/e"
)

// Fetcher загружает детей для ключа. Контекст отменяется, когда результат больше никому не нужен.
type Fetcher func(ctx context.Context, key domain.ChildrenKey) ([]domain.Category, error)

// Observer получает события кэша (метрики). Методы вызываются без удержания блокировок.
type Observer interface {
	CacheHit(locale domain.Locale)
	CacheMiss(locale domain.Locale)
	CacheShared(locale domain.Locale)
	FetchFailed(locale domain.Locale)
}

// call — загрузка в процессе. waiters и detached защищены мьютексом кэша.
type call struct {
	done     chan struct{}
	val      []domain.Category
	err      error
	waiters  int
	detached bool // ключ инвалидирован или брошен всеми ожидающими, результат не сохраняется
	cancel   context.CancelFunc
}

// ChildrenCache — кэш детей по ключу (узел, локаль) с дедупликацией загрузок.
type ChildrenCache struct {
	fetch    Fetcher
	observer Observer

	mu       sync.Mutex
	entries  map[domain.ChildrenKey][]domain.Category
	inflight map[domain.ChildrenKey]*call
}

// NewChildrenCache создаёт кэш. observer может быть nil.
func NewChildrenCache(fetch Fetcher, observer Observer) *ChildrenCache {
	return &ChildrenCache{
		fetch:    fetch,
		observer: observer,
		entries:  make(map[domain.ChildrenKey][]domain.Category),
		inflight: make(map[domain.ChildrenKey]*call),
	}
}

// Get возвращает детей из кэша или загружает их. Конкурентные вызовы для одного ключа
// разделяют одну загрузку и получают одинаковый результат или одинаковую ошибку.
// Ошибка загрузки не кэшируется, следующий вызов повторит запрос.
func (c *ChildrenCache) Get(ctx context.Context, key domain.ChildrenKey) ([]domain.Category, error) {
	if !key.Locale.Valid() {
		return nil, e.Wrap(key.String(), e.ErrInvalidLocale)
	}

	c.mu.Lock()
	if children, ok := c.entries[key]; ok {
		c.mu.Unlock()
		c.notify(key.Locale, Observer.CacheHit)
		return slices.Clone(children), nil
	}

	cl, shared := c.inflight[key]
	if !shared {
		fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		cl = &call{done: make(chan struct{}), cancel: cancel}
		c.inflight[key] = cl
		go c.run(fetchCtx, key, cl)
	}
	cl.waiters++
	c.mu.Unlock()

	if shared {
		c.notify(key.Locale, Observer.CacheShared)
	} else {
		c.notify(key.Locale, Observer.CacheMiss)
	}

	select {
	case <-cl.done:
		if cl.err != nil {
			return nil, cl.err
		}
		return slices.Clone(cl.val), nil
	case <-ctx.Done():
		c.leave(key, cl)
		return nil, ctx.Err()
	}
}

// leave снимает ожидающего. Последний ушедший отменяет загрузку и освобождает ключ,
// чтобы следующее раскрытие начало новую загрузку.
func (c *ChildrenCache) leave(key domain.ChildrenKey, cl *call) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl.waiters--
	if cl.waiters > 0 {
		return
	}

	cl.detached = true
	cl.cancel()
	if c.inflight[key] == cl {
		delete(c.inflight, key)
	}
}

func (c *ChildrenCache) run(ctx context.Context, key domain.ChildrenKey, cl *call) {
	defer cl.cancel()

	children, err := c.fetch(ctx, key)
	err = classify(key, err)

	c.mu.Lock()
	if c.inflight[key] == cl {
		delete(c.inflight, key)
	}
	if err == nil && !cl.detached {
		c.entries[key] = slices.Clone(children)
	}
	cl.val, cl.err = children, err
	c.mu.Unlock()

	close(cl.done)

	if err != nil {
		c.notify(key.Locale, Observer.FetchFailed)
	}
}

// classify пропускает доменные ошибки как есть, остальное помечает как временный сбой.
func classify(key domain.ChildrenKey, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, e.ErrNotFound) || errors.Is(err, e.ErrInvalidLocale) {
		return err
	}
	return &e.FetchError{Key: key.String(), Err: err}
}

// Invalidate удаляет запись ключа. Загрузка, начатая до инвалидации, не сохранит свой результат,
// а новые вызовы начнут свежую загрузку.
func (c *ChildrenCache) Invalidate(keys ...domain.ChildrenKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
		if cl, ok := c.inflight[key]; ok {
			cl.detached = true
			delete(c.inflight, key)
		}
	}
}

// InvalidateAll очищает кэш полностью (смена локали, полная перезагрузка).
func (c *ChildrenCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	for key, cl := range c.inflight {
		cl.detached = true
		delete(c.inflight, key)
	}
}

// Peek возвращает запись без загрузки.
func (c *ChildrenCache) Peek(key domain.ChildrenKey) ([]domain.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	children, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(children), true
}

// Len возвращает количество закэшированных ключей.
func (c *ChildrenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ChildrenCache) notify(locale domain.Locale, event func(Observer, domain.Locale)) {
	if c.observer != nil {
		event(c.observer, locale)
	}
}
