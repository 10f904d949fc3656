package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/DRSN-tech/category-tree/internal/cfg"
	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/tree"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/DRSN-tech/category-tree/pkg/slug"
	"github.com/google/uuid"
)

// CategoryUseCase реализует чтение дерева категорий, поиск с цепочкой предков и защищённые мутации.
type CategoryUseCase struct {
	categoryRepo  CategoryRepository
	outboxRepo    OutboxRepository
	childrenCache ChildrenCacheRepository
	imageRepo     ImageRepository
	txManager     TxManager
	observer      MutationObserver
	cfg           *cfg.TreeCfg
	logger        logger.Logger
}

// NewCategoryUC создаёт usecase. childrenCache, imageRepo и observer могут быть nil.
func NewCategoryUC(
	categoryRepo CategoryRepository,
	outboxRepo OutboxRepository,
	childrenCache ChildrenCacheRepository,
	imageRepo ImageRepository,
	txManager TxManager,
	observer MutationObserver,
	cfg *cfg.TreeCfg,
	logger logger.Logger,
) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo:  categoryRepo,
		outboxRepo:    outboxRepo,
		childrenCache: childrenCache,
		imageRepo:     imageRepo,
		txManager:     txManager,
		observer:      observer,
		cfg:           cfg,
		logger:        logger,
	}
}

// Get возвращает категорию со счётчиками.
func (c *CategoryUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	const op = "CategoryUseCase.Get"

	category, err := c.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return category, nil
}

// ListChildren возвращает непосредственных детей узла (или корни локали).
// Сначала читается общий кэш, затем PostgreSQL. Прочитанный список попадает в кэш,
// только если ключ не инвалидировали во время запроса к базе.
// Пустой список для несуществующего узла не отличим от листа, поэтому такой случай возвращает ErrNotFound.
func (c *CategoryUseCase) ListChildren(ctx context.Context, key domain.ChildrenKey) ([]domain.Category, error) {
	const op = "CategoryUseCase.ListChildren"

	if !key.Locale.Valid() {
		return nil, e.Wrap(op, e.ErrInvalidLocale)
	}

	var (
		version   int64
		cacheable bool
	)
	if c.childrenCache != nil {
		children, ver, ok, err := c.childrenCache.GetChildren(ctx, key)
		switch {
		case err != nil:
			c.logger.Warnf("Children cache read failed, key: %s: %v", key, e.Wrap(op, err))
		case ok:
			return children, nil
		default:
			version, cacheable = ver, true
		}
	}

	children, err := c.categoryRepo.ListChildren(ctx, key)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(children) == 0 && !key.IsRoot() {
		if _, err := c.categoryRepo.GetByID(ctx, key.ParentID); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	if cacheable {
		if err := c.childrenCache.SetChildren(ctx, key, version, children); err != nil {
			c.logger.Warnf("Failed to cache children, key: %s: %v", key, e.Wrap(op, err))
		}
	}

	return children, nil
}

// Tree строит полное дерево локали.
func (c *CategoryUseCase) Tree(ctx context.Context, locale domain.Locale) ([]*domain.TreeNode, error) {
	const op = "CategoryUseCase.Tree"

	if !locale.Valid() {
		return nil, e.Wrap(op, e.ErrInvalidLocale)
	}

	categories, err := c.categoryRepo.ListByLocale(ctx, locale)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return tree.Build(categories), nil
}

// Export возвращает все категории локали в порядке обхода дерева (родитель раньше детей).
func (c *CategoryUseCase) Export(ctx context.Context, locale domain.Locale) ([]domain.Category, error) {
	roots, err := c.Tree(ctx, locale)
	if err != nil {
		return nil, err
	}

	return tree.Flatten(roots), nil
}

// Create создаёт категорию. Уровень вычисляется от родителя, значение клиента не используется.
// Несуществующий родитель превращает категорию в корень, если не включён StrictParent.
func (c *CategoryUseCase) Create(ctx context.Context, req *CreateCategoryReq) (res *MutationRes, err error) {
	const op = "CategoryUseCase.Create"
	defer func() { c.observe("create", err) }()

	if !req.Locale.Valid() {
		return nil, e.Wrap(op, e.ErrInvalidLocale)
	}

	name := normalizeText(req.Name)
	categorySlug := req.Slug
	if strings.TrimSpace(categorySlug) == "" && name != nil {
		categorySlug = *name
	}
	categorySlug = slug.Generate(categorySlug)
	if categorySlug == "" {
		return nil, e.Wrap(op, e.ErrSlugRequired)
	}

	imageURL := normalizeText(req.ImageURL)
	if err := c.checkImage(ctx, imageURL); err != nil {
		return nil, e.Wrap(op, err)
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        categorySlug,
		Description: normalizeText(req.Description),
		Level:       1,
		Locale:      req.Locale,
		ImageURL:    imageURL,
	}

	err = c.txManager.Do(ctx, func(ctx context.Context) error {
		if req.ParentID != nil {
			parent, err := c.categoryRepo.GetByID(ctx, *req.ParentID)
			switch {
			case errors.Is(err, e.ErrNotFound):
				if c.cfg.StrictParent {
					return &e.ParentError{ParentID: req.ParentID.String(), Reason: "parent does not exist"}
				}
				c.logger.Warnf("Parent %s not found, creating category %q as root", req.ParentID, categorySlug)
			case err != nil:
				return err
			case parent.Locale != req.Locale:
				return &e.ParentError{ParentID: parent.ID.String(), Reason: "parent belongs to locale " + parent.Locale.String()}
			default:
				category.ParentID = &parent.ID
				category.Level = parent.Level + 1
			}
		}

		if err := c.ensureSlugFree(ctx, category.Slug, category.Locale, nil); err != nil {
			return err
		}

		created, err := c.categoryRepo.Create(ctx, category)
		if err != nil {
			return err
		}

		if err := c.writeEvent(ctx, domain.CategoryCreated, created, nil); err != nil {
			return err
		}

		res = NewMutationRes(created, []domain.ChildrenKey{created.SiblingsKey()}, 0)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidateShared(ctx, res.Invalidate)
	return res, nil
}

// Update частично обновляет категорию. При смене родителя уровень пересчитывается только
// для самого узла; уровни потомков остаются прежними, их число возвращается в StaleDescendants.
func (c *CategoryUseCase) Update(ctx context.Context, req *UpdateCategoryReq) (res *MutationRes, err error) {
	const op = "CategoryUseCase.Update"
	defer func() { c.observe("update", err) }()

	var newSlug string
	if req.Slug != nil {
		if newSlug = slug.Generate(*req.Slug); newSlug == "" {
			return nil, e.Wrap(op, e.ErrSlugRequired)
		}
	}

	var imageURL *string
	if req.SetImage {
		imageURL = normalizeText(req.ImageURL)
		if err := c.checkImage(ctx, imageURL); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	err = c.txManager.Do(ctx, func(ctx context.Context) error {
		current, err := c.categoryRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		updated := *current
		if req.Name != nil {
			updated.Name = normalizeText(req.Name)
		}
		if req.Description != nil {
			updated.Description = normalizeText(req.Description)
		}
		if req.Slug != nil {
			updated.Slug = newSlug
		}
		if req.SetImage {
			updated.ImageURL = imageURL
		}

		invalidate := []domain.ChildrenKey{current.SiblingsKey()}
		stale := 0
		if req.SetParent && !sameParent(current.ParentID, req.ParentID) {
			if err := c.categoryRepo.LockTree(ctx, current.Locale); err != nil {
				return err
			}

			level, err := c.levelUnder(ctx, current, req.ParentID)
			if err != nil {
				return err
			}

			updated.ParentID = cloneID(req.ParentID)
			updated.Level = level
			invalidate = append(invalidate, updated.SiblingsKey())
			stale = current.ChildrenCount
		}

		if updated.Slug != current.Slug {
			if err := c.ensureSlugFree(ctx, updated.Slug, updated.Locale, &current.ID); err != nil {
				return err
			}
		}

		saved, err := c.categoryRepo.Update(ctx, &updated)
		if err != nil {
			return err
		}
		saved.ChildrenCount = current.ChildrenCount
		saved.ProductCount = current.ProductCount

		if err := c.writeEvent(ctx, domain.CategoryUpdated, saved, current.ParentID); err != nil {
			return err
		}

		if stale > 0 {
			c.logger.Warnf("Category %s moved to level %d, levels of its %d child categories were not recomputed",
				saved.ID, saved.Level, stale)
		}

		res = NewMutationRes(saved, invalidate, stale)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidateShared(ctx, res.Invalidate)
	return res, nil
}

// Delete удаляет категорию без детей и активных продуктов и возвращает удалённую запись.
func (c *CategoryUseCase) Delete(ctx context.Context, id uuid.UUID) (res *MutationRes, err error) {
	const op = "CategoryUseCase.Delete"
	defer func() { c.observe("delete", err) }()

	err = c.txManager.Do(ctx, func(ctx context.Context) error {
		current, err := c.categoryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if current.ChildrenCount > 0 {
			return &e.CountError{Kind: e.ErrHasChildren, ID: id.String(), Count: current.ChildrenCount}
		}
		if current.ProductCount > 0 {
			return &e.CountError{Kind: e.ErrHasProducts, ID: id.String(), Count: current.ProductCount}
		}

		if err := c.categoryRepo.Delete(ctx, id); err != nil {
			return err
		}

		if err := c.writeEvent(ctx, domain.CategoryDeleted, current, nil); err != nil {
			return err
		}

		res = NewMutationRes(current, []domain.ChildrenKey{current.SiblingsKey(), current.ChildrenKey()}, 0)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidateShared(ctx, res.Invalidate)
	return res, nil
}

// levelUnder проверяет нового родителя узла и возвращает новый уровень узла.
// Родитель не может быть самим узлом или его потомком.
func (c *CategoryUseCase) levelUnder(ctx context.Context, node *domain.Category, parentID *uuid.UUID) (int, error) {
	if parentID == nil {
		return 1, nil
	}

	if *parentID == node.ID {
		return 0, &e.ParentError{ID: node.ID.String(), ParentID: parentID.String(), Reason: "category cannot be its own parent"}
	}

	parent, err := c.categoryRepo.GetByID(ctx, *parentID)
	if errors.Is(err, e.ErrNotFound) {
		return 0, &e.ParentError{ID: node.ID.String(), ParentID: parentID.String(), Reason: "parent does not exist"}
	}
	if err != nil {
		return 0, err
	}

	if parent.Locale != node.Locale {
		return 0, &e.ParentError{
			ID:       node.ID.String(),
			ParentID: parent.ID.String(),
			Reason:   "parent belongs to locale " + parent.Locale.String(),
		}
	}

	chains, err := c.resolveAncestry(ctx, []domain.Category{*parent})
	if err != nil {
		return 0, err
	}

	if slices.ContainsFunc(chains[parent.ID], func(a domain.Category) bool { return a.ID == node.ID }) {
		return 0, &e.ParentError{ID: node.ID.String(), ParentID: parent.ID.String(), Reason: "parent is a descendant of the category"}
	}

	return parent.Level + 1, nil
}

// ensureSlugFree проверяет уникальность slug в локали, excludeID исключает обновляемую категорию.
func (c *CategoryUseCase) ensureSlugFree(ctx context.Context, categorySlug string, locale domain.Locale, excludeID *uuid.UUID) error {
	taken, err := c.categoryRepo.SlugExists(ctx, categorySlug, locale, excludeID)
	if err != nil {
		return err
	}

	if taken {
		return &e.SlugError{Slug: categorySlug, Locale: locale.String()}
	}

	return nil
}

// checkImage проверяет, что ключ объекта существует в хранилище. Абсолютные URL не проверяются.
func (c *CategoryUseCase) checkImage(ctx context.Context, imageURL *string) error {
	if c.imageRepo == nil || imageURL == nil {
		return nil
	}

	if u, err := url.Parse(*imageURL); err == nil && u.IsAbs() {
		return nil
	}

	exists, err := c.imageRepo.Exists(ctx, *imageURL)
	if err != nil {
		return err
	}

	if !exists {
		return e.Wrap(*imageURL, e.ErrImageNotFound)
	}

	return nil
}

// writeEvent пишет событие изменения в outbox в текущей транзакции.
func (c *CategoryUseCase) writeEvent(ctx context.Context, eventType domain.CategoryEventType, category *domain.Category, oldParentID *uuid.UUID) error {
	event := domain.NewCategoryEvent(eventType, category, oldParentID)

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = c.outboxRepo.Create(ctx, NewOutboxEvent(event.EventID, category.ID, payload))
	return err
}

// invalidateShared сбрасывает общий кэш списков детей после коммита. Ошибка только логируется:
// запись в Redis ограничена TTL.
func (c *CategoryUseCase) invalidateShared(ctx context.Context, keys []domain.ChildrenKey) {
	if c.childrenCache == nil || len(keys) == 0 {
		return
	}

	if err := c.childrenCache.DeleteChildren(context.WithoutCancel(ctx), keys...); err != nil {
		c.logger.Warnf("Failed to invalidate children cache, keys: %v: %v", keys, err)
	}
}

func (c *CategoryUseCase) observe(op string, err error) {
	if c.observer != nil {
		c.observer.MutationDone(op, err)
	}
}

// normalizeText обрезает пробелы, пустая строка становится null.
func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
