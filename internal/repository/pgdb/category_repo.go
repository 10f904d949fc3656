package pgdb

import (
	"context"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/DRSN-tech/category-tree/pkg/tr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const (
	categoryColumns = `c.id, c.name, c.slug, c.description, c.parent_id, c.level, c.locale, c.image_url,
		c.created_at, c.updated_at`

	// Счётчики вычисляются при каждом чтении, продукты учитываются только активные.
	countColumns = `,
		(SELECT count(*) FROM categories ch WHERE ch.parent_id = c.id) AS children_count,
		(SELECT count(*) FROM products p WHERE p.category_id = c.id AND NOT p.is_archived) AS product_count`

	returningColumns = `id, name, slug, description, parent_id, level, locale, image_url, created_at, updated_at`
)

// CategoryRepo реализует репозиторий категорий поверх PostgreSQL.
// Внутри транзакции менеджера запросы идут через неё, иначе через пул.
type CategoryRepo struct {
	pool *pgxpool.Pool
	conv converter.CategoryConverter
}

func NewCategoryRepo(pool *pgxpool.Pool, conv converter.CategoryConverter) *CategoryRepo {
	return &CategoryRepo{pool: pool, conv: conv}
}

func (c *CategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + countColumns + ` FROM categories c WHERE c.id = $1`

	categories, err := c.query(ctx, query, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(categories) == 0 {
		return nil, &e.NotFoundError{ID: id.String()}
	}

	return &categories[0], nil
}

func (c *CategoryRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.id = ANY($1)`

	categories, err := c.query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return categories, nil
}

func (c *CategoryRepo) ListChildren(ctx context.Context, key domain.ChildrenKey) ([]domain.Category, error) {
	var (
		categories []domain.Category
		err        error
	)

	if key.IsRoot() {
		query := `SELECT ` + categoryColumns + countColumns + `
			FROM categories c
			WHERE c.locale = $1 AND c.parent_id IS NULL
			ORDER BY c.created_at, c.id`
		categories, err = c.query(ctx, query, key.Locale.String())
	} else {
		query := `SELECT ` + categoryColumns + countColumns + `
			FROM categories c
			WHERE c.locale = $1 AND c.parent_id = $2
			ORDER BY c.created_at, c.id`
		categories, err = c.query(ctx, query, key.Locale.String(), key.ParentID)
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return categories, nil
}

func (c *CategoryRepo) ListByLocale(ctx context.Context, locale domain.Locale) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + countColumns + `
		FROM categories c
		WHERE c.locale = $1
		ORDER BY c.level, c.created_at, c.id`

	categories, err := c.query(ctx, query, locale.String())
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return categories, nil
}

// Search ищет подстроку без учёта регистра. Спецсимволы LIKE в запросе экранируются.
func (c *CategoryRepo) Search(ctx context.Context, locale domain.Locale, query string, limit int) ([]domain.Category, error) {
	sql := `SELECT ` + categoryColumns + countColumns + `
		FROM categories c
		WHERE c.locale = $1
		  AND (c.name ILIKE $2 ESCAPE '\' OR c.slug ILIKE $2 ESCAPE '\' OR c.description ILIKE $2 ESCAPE '\')
		ORDER BY c.created_at, c.id
		LIMIT $3`

	categories, err := c.query(ctx, sql, locale.String(), "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return categories, nil
}

func (c *CategoryRepo) SlugExists(ctx context.Context, slug string, locale domain.Locale, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE slug = $1 AND locale = $2 AND ($3::uuid IS NULL OR id <> $3)
		)`

	var exists bool
	if err := tr.Conn(ctx, c.pool).QueryRow(ctx, query, slug, locale.String(), excludeID).Scan(&exists); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	model := c.conv.ToModel(category)
	query := `
		INSERT INTO categories (id, name, slug, description, parent_id, level, locale, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + returningColumns

	created, err := c.query(ctx, query,
		model.ID, model.Name, model.Slug, model.Description,
		model.ParentID, model.Level, model.Locale, model.ImageURL,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), c.mapWriteError(err, category))
	}

	return &created[0], nil
}

func (c *CategoryRepo) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	model := c.conv.ToModel(category)
	query := `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, parent_id = $5, level = $6, image_url = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + returningColumns

	updated, err := c.query(ctx, query,
		model.ID, model.Name, model.Slug, model.Description,
		model.ParentID, model.Level, model.ImageURL,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), c.mapWriteError(err, category))
	}

	if len(updated) == 0 {
		return nil, &e.NotFoundError{ID: category.ID.String()}
	}

	return &updated[0], nil
}

// Delete удаляет категорию и отвязывает от неё архивные продукты. Вызывается внутри транзакции.
// Ребёнок или активный продукт, вставленный после проверки usecase, ловится внешним ключом
// ON DELETE RESTRICT: удаление откатывается до точки сохранения, а ошибка несёт перечитанное число.
func (c *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	conn := tr.Conn(ctx, c.pool)

	if _, err := conn.Exec(ctx, `SAVEPOINT category_delete`); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	err := c.deleteDetached(ctx, conn, id)
	if err == nil {
		if _, err := conn.Exec(ctx, `RELEASE SAVEPOINT category_delete`); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		return nil
	}

	if _, rbErr := conn.Exec(ctx, `ROLLBACK TO SAVEPOINT category_delete`); rbErr != nil {
		return e.Wrap(whereami.WhereAmI(), rbErr)
	}

	constraint, ok := constraintViolation(err, foreignKeyViolation)
	if !ok {
		return err
	}

	kind := e.ErrHasChildren
	if constraint == constraintProductCategory {
		kind = e.ErrHasProducts
	}

	return c.deleteConflict(ctx, conn, id, kind, err)
}

func (c *CategoryRepo) deleteDetached(ctx context.Context, conn tr.Querier, id uuid.UUID) error {
	if _, err := conn.Exec(ctx, `UPDATE products SET category_id = NULL WHERE category_id = $1 AND is_archived`, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tag, err := conn.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return &e.NotFoundError{ID: id.String()}
	}

	return nil
}

// deleteConflict перечитывает счётчики после нарушения внешнего ключа.
func (c *CategoryRepo) deleteConflict(ctx context.Context, conn tr.Querier, id uuid.UUID, kind, cause error) error {
	var children, products int
	query := `SELECT children_count, product_count FROM (SELECT c.id ` + countColumns + ` FROM categories c WHERE c.id = $1) counts`
	if err := conn.QueryRow(ctx, query, id).Scan(&children, &products); err != nil {
		return e.Wrap(whereami.WhereAmI(), cause)
	}

	count := children
	if kind == e.ErrHasProducts {
		count = products
	}

	return &e.CountError{Kind: kind, ID: id.String(), Count: count}
}

// LockTree берёт транзакционную advisory-блокировку локали: переносы узлов выполняются по одному,
// и проверка на цикл видит согласованную цепочку предков.
func (c *CategoryRepo) LockTree(ctx context.Context, locale domain.Locale) error {
	if _, err := tr.Conn(ctx, c.pool).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "categories:"+locale.String()); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CategoryRepo) query(ctx context.Context, query string, args ...any) ([]domain.Category, error) {
	rows, err := tr.Conn(ctx, c.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[converter.CategoryModel])
	if err != nil {
		return nil, err
	}

	return c.conv.ToArrEntity(models)
}

// mapWriteError превращает нарушения ограничений в доменные ошибки.
func (c *CategoryRepo) mapWriteError(err error, category *domain.Category) error {
	if constraint, ok := constraintViolation(err, uniqueViolation); ok && constraint == constraintSlugLocale {
		return &e.SlugError{Slug: category.Slug, Locale: category.Locale.String()}
	}

	if constraint, ok := constraintViolation(err, foreignKeyViolation); ok && constraint == constraintParent {
		parentID := ""
		if category.ParentID != nil {
			parentID = category.ParentID.String()
		}
		return &e.ParentError{ID: category.ID.String(), ParentID: parentID, Reason: "parent was deleted"}
	}

	return err
}

