package pgdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/DRSN-tech/category-tree/pkg/tr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectTestPostgres подключается к TEST_DATABASE_URL, применяет схему и пропускает тест без базы.
func connectTestPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skip postgres: TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Skipf("skip postgres: %v", err)
	}

	schema, err := os.ReadFile("../../../db/migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return pool
}

type deleteFixture struct {
	pool *pgxpool.Pool
	repo *CategoryRepo
}

func newDeleteFixture(t *testing.T) *deleteFixture {
	pool := connectTestPostgres(t)
	return &deleteFixture{pool: pool, repo: NewCategoryRepo(pool, converter.CategoryConverter{})}
}

func (f *deleteFixture) category(t *testing.T, parent *domain.Category) *domain.Category {
	t.Helper()
	ctx := context.Background()

	c := &domain.Category{ID: uuid.New(), Level: 1, Locale: domain.LocaleEN}
	c.Slug = "delete-" + c.ID.String()
	if parent != nil {
		c.ParentID = &parent.ID
		c.Level = parent.Level + 1
	}

	created, err := f.repo.Create(ctx, c)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = f.pool.Exec(ctx, `DELETE FROM products WHERE category_id = $1`, created.ID)
		_, _ = f.pool.Exec(ctx, `DELETE FROM categories WHERE parent_id = $1`, created.ID)
		_, _ = f.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, created.ID)
	})
	return created
}

func (f *deleteFixture) product(t *testing.T, categoryID uuid.UUID, archived bool) int64 {
	t.Helper()
	ctx := context.Background()

	var id int64
	err := f.pool.QueryRow(ctx,
		`INSERT INTO products (name, category_id, is_archived) VALUES ('p', $1, $2) RETURNING id`,
		categoryID, archived,
	).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = f.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id) })
	return id
}

func (f *deleteFixture) delete(id uuid.UUID) error {
	return tr.NewManager(f.pool).Do(context.Background(), func(ctx context.Context) error {
		return f.repo.Delete(ctx, id)
	})
}

func TestCategoryRepo_Delete_ArchivedProductsDoNotBlock(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	category := f.category(t, nil)
	productID := f.product(t, category.ID, true)

	got, err := f.repo.GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ProductCount)

	require.NoError(t, f.delete(category.ID))

	_, err = f.repo.GetByID(ctx, category.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	var categoryID *uuid.UUID
	require.NoError(t, f.pool.QueryRow(ctx, `SELECT category_id FROM products WHERE id = $1`, productID).Scan(&categoryID))
	assert.Nil(t, categoryID)
}

func TestCategoryRepo_Delete_ActiveProductCarriesCount(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	category := f.category(t, nil)
	f.product(t, category.ID, false)
	archivedID := f.product(t, category.ID, true)

	err := f.delete(category.ID)
	var countErr *e.CountError
	require.ErrorAs(t, err, &countErr)
	assert.ErrorIs(t, err, e.ErrHasProducts)
	assert.Equal(t, 1, countErr.Count)

	_, err = f.repo.GetByID(ctx, category.ID)
	require.NoError(t, err)

	var categoryID *uuid.UUID
	require.NoError(t, f.pool.QueryRow(ctx, `SELECT category_id FROM products WHERE id = $1`, archivedID).Scan(&categoryID))
	require.NotNil(t, categoryID, "detaching is rolled back with the failed delete")
	assert.Equal(t, category.ID, *categoryID)
}

func TestCategoryRepo_Delete_ChildCarriesCount(t *testing.T) {
	f := newDeleteFixture(t)

	parent := f.category(t, nil)
	f.category(t, parent)
	f.category(t, parent)

	err := f.delete(parent.ID)
	var countErr *e.CountError
	require.ErrorAs(t, err, &countErr)
	assert.ErrorIs(t, err, e.ErrHasChildren)
	assert.Equal(t, 2, countErr.Count)
}

func TestCategoryRepo_Delete_NotFound(t *testing.T) {
	f := newDeleteFixture(t)

	err := f.delete(uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}
