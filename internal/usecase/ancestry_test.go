package usecase

import (
	"fmt"
	"testing"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_AncestryAndBreadcrumb(t *testing.T) {
	f := newFixture()
	r := f.store.add("R", nil, domain.LocaleEN)
	m := f.store.add("M", &r, domain.LocaleEN)
	l := f.store.add("L", &m, domain.LocaleEN)
	f.store.setProducts(l.ID, 4)

	results, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "l", 0))
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, []uuid.UUID{r.ID, m.ID}, got.AncestryIDs)
	assert.Equal(t, "R > M > L", got.BreadcrumbPath)
	assert.Equal(t, 4, got.ProductCount)
	assert.Equal(t, 3, got.Level)
}

func TestSearch_RootHasEmptyAncestry(t *testing.T) {
	f := newFixture()
	f.store.add("Shoes", nil, domain.LocaleEN)

	results, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "SHO", 0))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotNil(t, results[0].AncestryIDs)
	assert.Empty(t, results[0].AncestryIDs)
	assert.Equal(t, "Shoes", results[0].BreadcrumbPath)
}

func TestSearch_UnnamedAncestor(t *testing.T) {
	f := newFixture()
	r := f.store.add("Root", nil, domain.LocaleEN)
	m := f.store.add("mid", &r, domain.LocaleEN)
	f.store.add("Leaf", &m, domain.LocaleEN)

	f.store.mu.Lock()
	unnamed := f.store.categories[m.ID]
	unnamed.Name = nil
	f.store.categories[m.ID] = unnamed
	f.store.mu.Unlock()

	results, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "leaf", 0))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Root > Unnamed > Leaf", results[0].BreadcrumbPath)
}

func TestSearch_BlankQuerySkipsStore(t *testing.T) {
	f := newFixture()
	f.store.add("Shoes", nil, domain.LocaleEN)

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, q, 0))
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
	assert.Equal(t, 0, f.store.searchCalls)
}

func TestSearch_Limits(t *testing.T) {
	f := newFixture()
	for _, name := range []string{"Shoe 1", "Shoe 2", "Shoe 3"} {
		f.store.add(name, nil, domain.LocaleEN)
	}

	results, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "shoe", 2))
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "Shoe 1", results[0].Name, "store order")

	_, err = f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "shoe", 0))
	require.NoError(t, err)
	_, err = f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "shoe", 10_000))
	require.NoError(t, err)

	assert.Equal(t, []int{2, f.cfg.SearchDefaultLimit, f.cfg.SearchMaxLimit}, f.store.searchLimits)
}

func TestSearch_InvalidLocale(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleUnknown, "shoes", 0))
	assert.ErrorIs(t, err, e.ErrInvalidLocale)
}

func TestSearch_BatchesAncestorLookupsPerLevel(t *testing.T) {
	f := newFixture()
	r := f.store.add("Root", nil, domain.LocaleEN)
	m := f.store.add("Mid", &r, domain.LocaleEN)
	for _, name := range []string{"Leaf 1", "Leaf 2", "Leaf 3"} {
		f.store.add(name, &m, domain.LocaleEN)
	}

	results, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "leaf", 0))
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, []uuid.UUID{r.ID, m.ID}, res.AncestryIDs)
	}
	assert.Equal(t, 2, f.store.getByIDsCall)
}

func TestSearch_CorruptHierarchy(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		f := newFixture()
		a := f.store.add("Alpha", nil, domain.LocaleEN)
		b := f.store.add("Beta", &a, domain.LocaleEN)
		f.store.setParent(a.ID, &b.ID)

		_, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "alpha", 0))
		assert.ErrorIs(t, err, e.ErrCorruptHierarchy)
	})

	t.Run("dangling parent", func(t *testing.T) {
		f := newFixture()
		a := f.store.add("Alpha", nil, domain.LocaleEN)
		f.store.setParent(a.ID, ptr(uuid.New()))

		_, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "alpha", 0))
		assert.ErrorIs(t, err, e.ErrCorruptHierarchy)
	})

	t.Run("long cycle above the match", func(t *testing.T) {
		f := newFixture()
		first := f.store.add("c000", nil, domain.LocaleEN)
		prev := first
		for i := 1; i < 100; i++ {
			prev = f.store.add(fmt.Sprintf("c%03d", i), &prev, domain.LocaleEN)
		}
		f.store.setParent(first.ID, &prev.ID)
		target := f.store.add("Target", &prev, domain.LocaleEN)

		_, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "target", 0))
		var hierarchyErr *e.HierarchyError
		require.ErrorAs(t, err, &hierarchyErr)
		assert.Equal(t, target.ID.String(), hierarchyErr.ID)
		assert.LessOrEqual(t, f.store.getByIDsCall, 100)
	})
}

func TestSearch_DeepValidTree(t *testing.T) {
	f := newFixture()

	var (
		parentID *uuid.UUID
		created  []uuid.UUID
	)
	for i := 0; i < 70; i++ {
		res, err := f.uc.Create(ctx, &CreateCategoryReq{
			Name:     ptr(fmt.Sprintf("node%03d", i)),
			ParentID: parentID,
			Locale:   domain.LocaleEN,
		})
		require.NoError(t, err)
		parentID = &res.Category.ID
		created = append(created, res.Category.ID)
	}

	results, err := f.uc.Search(ctx, NewSearchReq(domain.LocaleEN, "node069", 0))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 70, results[0].Level)
	assert.Equal(t, created[:69], results[0].AncestryIDs)

	m := f.store.add("Moved", nil, domain.LocaleEN)
	res, err := f.uc.Update(ctx, &UpdateCategoryReq{ID: m.ID, SetParent: true, ParentID: parentID})
	require.NoError(t, err)
	assert.Equal(t, 71, res.Category.Level)
}

func TestUpdate_CorruptAncestryFailsReparent(t *testing.T) {
	f := newFixture()
	a := f.store.add("Alpha", nil, domain.LocaleEN)
	b := f.store.add("Beta", &a, domain.LocaleEN)
	f.store.setParent(a.ID, &b.ID)
	m := f.store.add("M", nil, domain.LocaleEN)

	_, err := f.uc.Update(ctx, &UpdateCategoryReq{ID: m.ID, SetParent: true, ParentID: &b.ID})
	assert.ErrorIs(t, err, e.ErrCorruptHierarchy)
}
