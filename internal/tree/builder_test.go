package tree

import (
	"math/rand"
	"testing"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func category(name string, parent *domain.Category) domain.Category {
	c := domain.Category{ID: uuid.New(), Name: &name, Slug: name, Locale: domain.LocaleEN, Level: 1}
	if parent != nil {
		c.ParentID = &parent.ID
		c.Level = parent.Level + 1
	}
	return c
}

// randomForest строит плоский список, в котором часть узлов ссылается на отсутствующих родителей.
func randomForest(rng *rand.Rand, n int) []domain.Category {
	flat := make([]domain.Category, 0, n)
	for i := 0; i < n; i++ {
		var parent *domain.Category
		if len(flat) > 0 && rng.Intn(4) > 0 {
			parent = &flat[rng.Intn(len(flat))]
		}
		c := category(uuid.NewString()[:8], parent)
		if rng.Intn(10) == 0 {
			missing := uuid.New()
			c.ParentID = &missing
			c.Level = 7
		}
		flat = append(flat, c)
	}
	rng.Shuffle(len(flat), func(i, j int) { flat[i], flat[j] = flat[j], flat[i] })
	return flat
}

func ids(flat []domain.Category) []uuid.UUID {
	out := make([]uuid.UUID, len(flat))
	for i, c := range flat {
		out[i] = c.ID
	}
	return out
}

func TestBuild_LevelInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		roots := Build(randomForest(rng, 60))

		for _, r := range roots {
			assert.Equal(t, 1, r.Level)
			assert.Nil(t, r.Parent)
		}
		Walk(roots, func(n *domain.TreeNode) bool {
			for _, child := range n.Children {
				assert.Equal(t, n.Level+1, child.Level)
				assert.Same(t, n, child.Parent)
			}
			return true
		})
	}
}

func TestFlattenBuild_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, size := range []int{0, 1, 2, 17, 120} {
		flat := randomForest(rng, size)
		got := Flatten(Build(flat))

		assert.ElementsMatch(t, ids(flat), ids(got), "size %d", size)
	}
}

func TestFlatten_ParentBeforeChildren(t *testing.T) {
	root := category("Root", nil)
	mid := category("Mid", &root)
	leaf := category("Leaf", &mid)

	got := Flatten(Build([]domain.Category{leaf, mid, root}))
	assert.Equal(t, []uuid.UUID{root.ID, mid.ID, leaf.ID}, ids(got))
}

func TestBuild_SortsSiblingsWithCollation(t *testing.T) {
	root := category("Root", nil)
	cherry := category("cherry", &root)
	apple := category("Apple", &root)
	banana := category("banana", &root)
	unnamed := category("", &root)
	unnamed.Name = nil

	roots := Build([]domain.Category{root, cherry, unnamed, apple, banana})
	require.Len(t, roots, 1)

	var names []string
	for _, c := range roots[0].Children {
		names = append(names, c.DisplayName())
	}
	assert.Equal(t, []string{"Apple", "banana", "cherry", domain.UnnamedPlaceholder}, names)
}

func TestBuild_TiesBrokenByID(t *testing.T) {
	a := category("Same", nil)
	b := category("Same", nil)
	a.ID = uuid.MustParse("00000000-0000-4000-8000-000000000002")
	b.ID = uuid.MustParse("00000000-0000-4000-8000-000000000001")

	first := Build([]domain.Category{a, b})
	second := Build([]domain.Category{b, a})

	assert.Equal(t, b.ID, first[0].ID)
	assert.Equal(t, ids(Flatten(first)), ids(Flatten(second)))
}

func TestBuild_MissingParentBecomesRoot(t *testing.T) {
	root := category("Root", nil)
	mid := category("Mid", &root)
	leaf := category("Leaf", &mid)

	roots := Build([]domain.Category{mid, leaf})
	require.Len(t, roots, 1)
	assert.Equal(t, mid.ID, roots[0].ID)
	assert.Equal(t, 1, roots[0].Level)
	assert.Equal(t, 2, roots[0].Children[0].Level)
}

func TestBuild_CycleDoesNotLoseNodes(t *testing.T) {
	a := category("A", nil)
	b := category("B", nil)
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	self := category("Self", nil)
	self.ParentID = &self.ID

	roots := Build([]domain.Category{a, b, self})

	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID, self.ID}, ids(Flatten(roots)))
	bNode := Find(roots, b.ID)
	require.NotNil(t, bNode)
	assert.Nil(t, bNode.Parent)
	assert.Equal(t, a.ID, bNode.Children[0].ID)
}

func TestBuild_DuplicateIDsKeepEveryRecord(t *testing.T) {
	root := category("Root", nil)
	mid := category("Mid", &root)
	leaf := category("Leaf", &mid)
	copyName := "Mid copy"
	midCopy := mid
	midCopy.Name = &copyName

	flat := []domain.Category{root, mid, midCopy, leaf}
	roots := Build(flat)

	assert.ElementsMatch(t, ids(flat), ids(Flatten(roots)))
	require.Len(t, roots, 2)

	assert.Equal(t, "Mid copy", roots[0].DisplayName())
	assert.Equal(t, 1, roots[0].Level)
	assert.Empty(t, roots[0].Children)

	assert.Equal(t, root.ID, roots[1].ID)
	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, "Mid", roots[1].Children[0].DisplayName())
	require.Len(t, roots[1].Children[0].Children, 1)
	assert.Equal(t, leaf.ID, roots[1].Children[0].Children[0].ID)
}

func TestFind_BreadcrumbThroughParent(t *testing.T) {
	root := category("R", nil)
	mid := category("M", &root)
	leaf := category("L", &mid)

	n := Find(Build([]domain.Category{root, mid, leaf}), leaf.ID)
	require.NotNil(t, n)
	assert.Equal(t, "R > M > L", n.Breadcrumb())
	assert.Nil(t, Find(nil, leaf.ID))
}
