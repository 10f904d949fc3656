package usecase

import (
	"context"
	"slices"
	"strings"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/google/uuid"
)

// Search ищет категории по подстроке и для каждой возвращает цепочку предков и хлебные крошки.
// Порядок результатов совпадает с порядком хранилища (created_at, id).
func (c *CategoryUseCase) Search(ctx context.Context, req *SearchReq) ([]domain.SearchResult, error) {
	const op = "CategoryUseCase.Search"

	if !req.Locale.Valid() {
		return nil, e.Wrap(op, e.ErrInvalidLocale)
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	matches, err := c.categoryRepo.Search(ctx, req.Locale, query, c.searchLimit(req.Limit))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	chains, err := c.resolveAncestry(ctx, matches)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	results := make([]domain.SearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, newSearchResult(match, chains[match.ID]))
	}

	return results, nil
}

func (c *CategoryUseCase) searchLimit(limit int) int {
	if limit <= 0 {
		return c.cfg.SearchDefaultLimit
	}
	return min(limit, c.cfg.SearchMaxLimit)
}

// resolveAncestry возвращает для каждого узла цепочку предков от корня до непосредственного родителя.
// Предки загружаются по уровням: один запрос GetByIDs на уровень для всех узлов сразу.
// Глубина не ограничена: каждый раунд запрашивает только ещё не загруженные id, поэтому
// загрузка заканчивается и на цикле. Цикл или висячая ссылка на родителя дают ErrCorruptHierarchy.
func (c *CategoryUseCase) resolveAncestry(ctx context.Context, nodes []domain.Category) (map[uuid.UUID][]domain.Category, error) {
	known := make(map[uuid.UUID]domain.Category, len(nodes))
	for _, node := range nodes {
		known[node.ID] = node
	}

	frontier := missingParents(nodes, known)
	for len(frontier) > 0 {
		fetched, err := c.categoryRepo.GetByIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}

		for _, category := range fetched {
			known[category.ID] = category
		}
		frontier = missingParents(fetched, known)
	}

	chains := make(map[uuid.UUID][]domain.Category, len(nodes))
	for _, node := range nodes {
		chain, err := walkAncestors(node, known)
		if err != nil {
			return nil, err
		}
		chains[node.ID] = chain
	}

	return chains, nil
}

// missingParents — родители узлов, которых ещё нет в known, без повторов.
func missingParents(nodes []domain.Category, known map[uuid.UUID]domain.Category) []uuid.UUID {
	var ids []uuid.UUID
	for _, node := range nodes {
		if node.ParentID == nil {
			continue
		}
		if _, ok := known[*node.ParentID]; ok || slices.Contains(ids, *node.ParentID) {
			continue
		}
		ids = append(ids, *node.ParentID)
	}
	return ids
}

// walkAncestors поднимается от node по known. seen ограничивает обход числом различных узлов.
func walkAncestors(node domain.Category, known map[uuid.UUID]domain.Category) ([]domain.Category, error) {
	var chain []domain.Category
	seen := map[uuid.UUID]struct{}{node.ID: {}}

	for cur := node; cur.ParentID != nil; {
		parentID := *cur.ParentID
		if _, ok := seen[parentID]; ok {
			return nil, &e.HierarchyError{ID: node.ID.String(), Reason: "parent cycle through " + parentID.String()}
		}

		parent, ok := known[parentID]
		if !ok {
			return nil, &e.HierarchyError{ID: cur.ID.String(), Reason: "parent " + parentID.String() + " does not exist"}
		}

		seen[parentID] = struct{}{}
		chain = append(chain, parent)
		cur = parent
	}

	slices.Reverse(chain)
	return chain, nil
}

func newSearchResult(match domain.Category, ancestors []domain.Category) domain.SearchResult {
	ids := make([]uuid.UUID, 0, len(ancestors))
	names := make([]string, 0, len(ancestors)+1)
	for _, ancestor := range ancestors {
		ids = append(ids, ancestor.ID)
		names = append(names, ancestor.DisplayName())
	}
	names = append(names, match.DisplayName())

	return domain.SearchResult{
		ID:             match.ID,
		Name:           match.DisplayName(),
		BreadcrumbPath: strings.Join(names, domain.BreadcrumbSeparator),
		ProductCount:   match.ProductCount,
		ChildrenCount:  match.ChildrenCount,
		AncestryIDs:    ids,
		Level:          match.Level,
		Locale:         match.Locale,
	}
}
