// Package tree строит дерево категорий из плоского списка и разворачивает его обратно.
// Функции пакета чистые: ничего не загружают и не хранят состояния между вызовами.
package tree

import (
	"bytes"
	"slices"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/text/collate"
)

// Build собирает лес из плоского списка.
// Узел, чей родитель отсутствует во входном списке, становится корнем (частичные выборки).
// Узел, присоединение которого замкнуло бы цикл, тоже становится корнем, поэтому узлы не теряются.
// При повторе ID дети присоединяются к первому вхождению, остальные вхождения становятся
// отдельными корнями без детей: Flatten(Build(flat)) содержит каждую запись ровно один раз.
// Уровни пересчитываются по положению в дереве, братья сортируются по названию с учётом локали.
func Build(flat []domain.Category) []*domain.TreeNode {
	nodes := make(map[uuid.UUID]*domain.TreeNode, len(flat))
	ordered := make([]*domain.TreeNode, 0, len(flat))
	var duplicates []*domain.TreeNode
	for _, c := range flat {
		n := &domain.TreeNode{Category: c}
		if _, dup := nodes[c.ID]; dup {
			duplicates = append(duplicates, n)
			continue
		}
		nodes[c.ID] = n
		ordered = append(ordered, n)
	}

	roots := append(make([]*domain.TreeNode, 0, len(duplicates)), duplicates...)
	for _, n := range ordered {
		parent := attachableParent(nodes, n)
		if parent == nil {
			roots = append(roots, n)
			continue
		}
		n.Parent = parent
		parent.Children = append(parent.Children, n)
	}

	s := &sorter{collators: make(map[domain.Locale]*collate.Collator)}
	s.sortLevel(roots, 1)
	return roots
}

// attachableParent возвращает родителя из входного списка, если присоединение к нему не создаёт цикл.
func attachableParent(nodes map[uuid.UUID]*domain.TreeNode, n *domain.TreeNode) *domain.TreeNode {
	if n.ParentID == nil {
		return nil
	}

	parent, ok := nodes[*n.ParentID]
	if !ok {
		return nil
	}

	// Присоединённые рёбра всегда образуют лес, поэтому обход вверх конечен.
	for cur := parent; cur != nil; cur = cur.Parent {
		if cur == n {
			return nil
		}
	}

	return parent
}

type sorter struct {
	collators map[domain.Locale]*collate.Collator
}

func (s *sorter) collator(locale domain.Locale) *collate.Collator {
	c, ok := s.collators[locale]
	if !ok {
		c = collate.New(locale.Tag())
		s.collators[locale] = c
	}
	return c
}

// sortLevel сортирует братьев и проставляет уровни, рекурсивно для всех потомков.
func (s *sorter) sortLevel(siblings []*domain.TreeNode, level int) {
	if len(siblings) > 1 {
		coll := s.collator(siblings[0].Locale)
		slices.SortStableFunc(siblings, func(a, b *domain.TreeNode) int {
			if c := coll.CompareString(a.DisplayName(), b.DisplayName()); c != 0 {
				return c
			}
			return bytes.Compare(a.ID[:], b.ID[:])
		})
	}

	for _, n := range siblings {
		n.Level = level
		s.sortLevel(n.Children, level+1)
	}
}

// Walk обходит лес в прямом порядке (родитель раньше детей). Обход прекращается, если fn вернула false.
func Walk(roots []*domain.TreeNode, fn func(*domain.TreeNode) bool) {
	stack := make([]*domain.TreeNode, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Flatten разворачивает лес в плоский список в прямом порядке.
func Flatten(roots []*domain.TreeNode) []domain.Category {
	flat := make([]domain.Category, 0)
	Walk(roots, func(n *domain.TreeNode) bool {
		flat = append(flat, n.Category)
		return true
	})
	return flat
}

// Find ищет узел по ID.
func Find(roots []*domain.TreeNode, id uuid.UUID) *domain.TreeNode {
	var found *domain.TreeNode
	Walk(roots, func(n *domain.TreeNode) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}
