package domain

import "github.com/google/uuid"

// SearchResult — найденная категория с цепочкой предков.
// AncestryIDs упорядочены от корня до непосредственного родителя, пусты для корня.
type SearchResult struct {
	ID             uuid.UUID
	Name           string
	BreadcrumbPath string
	ProductCount   int
	ChildrenCount  int
	AncestryIDs    []uuid.UUID
	Level          int
	Locale         Locale
}
