package http

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/presenter"
	"github.com/google/uuid"
)

// Nullable различает отсутствующее поле и явный null в PATCH-запросе.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// CreateCategoryRequest — тело POST /categories.
type CreateCategoryRequest struct {
	Name        *string    `json:"name" validate:"omitempty,max=255"`
	Slug        string     `json:"slug" validate:"omitempty,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=4000"`
	ParentID    *uuid.UUID `json:"parentId"`
	Locale      string     `json:"locale" validate:"required,oneof=en ar"`
	ImageURL    *string    `json:"imageUrl" validate:"omitempty,max=2048"`
}

// UpdateCategoryRequest — тело PATCH /categories/{id}. Отсутствующие поля не меняются.
type UpdateCategoryRequest struct {
	Name        *string             `json:"name" validate:"omitempty,max=255"`
	Slug        *string             `json:"slug" validate:"omitempty,max=255"`
	Description *string             `json:"description" validate:"omitempty,max=4000"`
	ParentID    Nullable[uuid.UUID] `json:"parentId" swaggertype:"string"`
	ImageURL    Nullable[string]    `json:"imageUrl" swaggertype:"string"`
}

type CategoryResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          *string    `json:"name"`
	DisplayName   string     `json:"displayName"`
	Slug          string     `json:"slug"`
	Description   *string    `json:"description"`
	ParentID      *uuid.UUID `json:"parentId"`
	Level         int        `json:"level"`
	Locale        string     `json:"locale"`
	ImageURL      *string    `json:"imageUrl"`
	ProductCount  int        `json:"productCount"`
	ChildrenCount int        `json:"childrenCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type TreeNodeResponse struct {
	CategoryResponse
	Breadcrumb string             `json:"breadcrumb"`
	Children   []TreeNodeResponse `json:"children"`
}

type SearchResultResponse struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	BreadcrumbPath string      `json:"breadcrumbPath"`
	ProductCount   int         `json:"productCount"`
	ChildrenCount  int         `json:"childrenCount"`
	AncestryIDs    []uuid.UUID `json:"ancestryIds"`
	Level          int         `json:"level"`
	Locale         string      `json:"locale"`
}

type LevelResponse struct {
	ParentID *uuid.UUID         `json:"parentId"`
	Children []CategoryResponse `json:"children"`
}

type RevealResponse struct {
	Target uuid.UUID       `json:"target"`
	Path   []uuid.UUID     `json:"path"`
	Levels []LevelResponse `json:"levels"`
}

type RevealAllResponse struct {
	Results      []SearchResultResponse `json:"results"`
	Reveals      []RevealResponse       `json:"reveals"`
	Expanded     []uuid.UUID            `json:"expanded"`
	ScrollTarget *uuid.UUID             `json:"scrollTarget"`
}

// MutationResponse — результат мутации. InvalidatedLevels — родители, чьи списки детей изменились
// (null — корневой уровень), клиент сбрасывает их в своём кэше.
type MutationResponse struct {
	Category          *CategoryResponse `json:"category,omitempty"`
	InvalidatedLevels []*uuid.UUID      `json:"invalidatedLevels"`
	StaleDescendants  int               `json:"staleDescendants"`
}

// MAPPERS

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:            c.ID,
		Name:          c.Name,
		DisplayName:   c.DisplayName(),
		Slug:          c.Slug,
		Description:   c.Description,
		ParentID:      c.ParentID,
		Level:         c.Level,
		Locale:        c.Locale.String(),
		ImageURL:      c.ImageURL,
		ProductCount:  c.ProductCount,
		ChildrenCount: c.ChildrenCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toCategoryResponses(categories []domain.Category) []CategoryResponse {
	result := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		result = append(result, toCategoryResponse(&categories[i]))
	}
	return result
}

func toTreeResponses(nodes []*domain.TreeNode) []TreeNodeResponse {
	result := make([]TreeNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		result = append(result, TreeNodeResponse{
			CategoryResponse: toCategoryResponse(&node.Category),
			Breadcrumb:       node.Breadcrumb(),
			Children:         toTreeResponses(node.Children),
		})
	}
	return result
}

func toSearchResponses(results []domain.SearchResult) []SearchResultResponse {
	out := make([]SearchResultResponse, 0, len(results))
	for _, r := range results {
		ancestry := r.AncestryIDs
		if ancestry == nil {
			ancestry = []uuid.UUID{}
		}
		out = append(out, SearchResultResponse{
			ID:             r.ID,
			Name:           r.Name,
			BreadcrumbPath: r.BreadcrumbPath,
			ProductCount:   r.ProductCount,
			ChildrenCount:  r.ChildrenCount,
			AncestryIDs:    ancestry,
			Level:          r.Level,
			Locale:         r.Locale.String(),
		})
	}
	return out
}

func toRevealResponses(reveals []presenter.Reveal) []RevealResponse {
	out := make([]RevealResponse, 0, len(reveals))
	for _, r := range reveals {
		levels := make([]LevelResponse, 0, len(r.Levels))
		for _, level := range r.Levels {
			levels = append(levels, LevelResponse{
				ParentID: level.ParentID,
				Children: toCategoryResponses(level.Children),
			})
		}
		out = append(out, RevealResponse{Target: r.Target, Path: r.Path, Levels: levels})
	}
	return out
}

func toInvalidatedLevels(keys []domain.ChildrenKey) []*uuid.UUID {
	out := make([]*uuid.UUID, 0, len(keys))
	for _, key := range keys {
		out = append(out, key.Parent())
	}
	return out
}
