package usecase

import (
	"context"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/google/uuid"
)

type CategoryUC interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	ListChildren(ctx context.Context, key domain.ChildrenKey) ([]domain.Category, error)
	Tree(ctx context.Context, locale domain.Locale) ([]*domain.TreeNode, error)
	Export(ctx context.Context, locale domain.Locale) ([]domain.Category, error)
	Search(ctx context.Context, req *SearchReq) ([]domain.SearchResult, error)
	Create(ctx context.Context, req *CreateCategoryReq) (*MutationRes, error)
	Update(ctx context.Context, req *UpdateCategoryReq) (*MutationRes, error)
	Delete(ctx context.Context, id uuid.UUID) (*MutationRes, error)
}
