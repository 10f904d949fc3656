package converter

import (
	"github.com/DRSN-tech/category-tree/internal/domain"
)

type CategoryConverter struct{}

func (CategoryConverter) ToRedisModel(entity *domain.Category) CategoryRedisModel {
	return CategoryRedisModel{
		ID:            entity.ID,
		Name:          entity.Name,
		Slug:          entity.Slug,
		Description:   entity.Description,
		ParentID:      entity.ParentID,
		Level:         entity.Level,
		Locale:        entity.Locale.String(),
		ImageURL:      entity.ImageURL,
		ProductCount:  entity.ProductCount,
		ChildrenCount: entity.ChildrenCount,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}
}

func (CategoryConverter) ToEntity(model *CategoryRedisModel) (*domain.Category, error) {
	locale, err := domain.ParseLocale(model.Locale)
	if err != nil {
		return nil, err
	}

	return &domain.Category{
		ID:            model.ID,
		Name:          model.Name,
		Slug:          model.Slug,
		Description:   model.Description,
		ParentID:      model.ParentID,
		Level:         model.Level,
		Locale:        locale,
		ImageURL:      model.ImageURL,
		ProductCount:  model.ProductCount,
		ChildrenCount: model.ChildrenCount,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}, nil
}

func (c CategoryConverter) ToChildrenModel(key domain.ChildrenKey, children []domain.Category) ChildrenRedisModel {
	models := make([]CategoryRedisModel, 0, len(children))
	for i := range children {
		models = append(models, c.ToRedisModel(&children[i]))
	}
	return ChildrenRedisModel{Key: key.String(), Children: models}
}

func (c CategoryConverter) ToArrEntity(models []CategoryRedisModel) ([]domain.Category, error) {
	result := make([]domain.Category, 0, len(models))
	for i := range models {
		entity, err := c.ToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *entity)
	}
	return result, nil
}
