package converter

import (
	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/internal/usecase"
)

// CategoryConverter преобразует Category между domain и моделью PostgreSQL.
type CategoryConverter struct{}

func (CategoryConverter) ToModel(entity *domain.Category) *CategoryModel {
	return &CategoryModel{
		ID:            entity.ID,
		Name:          entity.Name,
		Slug:          entity.Slug,
		Description:   entity.Description,
		ParentID:      entity.ParentID,
		Level:         entity.Level,
		Locale:        entity.Locale.String(),
		ImageURL:      entity.ImageURL,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
		ChildrenCount: entity.ChildrenCount,
		ProductCount:  entity.ProductCount,
	}
}

// ToEntity возвращает ошибку, если в базе оказалась неизвестная локаль.
func (CategoryConverter) ToEntity(model *CategoryModel) (*domain.Category, error) {
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

func (c CategoryConverter) ToArrEntity(models []CategoryModel) ([]domain.Category, error) {
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

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}
	return result
}
