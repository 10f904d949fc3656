package domain

import (
	"time"

	"github.com/google/uuid"
)

// CategoryEventType — тип изменения категории.
type CategoryEventType string

const (
	CategoryCreated CategoryEventType = "category.created"
	CategoryUpdated CategoryEventType = "category.updated"
	CategoryDeleted CategoryEventType = "category.deleted"
)

// CategoryEvent публикуется в Kafka через outbox после каждой мутации.
type CategoryEvent struct {
	EventID     string            `json:"event_id"`
	Type        CategoryEventType `json:"type"`
	CategoryID  uuid.UUID         `json:"category_id"`
	Locale      Locale            `json:"locale"`
	Slug        string            `json:"slug"`
	Level       int               `json:"level"`
	OldParentID *uuid.UUID        `json:"old_parent_id,omitempty"`
	NewParentID *uuid.UUID        `json:"new_parent_id,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

func NewCategoryEvent(eventType CategoryEventType, category *Category, oldParentID *uuid.UUID) *CategoryEvent {
	event := &CategoryEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		CategoryID:  category.ID,
		Locale:      category.Locale,
		Slug:        category.Slug,
		Level:       category.Level,
		OldParentID: oldParentID,
		NewParentID: category.ParentID,
		OccurredAt:  time.Now().UTC(),
	}
	if eventType == CategoryDeleted {
		event.OldParentID = category.ParentID
		event.NewParentID = nil
	}
	return event
}
