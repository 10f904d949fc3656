package converter

import (
	"time"

	"github.com/google/uuid"
)

// CategoryModel представляет запись таблицы categories в PostgreSQL.
// ChildrenCount и ProductCount заполняются только запросами со счётчиками.
type CategoryModel struct {
	ID          uuid.UUID  `db:"id"`
	Name        *string    `db:"name"`
	Slug        string     `db:"slug"`
	Description *string    `db:"description"`
	ParentID    *uuid.UUID `db:"parent_id"`
	Level       int        `db:"level"`
	Locale      string     `db:"locale"`
	ImageURL    *string    `db:"image_url"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`

	ChildrenCount int `db:"children_count"`
	ProductCount  int `db:"product_count"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID uuid.UUID  `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
