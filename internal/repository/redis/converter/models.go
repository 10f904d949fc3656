package converter

import (
	"time"

	"github.com/google/uuid"
)

// CategoryRedisModel — категория в JSON-списке детей.
type CategoryRedisModel struct {
	ID            uuid.UUID  `json:"id"`
	Name          *string    `json:"name,omitempty"`
	Slug          string     `json:"slug"`
	Description   *string    `json:"description,omitempty"`
	ParentID      *uuid.UUID `json:"parent_id,omitempty"`
	Level         int        `json:"level"`
	Locale        string     `json:"locale"`
	ImageURL      *string    `json:"image_url,omitempty"`
	ProductCount  int        `json:"product_count"`
	ChildrenCount int        `json:"children_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ChildrenRedisModel — значение ключа списка детей. Key дублирует ключ Redis для проверки целостности.
type ChildrenRedisModel struct {
	Key      string               `json:"key"`
	Children []CategoryRedisModel `json:"children"`
}
