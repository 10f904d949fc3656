package usecase

import (
	"time"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/google/uuid"
)

// CATEGORY USECASE

// CreateCategoryReq — запрос на создание категории.
// Пустой Slug выводится из названия.
type CreateCategoryReq struct {
	Name        *string
	Slug        string
	Description *string
	ParentID    *uuid.UUID
	Locale      domain.Locale
	ImageURL    *string
}

// UpdateCategoryReq — частичное обновление. nil-поля не меняются.
// ParentID и ImageURL допускают сброс в null, поэтому для них есть отдельные флаги.
type UpdateCategoryReq struct {
	ID          uuid.UUID
	Name        *string
	Slug        *string
	Description *string

	SetParent bool
	ParentID  *uuid.UUID

	SetImage bool
	ImageURL *string
}

// SearchReq — поиск по подстроке в рамках локали. Limit <= 0 означает лимит по умолчанию.
type SearchReq struct {
	Locale domain.Locale
	Query  string
	Limit  int
}

// MutationRes — результат мутации.
// Invalidate — ключи списков детей, которые вызывающий должен сбросить после коммита.
// StaleDescendants — число непосредственных детей перенесённого узла, чьи уровни не пересчитаны.
type MutationRes struct {
	Category         *domain.Category
	Invalidate       []domain.ChildrenKey
	StaleDescendants int
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	CategoryChanged OutboxEventType = "category_changed"
)

// OutboxEvent — запись outbox-таблицы. AggregateID используется как ключ сообщения Kafka,
// чтобы события одной категории попадали в одну партицию.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	AggregateID uuid.UUID
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// INFRASTUCTURE

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// MAPPERS

func NewMutationRes(category *domain.Category, invalidate []domain.ChildrenKey, staleDescendants int) *MutationRes {
	return &MutationRes{
		Category:         category,
		Invalidate:       invalidate,
		StaleDescendants: staleDescendants,
	}
}

func NewOutboxEvent(eventID string, aggregateID uuid.UUID, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:     eventID,
		EventType:   CategoryChanged,
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      Pending,
		CreatedAt:   time.Now().UTC(),
	}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
	}
}

func NewSearchReq(locale domain.Locale, query string, limit int) *SearchReq {
	return &SearchReq{
		Locale: locale,
		Query:  query,
		Limit:  limit,
	}
}
