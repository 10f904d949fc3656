package usecase

import (
	"context"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/google/uuid"
)

// CategoryRepository — хранилище категорий. Методы чтения, кроме GetByIDs,
// заполняют ChildrenCount и ProductCount (только активные продукты).
type CategoryRepository interface {
	// GetByID возвращает e.NotFoundError, если категории нет.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	// GetByIDs возвращает найденные категории без счётчиков, отсутствующие id пропускаются.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Category, error)
	ListChildren(ctx context.Context, key domain.ChildrenKey) ([]domain.Category, error)
	ListByLocale(ctx context.Context, locale domain.Locale) ([]domain.Category, error)
	// Search ищет подстроку без учёта регистра в name, slug и description, порядок created_at, id.
	Search(ctx context.Context, locale domain.Locale, query string, limit int) ([]domain.Category, error)
	SlugExists(ctx context.Context, slug string, locale domain.Locale, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) (*domain.Category, error)
	// Delete вызывается внутри транзакции. Архивные продукты отвязываются, ребёнок или активный
	// продукт, появившийся после проверки счётчиков, даёт e.CountError.
	Delete(ctx context.Context, id uuid.UUID) error
	// LockTree сериализует переносы узлов внутри локали до конца транзакции.
	LockTree(ctx context.Context, locale domain.Locale) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
}

// ChildrenCacheRepository — общий для инстансов сервиса слой кэша списков детей.
// Каждое удаление ключа увеличивает его версию. Список, прочитанный из базы после
// GetChildren, записывается только если версия с тех пор не изменилась.
type ChildrenCacheRepository interface {
	// GetChildren возвращает список, текущую версию ключа и признак попадания.
	GetChildren(ctx context.Context, key domain.ChildrenKey) (children []domain.Category, version int64, ok bool, err error)
	// SetChildren ничего не пишет, если ключ инвалидирован после чтения version.
	SetChildren(ctx context.Context, key domain.ChildrenKey, version int64, children []domain.Category) error
	DeleteChildren(ctx context.Context, keys ...domain.ChildrenKey) error
}

type ImageRepository interface {
	Exists(ctx context.Context, key string) (bool, error)
}
