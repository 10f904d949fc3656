package e

import (
	"errors"
	"fmt"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки дерева категорий (доменные, не повторяются автоматически)
	ErrNotFound         = fmt.Errorf("category not found")
	ErrHasChildren      = fmt.Errorf("category has child categories")
	ErrHasProducts      = fmt.Errorf("category has active products")
	ErrSlugTaken        = fmt.Errorf("slug is already taken")
	ErrInvalidParent    = fmt.Errorf("invalid parent category")
	ErrCorruptHierarchy = fmt.Errorf("corrupt category hierarchy")

	// Временные ошибки получения данных, допускают повтор со стороны вызывающего
	ErrTransientFetch = fmt.Errorf("transient fetch failure")

	// 400 Bad Request
	ErrInvalidLocale    = fmt.Errorf("invalid locale")
	ErrSlugRequired     = fmt.Errorf("slug is required")
	ErrImageNotFound    = fmt.Errorf("image not found")
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrMissingFields    = fmt.Errorf("missing required fields")
	ErrInvalidID        = fmt.Errorf("invalid category id")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// NotFoundError сообщает, какой именно идентификатор не найден.
type NotFoundError struct {
	ID string
}

func (n *NotFoundError) Error() string {
	return fmt.Sprintf("category %s not found", n.ID)
}

func (n *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// CountError блокирует удаление и несёт количество зависимых записей.
// Kind — ErrHasChildren или ErrHasProducts.
type CountError struct {
	Kind  error
	ID    string
	Count int
}

func (c *CountError) Error() string {
	switch c.Kind {
	case ErrHasChildren:
		return fmt.Sprintf("category %s has %d child categories", c.ID, c.Count)
	case ErrHasProducts:
		return fmt.Sprintf("category %s has %d active products", c.ID, c.Count)
	default:
		return fmt.Sprintf("category %s: %v (%d)", c.ID, c.Kind, c.Count)
	}
}

func (c *CountError) Unwrap() error {
	return c.Kind
}

// SlugError — нарушение уникальности slug в рамках локали.
type SlugError struct {
	Slug   string
	Locale string
}

func (s *SlugError) Error() string {
	return fmt.Sprintf("slug %q is already taken in locale %s", s.Slug, s.Locale)
}

func (s *SlugError) Unwrap() error {
	return ErrSlugTaken
}

// ParentError — родитель не может быть назначен узлу.
type ParentError struct {
	ID       string
	ParentID string
	Reason   string
}

func (p *ParentError) Error() string {
	if p.ID == "" {
		return fmt.Sprintf("invalid parent %s: %s", p.ParentID, p.Reason)
	}

	return fmt.Sprintf("invalid parent %s for category %s: %s", p.ParentID, p.ID, p.Reason)
}

func (p *ParentError) Unwrap() error {
	return ErrInvalidParent
}

// HierarchyError — цепочка parent_id повреждена (цикл, висячая ссылка, превышена глубина).
type HierarchyError struct {
	ID     string
	Reason string
}

func (h *HierarchyError) Error() string {
	return fmt.Sprintf("corrupt hierarchy at category %s: %s", h.ID, h.Reason)
}

func (h *HierarchyError) Unwrap() error {
	return ErrCorruptHierarchy
}

// FetchError — неудачная загрузка дочерних узлов. Совпадает и с ErrTransientFetch, и с исходной ошибкой.
type FetchError struct {
	Key string
	Err error
}

func (f *FetchError) Error() string {
	return fmt.Sprintf("fetch children %s: %v", f.Key, f.Err)
}

func (f *FetchError) Unwrap() []error {
	return []error{ErrTransientFetch, f.Err}
}

// IsRetryable сообщает, имеет ли смысл повторить операцию.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientFetch)
}

// Kind возвращает короткое имя вида ошибки для логов и метрик.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrHasChildren):
		return "has_children"
	case errors.Is(err, ErrHasProducts):
		return "has_products"
	case errors.Is(err, ErrSlugTaken):
		return "slug_taken"
	case errors.Is(err, ErrInvalidParent):
		return "invalid_parent"
	case errors.Is(err, ErrCorruptHierarchy):
		return "corrupt_hierarchy"
	case errors.Is(err, ErrTransientFetch):
		return "transient_fetch"
	case errors.Is(err, ErrInvalidLocale), errors.Is(err, ErrSlugRequired),
		errors.Is(err, ErrImageNotFound), errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidID):
		return "invalid_input"
	default:
		return "internal"
	}
}
