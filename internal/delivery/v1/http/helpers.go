package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/category-tree/internal/domain"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// ToHTTPResponse сопоставляет ошибку со статусом. Для доменных ошибок сообщение берётся
// из типа с подробностями (id, количество, slug), если он есть в цепочке.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, detail(err, e.ErrNotFound)
	case errors.Is(err, e.ErrHasChildren):
		return http.StatusConflict, detail(err, e.ErrHasChildren)
	case errors.Is(err, e.ErrHasProducts):
		return http.StatusConflict, detail(err, e.ErrHasProducts)
	case errors.Is(err, e.ErrSlugTaken):
		return http.StatusConflict, detail(err, e.ErrSlugTaken)
	case errors.Is(err, e.ErrInvalidParent):
		return http.StatusUnprocessableEntity, detail(err, e.ErrInvalidParent)
	case errors.Is(err, e.ErrInvalidLocale):
		return http.StatusBadRequest, e.ErrInvalidLocale.Error()
	case errors.Is(err, e.ErrSlugRequired):
		return http.StatusBadRequest, e.ErrSlugRequired.Error()
	case errors.Is(err, e.ErrImageNotFound):
		return http.StatusBadRequest, e.ErrImageNotFound.Error()
	case errors.Is(err, e.ErrInvalidID):
		return http.StatusBadRequest, e.ErrInvalidID.Error()
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrTransientFetch):
		return http.StatusServiceUnavailable, e.ErrTransientFetch.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func detail(err error, fallback error) string {
	var (
		notFound  *e.NotFoundError
		count     *e.CountError
		slugErr   *e.SlugError
		parentErr *e.ParentError
	)

	switch {
	case errors.As(err, &count):
		return count.Error()
	case errors.As(err, &slugErr):
		return slugErr.Error()
	case errors.As(err, &parentErr):
		return parentErr.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	default:
		return fallback.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса и проверяет теги validate.
func decodeJSON(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) error {
	const maxBodySize = 1 << 20

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	if err := validate.Struct(dst); err != nil {
		return e.Wrap(err.Error(), e.ErrMissingFields)
	}

	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, e.Wrap(raw, e.ErrInvalidID)
	}
	return id, nil
}

// queryLocale разбирает ?locale=, пустое значение заменяется локалью по умолчанию.
func queryLocale(r *http.Request, fallback domain.Locale) (domain.Locale, error) {
	raw := r.URL.Query().Get("locale")
	if raw == "" {
		return fallback, nil
	}
	return domain.ParseLocale(raw)
}

func queryParentID(r *http.Request) (*uuid.UUID, error) {
	raw := r.URL.Query().Get("parent_id")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, e.Wrap(raw, e.ErrInvalidID)
	}
	return &id, nil
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, e.Wrap("limit "+raw, e.ErrStatusBadRequest)
	}
	return limit, nil
}
