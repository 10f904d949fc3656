package pgdb

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	constraintSlugLocale      = "categories_slug_locale_key"
	constraintParent          = "categories_parent_id_fkey"
	constraintProductCategory = "products_category_id_fkey"
)

// constraintViolation возвращает имя нарушенного ограничения, если err — ошибка PostgreSQL с кодом code.
func constraintViolation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return "", false
	}
	return pgErr.ConstraintName, true
}

func postgresDuplicate(err error) bool {
	_, ok := constraintViolation(err, uniqueViolation)
	return ok
}

// escapeLike экранирует спецсимволы LIKE, чтобы запрос искал подстроку буквально.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\\', '%', '_':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
