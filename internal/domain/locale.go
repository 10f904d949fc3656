package domain

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/category-tree/pkg/e"
	"golang.org/x/text/language"
)

// Locale — язык, к которому принадлежит категория. Допустимы только перечисленные значения,
// нулевое значение невалидно.
type Locale uint8

const (
	LocaleUnknown Locale = iota
	LocaleEN
	LocaleAR
)

// Locales возвращает все поддерживаемые локали.
func Locales() []Locale {
	return []Locale{LocaleEN, LocaleAR}
}

// ParseLocale разбирает код локали ("en", "ar").
func ParseLocale(s string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en":
		return LocaleEN, nil
	case "ar":
		return LocaleAR, nil
	default:
		return LocaleUnknown, e.Wrap(fmt.Sprintf("%q", s), e.ErrInvalidLocale)
	}
}

func (l Locale) String() string {
	switch l {
	case LocaleEN:
		return "en"
	case LocaleAR:
		return "ar"
	default:
		return "unknown"
	}
}

func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleAR
}

// Tag возвращает языковой тег для сравнения строк с учётом локали.
func (l Locale) Tag() language.Tag {
	switch l {
	case LocaleAR:
		return language.Arabic
	default:
		return language.English
	}
}

func (l Locale) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, e.Wrap(fmt.Sprintf("locale %d", l), e.ErrInvalidLocale)
	}
	return []byte(l.String()), nil
}

func (l *Locale) UnmarshalText(text []byte) error {
	parsed, err := ParseLocale(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
