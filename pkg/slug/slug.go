// Package slug генерирует URL-безопасные slug-и из названий категорий.
// Буквы любых алфавитов сохраняются (арабские названия дают арабский slug),
// диакритика снимается.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// disallowed — всё, кроме букв, цифр, пробельных символов и дефиса.
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)
	// whitespace — последовательности пробельных символов.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens схлопывает подряд идущие дефисы.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate создаёт slug: "Café & Bar 2026" → "cafe-bar-2026".
func Generate(s string) string {
	// transform.Chain хранит состояние, поэтому создаётся на каждый вызов.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(fold, s)
	if err != nil {
		result = s
	}

	result = strings.ToLower(strings.TrimSpace(result))
	result = disallowed.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
