package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple two words", input: "Men Shoes", want: "men-shoes"},
		{name: "punctuation", input: "Hello, World! 2026", want: "hello-world-2026"},
		{name: "apostrophe and hyphens", input: "  --Men's   Shoes--  ", want: "mens-shoes"},
		{name: "accents folded", input: "Café Résumé", want: "cafe-resume"},
		{name: "umlauts folded", input: "Über die Brücke", want: "uber-die-brucke"},
		{name: "arabic letters kept", input: "أحذية رجالية", want: "احذية-رجالية"},
		{name: "tabs and newlines", input: "home\tand\ngarden", want: "home-and-garden"},
		{name: "emoji stripped", input: "Shoes 👟", want: "shoes"},
		{name: "only symbols", input: "!@#$%", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "digits", input: "4K TVs", want: "4k-tvs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.input))
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	for _, s := range []string{"shoes", "men-shoes-2026", "احذية-رجالية"} {
		assert.Equal(t, s, Generate(s))
	}
}
