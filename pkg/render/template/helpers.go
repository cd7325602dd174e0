package template

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StringHelpers returns the string helpers every engine exposes: pongo2 as
// filters ({{ name|trim }}), text/template as functions ({{ trim .name }}).
func StringHelpers() map[string]func(string) string {
	return map[string]func(string) string{
		"trim":       strings.TrimSpace,
		"lowerfirst": LowerFirst,
	}
}

// LowerFirst lower-cases the first non-space rune of s, keeping any leading
// whitespace.
func LowerFirst(s string) string {
	for i, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		return s[:i] + string(unicode.ToLower(r)) + s[i+utf8.RuneLen(r):]
	}
	return s
}
