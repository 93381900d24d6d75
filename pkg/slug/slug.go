// Package slug derives filesystem- and URL-safe identifiers from display names.
package slug

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	extPattern     = regexp.MustCompile(`(?i)\.[a-z0-9]+$`)
	spacePattern   = regexp.MustCompile(`[\s\p{Z}\x{FEFF}_]+`)
	invalidPattern = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenPattern  = regexp.MustCompile(`-+`)
)

// Make converts name into a slug. Runs of Unicode whitespace and underscores
// become one hyphen. The result only contains [a-z0-9-], never starts or ends
// with a hyphen and may be empty.
//
//	Make("Red Fox_v2.safetensors") == "red-fox-v2"
func Make(name string) string {
	s := cases.Lower(language.Und).String(name)
	s = extPattern.ReplaceAllString(s, "")
	s = spacePattern.ReplaceAllString(s, "-")
	s = invalidPattern.ReplaceAllString(s, "")
	s = hyphenPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// OrFallback returns Make(name), or fallback when the slug is empty.
func OrFallback(name, fallback string) string {
	if s := Make(name); s != "" {
		return s
	}
	return fallback
}
