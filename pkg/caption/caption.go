// Package caption parses the free-text captions attached to channel posts.
//
// A caption is read line by line. Lines of the form "name: <value>" and
// "tags: <a>, <b>" (case-insensitive, leading Unicode whitespace allowed) set the
// entry name and tag list. Later lines override earlier ones and anything
// else is ignored.
package caption

import (
	"regexp"
	"strings"
)

var (
	namePattern = regexp.MustCompile(`(?i)^[\s\p{Z}\x{FEFF}]*name:[\s\p{Z}\x{FEFF}]*(.+)$`)
	tagsPattern = regexp.MustCompile(`(?i)^[\s\p{Z}\x{FEFF}]*tags:[\s\p{Z}\x{FEFF}]*(.+)$`)
	lineSplit   = regexp.MustCompile(`\r?\n`)
)

// Parsed is the structured content of a caption.
type Parsed struct {
	Name string
	Tags []string

	// HasName is set when a name: line supplied a non-empty value.
	HasName bool
	// HasTags is set when a tags: line supplied at least one tag.
	HasTags bool
}

// Parse extracts name and tags from text. When no name: line is present
// the name falls back to fallback. Parse never fails.
func Parse(text, fallback string) Parsed {
	p := Parsed{Tags: []string{}}

	for _, line := range lineSplit.Split(text, -1) {
		if m := namePattern.FindStringSubmatch(line); m != nil {
			p.Name = strings.TrimSpace(m[1])
			continue
		}
		if m := tagsPattern.FindStringSubmatch(line); m != nil {
			p.Tags = SplitTags(m[1])
		}
	}

	p.HasName = p.Name != ""
	p.HasTags = len(p.Tags) > 0
	if !p.HasName {
		p.Name = strings.TrimSpace(fallback)
	}
	return p
}

// SplitTags splits s on ASCII or full-width commas, trimming each tag and
// discarding empty ones. The result is never nil.
func SplitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' }) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
