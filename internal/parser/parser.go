// Package parser splits a daily note into heading-delimited sections and
// extracts embedded image references from Markdown content.
package parser

import (
	"regexp"
	"strings"
)

// DefaultHeading collects body text that appears before the first heading.
const DefaultHeading = "# はじめに"

var (
	headingRe     = regexp.MustCompile(`^#{1,6}\s+.+$`)
	inlineImageRe = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)
	wikiImageRe   = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
)

// Result holds the output of splitting one daily note.
type Result struct {
	// Sections maps the literal heading line to its body lines. Sections
	// with at least one non-blank line carry a two-line date marker at the
	// front and a trailing blank line; entirely blank sections are left as
	// scanned and are filtered out before merging.
	Sections map[string][]string
	// ImageRefs is the set of locally resolvable image references found
	// anywhere in the note.
	ImageRefs map[string]struct{}
}

// Split parses raw note content for the given date (YYYY-MM-DD).
//
// A line is a heading when it starts with one to six '#' characters followed
// by whitespace and further text; the heading line itself becomes the section
// key, kept literal. Text before the first heading belongs to DefaultHeading,
// so a note without any heading produces exactly one section.
func Split(content, date string) *Result {
	sections := make(map[string][]string)
	current := DefaultHeading
	sections[current] = []string{}

	for _, line := range strings.Split(content, "\n") {
		if headingRe.MatchString(line) {
			current = line
			if _, ok := sections[current]; !ok {
				sections[current] = []string{}
			}
			continue
		}
		sections[current] = append(sections[current], line)
	}

	dateHeader := "## " + date
	for heading, lines := range sections {
		if IsBlank(lines) {
			continue
		}
		tagged := make([]string, 0, len(lines)+3)
		tagged = append(tagged, dateHeader, "")
		tagged = append(tagged, lines...)
		tagged = append(tagged, "")
		sections[heading] = tagged
	}

	return &Result{
		Sections:  sections,
		ImageRefs: ImageRefs(content),
	}
}

// ImageRefs extracts image references from both Markdown inline syntax
// ![alt](target) and Obsidian wiki syntax ![[target]].
//
// Inline targets are stripped of URL fragments and query strings; targets
// with a scheme separator are external and skipped. Wiki targets are kept
// verbatim since Obsidian often omits the file extension.
func ImageRefs(content string) map[string]struct{} {
	refs := make(map[string]struct{})

	for _, m := range inlineImageRe.FindAllStringSubmatch(content, -1) {
		target := m[1]
		target = strings.SplitN(target, "#", 2)[0]
		target = strings.SplitN(target, "?", 2)[0]
		if strings.Contains(target, "://") {
			continue
		}
		refs[target] = struct{}{}
	}

	for _, m := range wikiImageRe.FindAllStringSubmatch(content, -1) {
		refs[m[1]] = struct{}{}
	}

	return refs
}

// IsBlank reports whether every line is empty or whitespace-only.
func IsBlank(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}
