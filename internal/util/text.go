package util

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML turns rich-text writing content into plain text.
func StripHTML(content string) string {
	text := htmlTagPattern.ReplaceAllString(content, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// EscapeLike escapes the LIKE wildcards in a user supplied search term.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
