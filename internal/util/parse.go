package util

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// Pagination reads limit/offset query parameters with sane bounds.
func Pagination(c *gin.Context) (limit, offset int) {
	limit = ParseInt(c.Query("limit"), DefaultPageSize)
	offset = ParseInt(c.Query("offset"), 0)
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ParseTags accepts either a JSON array or a comma-separated list and returns
// trimmed, lowercased, de-duplicated tags.
func ParseTags(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	var raw []string
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			raw = strings.Split(strings.Trim(s, "[]"), ",")
		}
	} else {
		raw = strings.Split(s, ",")
	}
	return NormalizeTags(raw)
}

// NormalizeTags trims, lowercases and drops empty or repeated tags.
func NormalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.Trim(strings.TrimSpace(t), `"'`))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}
