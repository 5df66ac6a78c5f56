// Package moderation classifies comment text and suggests tags for writings
// through a generative-AI text endpoint.
package moderation

import (
	"context"
	"strings"
	"unicode"
)

// Verdict is a moderation label.
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictOffensive  Verdict = "OFFENSIVE"
	VerdictHate       Verdict = "HATE"
	VerdictSexual     Verdict = "SEXUAL"
	VerdictHarassment Verdict = "HARASSMENT"
)

var knownVerdicts = map[Verdict]bool{
	VerdictSafe:       true,
	VerdictOffensive:  true,
	VerdictHate:       true,
	VerdictSexual:     true,
	VerdictHarassment: true,
}

// Flagged reports whether a comment with this verdict is hidden pending review.
func (v Verdict) Flagged() bool { return v != VerdictSafe }

// Gateway never fails: Moderate falls back to SAFE and GenerateTags to an
// empty list when the upstream cannot answer.
type Gateway interface {
	Moderate(ctx context.Context, text string) Verdict
	GenerateTags(ctx context.Context, title, content string) []string
}

// ParseVerdict maps a model reply onto the closed label set.
func ParseVerdict(reply string) (Verdict, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, strings.TrimSpace(reply))
	v := Verdict(cleaned)
	return v, knownVerdicts[v]
}

const maxTags = 10

// ParseTags splits a comma separated reply into unique lowercase tags.
func ParseTags(reply string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, part := range strings.Split(reply, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		tag = strings.Trim(tag, "#\"'.*` ")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}
