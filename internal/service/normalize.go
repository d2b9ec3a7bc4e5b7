package service

import (
	"regexp"
	"strings"
)

// Removal order matters: URLs, tags and code fences go before the character
// filter, which would otherwise leave their fragments behind.
var (
	urlPattern       = regexp.MustCompile(`http\S+`)
	htmlTagPattern   = regexp.MustCompile(`<[^>]+>`)
	codeFencePattern = regexp.MustCompile("```[\\s\\S]*?```")
	disallowedChars  = regexp.MustCompile(`[^a-z0-9\s._/-]`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// Normalize produces the canonical text fed to the embedding model.
// It is pure and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := strings.ToLower(raw)
	text = urlPattern.ReplaceAllString(text, " ")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = codeFencePattern.ReplaceAllString(text, " ")
	text = disallowedChars.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// requestText joins summary and description the way the training data was built.
func requestText(summary, description string) string {
	return Normalize(summary + "\n" + description)
}
