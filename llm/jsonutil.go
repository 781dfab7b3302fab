package llm

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns for pulling JSON out of model responses.
var (
	// fencedObjectPattern matches a JSON object inside a markdown code block.
	fencedObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// bareObjectPattern matches any JSON object (greedy fallback).
	bareObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	// fencedArrayPattern matches a JSON array inside a markdown code block.
	fencedArrayPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*\\])\\s*```")
	// bareArrayPattern matches any JSON array (greedy fallback).
	bareArrayPattern = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON extracts a JSON object from a model response string.
// It handles markdown code fences, JavaScript-style comments, and
// trailing commas. Returns "" when no object is present.
func ExtractJSON(content string) string {
	var raw string
	if matches := fencedObjectPattern.FindStringSubmatch(content); len(matches) > 1 {
		raw = matches[1]
	} else {
		raw = bareObjectPattern.FindString(content)
	}
	if raw == "" {
		return ""
	}
	return cleanJSON(raw)
}

// ExtractJSONArray extracts a JSON array from a model response string.
func ExtractJSONArray(content string) string {
	if matches := fencedArrayPattern.FindStringSubmatch(content); len(matches) > 1 {
		return cleanJSON(matches[1])
	}
	if match := bareArrayPattern.FindString(content); match != "" {
		return cleanJSON(match)
	}
	return ""
}

// cleanJSON removes JavaScript-style comments and trailing commas, two
// invalid-JSON artifacts models commonly produce.
func cleanJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, stripLineComment(line))
	}
	result := strings.Join(cleaned, "\n")

	return trailingCommaPattern.ReplaceAllString(result, "$1")
}

// stripLineComment removes a // comment from a JSON line, respecting
// string values so URLs like "http://example.com" survive intact.
func stripLineComment(line string) string {
	// Fast path: no // at all
	if !strings.Contains(line, "//") {
		return line
	}

	// Walk the line, tracking whether we're inside a string.
	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
