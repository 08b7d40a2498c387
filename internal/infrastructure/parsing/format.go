package parsing

import (
	"encoding/json"
	"regexp"
	"strings"
)

type responseFormat string

const (
	formatPureJSON     responseFormat = "pure_json"
	formatJSONInText   responseFormat = "json_in_text"
	formatMarkdown     responseFormat = "markdown"
	formatStructured   responseFormat = "structured_text"
	formatUnstructured responseFormat = "unstructured"
)

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	dayLinePattern    = regexp.MustCompile(`(?m)^\s*(?:\*\*|#+\s*)?[Dd]ay\s+(\d+)`)
)

func detectFormat(content string) responseFormat {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return formatUnstructured
	}
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return formatPureJSON
	}
	if fencedJSONPattern.MatchString(content) || len(balancedObjects(content)) > 0 {
		return formatJSONInText
	}
	if strings.Contains(content, "```") || strings.Contains(content, "## ") || strings.Contains(content, "**") {
		return formatMarkdown
	}
	if dayLinePattern.MatchString(content) ||
		strings.Contains(content, "Itinerary:") ||
		strings.Contains(content, "Activities:") {
		return formatStructured
	}
	return formatUnstructured
}

// balancedObjects scans for top-level brace-balanced JSON object substrings,
// skipping over string literals so braces inside values don't break the
// count. Only substrings that parse as JSON are returned.
func balancedObjects(content string) []string {
	var out []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range content {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidate := content[start : i+1]
				if json.Valid([]byte(candidate)) {
					out = append(out, candidate)
				}
				start = -1
			}
		}
	}
	return out
}
