package parsing

import (
	"encoding/json"
	"strings"
)

// extractJSONCandidates returns raw JSON object substrings in trust order:
// the whole trimmed content first, then fenced code blocks, then any
// brace-balanced object found in surrounding prose.
func extractJSONCandidates(content string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || !json.Valid([]byte(raw)) {
			return
		}
		if _, dup := seen[raw]; dup {
			return
		}
		seen[raw] = struct{}{}
		out = append(out, raw)
	}

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") {
		add(trimmed)
	}
	for _, match := range fencedJSONPattern.FindAllStringSubmatch(content, -1) {
		add(match[1])
	}
	for _, candidate := range balancedObjects(content) {
		add(candidate)
	}
	return out
}
