package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripJSONFences removes a leading ```json or ``` fence and a trailing ```
// fence from a model response.
func stripJSONFences(content string) string {
	s := strings.TrimSpace(content)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the substring from the first '{' to the last '}'
// when both are present, otherwise the input unchanged. Models sometimes wrap
// the object in prose.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}

// coerceString flattens a decoded JSON value into a string: strings pass
// through, nil becomes empty, objects and arrays become indented JSON, and
// scalars are stringified.
func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case map[string]any, []any:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// nonEmptyLines splits a model response into trimmed lines, dropping leading
// list bullets and blank lines.
func nonEmptyLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "• ")
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "-"), "•"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
