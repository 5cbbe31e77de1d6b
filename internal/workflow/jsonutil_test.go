package workflow

import (
	"reflect"
	"testing"
)

func TestStripJSONFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fences", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"uppercase fence", "```JSON\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripJSONFences(tt.input); got != tt.want {
				t.Errorf("stripJSONFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"prose around object", `Here you go: {"a": 1} hope it helps`, `{"a": 1}`},
		{"nested braces", `note {"a": {"b": 2}} end`, `{"a": {"b": 2}}`},
		{"no object", "no json here", "no json here"},
		{"closing before opening", "} oops {", "} oops {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONObject(tt.input); got != tt.want {
				t.Errorf("extractJSONObject(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceString(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"string", "text", "text"},
		{"nil", nil, ""},
		{"number", 3.5, "3.5"},
		{"bool", true, "true"},
		{"object", map[string]any{"a": "b"}, "{\n  \"a\": \"b\"\n}"},
		{"array", []any{"a", "b"}, "[\n  \"a\",\n  \"b\"\n]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coerceString(tt.input); got != tt.want {
				t.Errorf("coerceString(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNonEmptyLines(t *testing.T) {
	input := "- 質問A\n\n• 質問B\n  質問C  \n-質問D\n\n"
	want := []string{"質問A", "質問B", "質問C", "質問D"}
	if got := nonEmptyLines(input); !reflect.DeepEqual(got, want) {
		t.Errorf("nonEmptyLines = %v, want %v", got, want)
	}
}

func TestNonEmptyLinesEmptyInput(t *testing.T) {
	if got := nonEmptyLines(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
