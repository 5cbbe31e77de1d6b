package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestQuestionMessageOmitsProgressWhenAbsent(t *testing.T) {
	q := QuestionMessage{
		Type:    ResponseTypeQuestion,
		Content: "以下の点について追加でお聞かせください",
		Node:    NodeAskFollowups,
		Key:     "followup_response",
	}
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "currentQuestion") || strings.Contains(string(data), "totalQuestions") {
		t.Errorf("progress counters must be omitted without progress: %s", data)
	}
	if strings.Contains(string(data), "choices") || strings.Contains(string(data), "placeholder") {
		t.Errorf("empty optional fields must be omitted: %s", data)
	}
}

func TestQuestionMessageIncludesProgressWhenSet(t *testing.T) {
	q := QuestionMessage{
		Type:            ResponseTypeQuestion,
		Content:         "解決したい課題は何ですか？",
		Node:            NodeClarificationInterview,
		Key:             "problem",
		CurrentQuestion: 1,
		TotalQuestions:  3,
	}
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"currentQuestion":1`) || !strings.Contains(string(data), `"totalQuestions":3`) {
		t.Errorf("progress counters missing: %s", data)
	}
}
