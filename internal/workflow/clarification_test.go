package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/SoloForge/ServiceBuilder/internal/genai"
	"github.com/SoloForge/ServiceBuilder/internal/models"
)

func TestClarificationInterviewAsksOverviewFirst(t *testing.T) {
	engine, mock := newTestEngine(nil)
	state := &models.InterviewState{}

	result, err := engine.ExecuteNode(context.Background(), models.NodeClarificationInterview, state, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q, ok := result.Response.(models.QuestionMessage)
	if !ok {
		t.Fatalf("expected QuestionMessage, got %T", result.Response)
	}
	if q.Key != "service_overview" {
		t.Errorf("expected service_overview key, got %s", q.Key)
	}
	if q.CurrentQuestion != 0 || q.TotalQuestions != 4 {
		t.Errorf("expected progress 0/4, got %d/%d", q.CurrentQuestion, q.TotalQuestions)
	}
	if result.NextNode != "" {
		t.Error("waiting for input must not advance the node")
	}
	if mock.calls != 0 {
		t.Errorf("no completions expected, got %d", mock.calls)
	}
}

func TestClarificationInterviewReentryIsIdempotent(t *testing.T) {
	engine, mock := newTestEngine(nil)
	state := &models.InterviewState{
		ClarificationAnswers: map[string]string{"service_overview": "app"},
		CurrentQuestionIndex: 1,
	}

	first, err := engine.ExecuteNode(context.Background(), models.NodeClarificationInterview, state, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.ExecuteNode(context.Background(), models.NodeClarificationInterview, first.NextState, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q1 := first.Response.(models.QuestionMessage)
	q2 := second.Response.(models.QuestionMessage)
	if q1.Key != q2.Key || q1.Content != q2.Content {
		t.Errorf("re-entry changed the question: %q vs %q", q1.Key, q2.Key)
	}
	if second.NextState.CurrentQuestionIndex != 1 {
		t.Errorf("re-entry moved the cursor to %d", second.NextState.CurrentQuestionIndex)
	}
	if mock.calls != 0 {
		t.Errorf("no completions expected, got %d", mock.calls)
	}
}

func TestClarificationInterviewFullIntake(t *testing.T) {
	engine, _ := newTestEngine(nil)
	state := &models.InterviewState{}
	ctx := context.Background()

	answers := []string{"ハモリアプリ", "一人だと寂しい", "20代の社会人", "AIがハモるアプリ"}
	var result *ExecutionResult
	var err error
	for i, answer := range answers {
		result, err = engine.ExecuteNode(ctx, models.NodeClarificationInterview, state, answer)
		if err != nil {
			t.Fatalf("answer %d: unexpected error: %v", i, err)
		}
		if result.NextState.CurrentQuestionIndex < state.CurrentQuestionIndex {
			t.Errorf("answer %d: cursor moved backwards", i)
		}
		state = result.NextState
	}

	if result.NextNode != models.NodeDetailedQuestions {
		t.Fatalf("expected transition to detailed_questions, got %q", result.NextNode)
	}
	plan, ok := result.Response.(models.ModelPlan)
	if !ok {
		t.Fatalf("expected ModelPlan, got %T", result.Response)
	}
	if plan.NextNode != models.NodeDetailedQuestions {
		t.Errorf("plan points at %s", plan.NextNode)
	}

	if state.InitialProblem != "一人だと寂しい" || state.InitialPersona != "20代の社会人" || state.InitialSolution != "AIがハモるアプリ" {
		t.Errorf("initial fields not promoted from answers: %+v", state)
	}
	log := state.ClarificationInterviewLog
	for _, want := range []string{"## 収集した情報", "### サービス概要", "ハモリアプリ", "### 想定課題", "### ペルソナ", "### 想定解決策"} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %q", want)
		}
	}
	if state.CurrentQuestionIndex != 3 {
		t.Errorf("expected cursor at 3, got %d", state.CurrentQuestionIndex)
	}
}

func TestDetailedQuestionsGenerateAndWalk(t *testing.T) {
	questionLines := "質問1\n質問2\n質問3\n質問4\n質問5\n質問6\n質問7\n質問8\n質問9\n質問10"
	engine, mock := newTestEngine(func(req genai.CompletionRequest) (string, error) {
		return questionLines, nil
	})
	state := &models.InterviewState{
		ClarificationAnswers: map[string]string{
			"service_overview": "app", "problem": "p", "persona": "u", "solution": "s",
		},
		CurrentQuestionIndex:      3,
		ClarificationInterviewLog: "## 収集した情報",
	}
	ctx := context.Background()

	result, err := engine.ExecuteNode(ctx, models.NodeDetailedQuestions, state, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected one generation call, got %d", mock.calls)
	}
	q := result.Response.(models.QuestionMessage)
	if q.Key != "detailed_0" || q.TotalQuestions != 9 {
		t.Errorf("expected detailed_0 of 9, got %s of %d", q.Key, q.TotalQuestions)
	}
	if len(q.Choices) != 3 || q.Choices[0].Label != "はい" || q.Choices[2].Label != "わからない" {
		t.Errorf("unexpected choices: %+v", q.Choices)
	}

	state = result.NextState
	if len(state.DetailedQuestions) != 9 {
		t.Fatalf("expected 9 questions kept, got %d", len(state.DetailedQuestions))
	}

	// Answer all nine.
	for i := 0; i < 9; i++ {
		result, err = engine.ExecuteNode(ctx, models.NodeDetailedQuestions, state, "はい")
		if err != nil {
			t.Fatalf("answer %d: unexpected error: %v", i, err)
		}
		state = result.NextState
	}
	if mock.calls != 1 {
		t.Errorf("answers must not trigger completions, got %d calls", mock.calls)
	}
	if result.NextNode != models.NodeSummarizeRequest {
		t.Fatalf("expected transition to summarize_request, got %q", result.NextNode)
	}
	if !strings.Contains(state.ClarificationInterviewLog, "## 📋 詳細質問と回答") {
		t.Error("detailed answers log not appended")
	}
	if !strings.Contains(state.ClarificationInterviewLog, "### 質問 9") {
		t.Error("last question missing from log")
	}
	if state.CurrentDetailedQuestionIndex != 9 {
		t.Errorf("expected cursor 9, got %d", state.CurrentDetailedQuestionIndex)
	}
}

func TestDetailedQuestionsGenerationFailureSkipsAhead(t *testing.T) {
	engine, _ := newTestEngine(func(req genai.CompletionRequest) (string, error) {
		return "", nil
	})
	state := &models.InterviewState{
		ClarificationAnswers: map[string]string{"problem": "p", "persona": "u", "solution": "s"},
	}
	result, err := engine.ExecuteNode(context.Background(), models.NodeDetailedQuestions, state, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NextNode != models.NodeSummarizeRequest {
		t.Errorf("empty generation should skip to summarize_request, got %q", result.NextNode)
	}
}

func TestDetailedQuestionsUnansweredMarkedInLog(t *testing.T) {
	log := formatDetailedAnswersLog([]string{"q1", "q2"}, map[string]string{"detailed_0": "はい"})
	if !strings.Contains(log, "**回答**: はい") {
		t.Error("answered question missing")
	}
	if !strings.Contains(log, "**回答**: 未回答") {
		t.Error("unanswered question not marked 未回答")
	}
}
