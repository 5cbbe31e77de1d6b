package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// intakeQuestion is one of the fixed clarification questions asked after the
// service overview has been collected.
type intakeQuestion struct {
	Key         string
	Prompt      string
	Placeholder string
}

var intakeQuestions = []intakeQuestion{
	{
		Key:         "problem",
		Prompt:      "解決したい課題は何ですか？",
		Placeholder: "例: 歌を歌っているとき、一人だと寂しい",
	},
	{
		Key:         "persona",
		Prompt:      "この課題を持つターゲットユーザー（ペルソナ）は誰ですか？",
		Placeholder: "例: カラオケが好きな20代の社会人",
	},
	{
		Key:         "solution",
		Prompt:      "どのような解決策を想定していますか？",
		Placeholder: "例: AIが自動でハモってくれるアプリ",
	},
}

var yesNoChoices = []models.Choice{
	{Label: "はい", Value: "はい"},
	{Label: "いいえ", Value: "いいえ"},
	{Label: "わからない", Value: "わからない"},
}

// handleClarificationInterview collects the service overview and then the
// three fixed intake questions, one answer per invocation.
func (e *Engine) handleClarificationInterview(state *models.InterviewState, userResponse string) (*ExecutionResult, error) {
	slog.Debug("Engine.handleClarificationInterview: entered",
		"has_user_response", userResponse != "",
		"question_index", state.CurrentQuestionIndex,
		"has_overview", state.ClarificationAnswers["service_overview"] != "")

	if userResponse != "" {
		// First answer is the service overview.
		if state.ClarificationAnswers["service_overview"] == "" {
			newState := state.Clone()
			if newState.ClarificationAnswers == nil {
				newState.ClarificationAnswers = make(map[string]string)
			}
			newState.ClarificationAnswers["service_overview"] = userResponse
			newState.CurrentQuestionIndex = 0

			q := intakeQuestions[0]
			return &ExecutionResult{
				Response: models.QuestionMessage{
					Type:            models.ResponseTypeQuestion,
					Content:         q.Prompt,
					Placeholder:     q.Placeholder,
					Node:            models.NodeClarificationInterview,
					Key:             q.Key,
					CurrentQuestion: 1,
					TotalQuestions:  3,
				},
				NextState: newState,
			}, nil
		}

		if state.CurrentQuestionIndex < len(intakeQuestions) {
			q := intakeQuestions[state.CurrentQuestionIndex]
			newState := state.Clone()
			if newState.ClarificationAnswers == nil {
				newState.ClarificationAnswers = make(map[string]string)
			}
			newState.ClarificationAnswers[q.Key] = userResponse
			nextIndex := state.CurrentQuestionIndex + 1
			newState.CurrentQuestionIndex = nextIndex

			if nextIndex >= len(intakeQuestions) {
				slog.Info("Engine.handleClarificationInterview: intake complete, moving to detailed questions")
				answers := newState.ClarificationAnswers
				newState.InitialProblem = fallback(answers["problem"], state.InitialProblem)
				newState.InitialPersona = fallback(answers["persona"], state.InitialPersona)
				newState.InitialSolution = fallback(answers["solution"], state.InitialSolution)
				newState.ClarificationInterviewLog = formatClarificationLog(answers)

				return &ExecutionResult{
					Response: models.ModelPlan{
						Type:     models.ResponseTypePlan,
						NextNode: models.NodeDetailedQuestions,
						StatePatch: map[string]any{
							"initial_problem":             newState.InitialProblem,
							"initial_persona":             newState.InitialPersona,
							"initial_solution":            newState.InitialSolution,
							"clarification_answers":       answers,
							"clarification_interview_log": newState.ClarificationInterviewLog,
							"current_question_index":      nextIndex,
						},
					},
					NextState: newState,
					NextNode:  models.NodeDetailedQuestions,
				}, nil
			}

			next := intakeQuestions[nextIndex]
			return &ExecutionResult{
				Response: models.QuestionMessage{
					Type:            models.ResponseTypeQuestion,
					Content:         next.Prompt,
					Placeholder:     next.Placeholder,
					Node:            models.NodeClarificationInterview,
					Key:             next.Key,
					CurrentQuestion: nextIndex + 1,
					TotalQuestions:  3,
				},
				NextState: newState,
			}, nil
		}
	}

	if userResponse == "" {
		// Nothing collected yet: ask for the service overview first.
		if state.ClarificationAnswers["service_overview"] == "" {
			return &ExecutionResult{
				Response: models.QuestionMessage{
					Type:            models.ResponseTypeQuestion,
					Content:         "サービスの概要を教えてください",
					Placeholder:     "例: 歌を歌うとAIが自動でハモってくれるアプリ",
					Node:            models.NodeClarificationInterview,
					Key:             "service_overview",
					CurrentQuestion: 0,
					TotalQuestions:  4,
				},
				NextState: state,
			}, nil
		}

		// Re-entry: show the current question again without mutating state.
		if state.CurrentQuestionIndex < len(intakeQuestions) {
			q := intakeQuestions[state.CurrentQuestionIndex]
			return &ExecutionResult{
				Response: models.QuestionMessage{
					Type:            models.ResponseTypeQuestion,
					Content:         q.Prompt,
					Placeholder:     q.Placeholder,
					Node:            models.NodeClarificationInterview,
					Key:             q.Key,
					CurrentQuestion: state.CurrentQuestionIndex + 1,
					TotalQuestions:  3,
				},
				NextState: state,
			}, nil
		}
	}

	slog.Debug("Engine.handleClarificationInterview: all questions already answered")
	return &ExecutionResult{
		Response: models.ModelPlan{
			Type:     models.ResponseTypePlan,
			NextNode: models.NodeSummarizeRequest,
		},
		NextState: state,
		NextNode:  models.NodeSummarizeRequest,
	}, nil
}

// handleDetailedQuestions generates up to nine alignment questions from the
// intake answers and walks through them one at a time.
func (e *Engine) handleDetailedQuestions(ctx context.Context, state *models.InterviewState, userResponse string) (*ExecutionResult, error) {
	slog.Debug("Engine.handleDetailedQuestions: entered",
		"has_user_response", userResponse != "",
		"detailed_index", state.CurrentDetailedQuestionIndex,
		"question_count", len(state.DetailedQuestions))

	if len(state.DetailedQuestions) == 0 {
		problem := fallback(state.ClarificationAnswers["problem"], state.InitialProblem)
		persona := fallback(state.ClarificationAnswers["persona"], state.InitialPersona)
		solution := fallback(state.ClarificationAnswers["solution"], state.InitialSolution)

		questions := e.generateDetailedQuestions(ctx, problem, persona, solution)
		if len(questions) == 0 {
			// Generation produced nothing usable; skip ahead rather than loop.
			slog.Error("Engine.handleDetailedQuestions: no questions generated, skipping to summary")
			return &ExecutionResult{
				Response: models.ModelPlan{
					Type:     models.ResponseTypePlan,
					NextNode: models.NodeSummarizeRequest,
				},
				NextState: state,
				NextNode:  models.NodeSummarizeRequest,
			}, nil
		}

		newState := state.Clone()
		newState.DetailedQuestions = questions
		newState.CurrentDetailedQuestionIndex = 0

		return &ExecutionResult{
			Response: models.QuestionMessage{
				Type:            models.ResponseTypeQuestion,
				Content:         questions[0],
				Choices:         yesNoChoices,
				Node:            models.NodeDetailedQuestions,
				Key:             "detailed_0",
				CurrentQuestion: 1,
				TotalQuestions:  len(questions),
			},
			NextState: newState,
		}, nil
	}

	if userResponse != "" {
		newState := state.Clone()
		if newState.DetailedAnswers == nil {
			newState.DetailedAnswers = make(map[string]string)
		}
		newState.DetailedAnswers[fmt.Sprintf("detailed_%d", state.CurrentDetailedQuestionIndex)] = userResponse
		nextIndex := state.CurrentDetailedQuestionIndex + 1
		newState.CurrentDetailedQuestionIndex = nextIndex

		if nextIndex >= len(state.DetailedQuestions) {
			slog.Info("Engine.handleDetailedQuestions: all detailed questions answered, moving to summary")
			detailedLog := formatDetailedAnswersLog(state.DetailedQuestions, newState.DetailedAnswers)
			newState.ClarificationInterviewLog = state.ClarificationInterviewLog + "\n\n" + detailedLog

			return &ExecutionResult{
				Response: models.ModelPlan{
					Type:     models.ResponseTypePlan,
					NextNode: models.NodeSummarizeRequest,
					StatePatch: map[string]any{
						"detailed_answers":                newState.DetailedAnswers,
						"clarification_interview_log":     newState.ClarificationInterviewLog,
						"current_detailed_question_index": nextIndex,
					},
				},
				NextState: newState,
				NextNode:  models.NodeSummarizeRequest,
			}, nil
		}

		return &ExecutionResult{
			Response: models.QuestionMessage{
				Type:            models.ResponseTypeQuestion,
				Content:         state.DetailedQuestions[nextIndex],
				Choices:         yesNoChoices,
				Node:            models.NodeDetailedQuestions,
				Key:             fmt.Sprintf("detailed_%d", nextIndex),
				CurrentQuestion: nextIndex + 1,
				TotalQuestions:  len(state.DetailedQuestions),
			},
			NextState: newState,
		}, nil
	}

	if state.CurrentDetailedQuestionIndex < len(state.DetailedQuestions) {
		idx := state.CurrentDetailedQuestionIndex
		return &ExecutionResult{
			Response: models.QuestionMessage{
				Type:            models.ResponseTypeQuestion,
				Content:         state.DetailedQuestions[idx],
				Choices:         yesNoChoices,
				Node:            models.NodeDetailedQuestions,
				Key:             fmt.Sprintf("detailed_%d", idx),
				CurrentQuestion: idx + 1,
				TotalQuestions:  len(state.DetailedQuestions),
			},
			NextState: state,
		}, nil
	}

	return &ExecutionResult{
		Response: models.ModelPlan{
			Type:     models.ResponseTypePlan,
			NextNode: models.NodeSummarizeRequest,
		},
		NextState: state,
		NextNode:  models.NodeSummarizeRequest,
	}, nil
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}
