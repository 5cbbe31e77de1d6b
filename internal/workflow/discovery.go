package workflow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// handleSummarizeRequest condenses the collected intake into a one-paragraph
// project summary and publishes it as a document.
func (e *Engine) handleSummarizeRequest(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	slog.Debug("Engine.handleSummarizeRequest: generating project summary")

	summary := e.generateRequestSummary(ctx, state.InitialProblem, state.InitialPersona, state.InitialSolution, state.ClarificationInterviewLog)

	newState := state.Clone()
	newState.UserRequest = summary

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentSummary,
			Title:        "サービス概要",
			Content:      summary,
			Node:         models.NodeSummarizeRequest,
		},
		NextState: newState,
		NextNode:  models.NodeGeneratePersonas,
	}, nil
}

// handleGeneratePersonas generates five candidate personas, shows them to the
// user, and waits for confirmation before interviewing them.
func (e *Engine) handleGeneratePersonas(ctx context.Context, state *models.InterviewState, userResponse string) (*ExecutionResult, error) {
	slog.Debug("Engine.handleGeneratePersonas: entered", "has_user_response", userResponse != "", "persona_count", len(state.Personas))

	if strings.Contains(userResponse, ConfirmPersonasPhrase) {
		slog.Info("Engine.handleGeneratePersonas: personas confirmed, moving to interviews")
		return &ExecutionResult{
			Response: models.ModelPlan{
				Type:     models.ResponseTypePlan,
				NextNode: models.NodeConductInterviews,
			},
			NextState: state,
			NextNode:  models.NodeConductInterviews,
		}, nil
	}

	if len(state.Personas) == 0 {
		personas, err := e.generatePersonas(ctx, state.UserRequest)
		if err != nil {
			slog.Error("Engine.handleGeneratePersonas: generation failed", "error", err)
			return &ExecutionResult{
				Response: models.QuestionMessage{
					Type:    models.ResponseTypeQuestion,
					Content: "システムエラーが発生しました。ペルソナの生成でエラーが発生しています。しばらくお待ちいただいてから再試行してください。",
					Choices: []models.Choice{
						{Label: "再試行する", Value: "再試行する"},
					},
					Node: models.NodeGeneratePersonas,
					Key:  "system_error",
				},
				NextState: state,
			}, nil
		}
		if len(personas) == 0 {
			slog.Error("Engine.handleGeneratePersonas: no personas in response")
			return &ExecutionResult{
				Response: models.QuestionMessage{
					Type:    models.ResponseTypeQuestion,
					Content: "ペルソナの生成に失敗しました。申し訳ございません。もう一度お試しいただくか、手動でペルソナを設定していただけますか？",
					Choices: []models.Choice{
						{Label: "再試行する", Value: "再試行する"},
						{Label: "手動で設定する", Value: "手動で設定する"},
					},
					Node: models.NodeGeneratePersonas,
					Key:  "personas_error",
				},
				NextState: state,
			}, nil
		}

		slog.Info("Engine.handleGeneratePersonas: personas generated", "count", len(personas))
		newState := state.Clone()
		newState.Personas = personas
		newState.Iteration = 0
		newState.IsInformationSufficient = false

		return &ExecutionResult{
			Response: models.CompletedDocument{
				Type:         models.ResponseTypeCompleted,
				DocumentType: models.DocumentPersonas,
				Title:        "ペルソナ",
				Content:      formatPersonas(personas),
				Node:         models.NodeGeneratePersonas,
			},
			NextState: newState,
			NextNode:  models.NodeConductInterviews,
		}, nil
	}

	// Personas already exist: re-display them and keep advancing.
	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentPersonas,
			Title:        "ペルソナ",
			Content:      formatPersonas(state.Personas),
			Node:         models.NodeGeneratePersonas,
		},
		NextState: state,
		NextNode:  models.NodeConductInterviews,
	}, nil
}

// handleConductInterviews runs three simulated question/answer rounds per
// persona and publishes the transcript.
func (e *Engine) handleConductInterviews(ctx context.Context, state *models.InterviewState, userResponse string) (*ExecutionResult, error) {
	slog.Debug("Engine.handleConductInterviews: entered", "has_user_response", userResponse != "", "interview_count", len(state.Interviews))

	if strings.Contains(userResponse, ConfirmInterviewsPhrase) {
		slog.Info("Engine.handleConductInterviews: interviews confirmed, moving to evaluation")
		return &ExecutionResult{
			Response: models.ModelPlan{
				Type:     models.ResponseTypePlan,
				NextNode: models.NodeEvaluateInformation,
			},
			NextState: state,
			NextNode:  models.NodeEvaluateInformation,
		}, nil
	}

	if len(state.Interviews) > 0 {
		return &ExecutionResult{
			Response: models.CompletedDocument{
				Type:         models.ResponseTypeCompleted,
				DocumentType: models.DocumentInterviews,
				Title:        "インタビュー結果",
				Content:      formatInterviews(state.Interviews),
				Node:         models.NodeConductInterviews,
			},
			NextState: state,
			NextNode:  models.NodeEvaluateInformation,
		}, nil
	}

	interviews := e.conductInterviews(ctx, state.UserRequest, state.Personas)
	slog.Info("Engine.handleConductInterviews: interviews conducted", "count", len(interviews))

	newState := state.Clone()
	newState.Interviews = interviews

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentInterviews,
			Title:        "インタビュー結果",
			Content:      formatInterviews(interviews),
			Node:         models.NodeConductInterviews,
		},
		NextState: newState,
		NextNode:  models.NodeEvaluateInformation,
	}, nil
}
