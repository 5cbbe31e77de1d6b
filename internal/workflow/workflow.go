// Package workflow implements the ServiceBuilder interview engine: a
// resumable state machine whose nodes collect user input, call the LLM
// gateway, and emit documents until a final pitch is produced.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SoloForge/ServiceBuilder/internal/genai"
	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// Confirmation phrases recognized as substring matches. UI copy and engine
// logic share these definitions.
const (
	ConfirmPersonasPhrase   = "はい、この設定で進めてください"
	ConfirmInterviewsPhrase = "はい、この情報で要件定義を進めてください"
)

// ExecutionResult is the outcome of one node execution. NextNode is empty
// when the engine is waiting for user input or the workflow has finished.
type ExecutionResult struct {
	Response  models.AgentResponse
	NextState *models.InterviewState
	NextNode  models.NodeId
}

// Engine executes workflow nodes. It is stateless: callers load state, run a
// node, and persist the returned state.
type Engine struct {
	genAIClient genai.ClientInterface
}

// NewEngine creates a workflow engine backed by the given GenAI client.
func NewEngine(client genai.ClientInterface) *Engine {
	return &Engine{genAIClient: client}
}

// ExecuteNode runs one node against the given state. userResponse is empty
// when the engine is being advanced without user input. LLM failures degrade
// into typed defaults inside the handlers; an error return means a broken
// invocation (unknown node, or an assessment node reached without an
// analysis report).
func (e *Engine) ExecuteNode(ctx context.Context, node models.NodeId, state *models.InterviewState, userResponse string) (*ExecutionResult, error) {
	slog.Debug("Engine.ExecuteNode: executing node", "node", node, "has_user_response", userResponse != "",
		"question_index", state.CurrentQuestionIndex, "iteration", state.Iteration)
	nodeExecutions.WithLabelValues(string(node)).Inc()

	switch node {
	case models.NodeClarificationInterview:
		return e.handleClarificationInterview(state, userResponse)
	case models.NodeDetailedQuestions:
		return e.handleDetailedQuestions(ctx, state, userResponse)
	case models.NodeSummarizeRequest:
		return e.handleSummarizeRequest(ctx, state)
	case models.NodeGeneratePersonas:
		return e.handleGeneratePersonas(ctx, state, userResponse)
	case models.NodeConductInterviews:
		return e.handleConductInterviews(ctx, state, userResponse)
	case models.NodeEvaluateInformation:
		return e.handleEvaluateInformation(ctx, state)
	case models.NodeAskFollowups:
		return e.handleAskFollowups(ctx, state, userResponse)
	case models.NodeGenerateRequirements:
		return e.handleGenerateRequirements(ctx, state)
	case models.NodeAnalyzeEnvironment:
		return e.handleAnalyzeEnvironment(ctx, state)
	case models.NodeAssessProfitability:
		return e.handleAssessProfitability(ctx, state)
	case models.NodeAssessFeasibility:
		return e.handleAssessFeasibility(ctx, state)
	case models.NodeAssessLegal:
		return e.handleAssessLegal(ctx, state)
	case models.NodeAssessmentGate:
		return e.handleAssessmentGate(state)
	case models.NodeImproveRequirements:
		return e.handleImproveRequirements(ctx, state)
	case models.NodeGeneratePitch:
		return e.handleGeneratePitch(ctx, state)
	default:
		return nil, fmt.Errorf("unknown node: %s", node)
	}
}
