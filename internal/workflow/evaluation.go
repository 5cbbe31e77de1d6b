package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// handleEvaluateInformation judges whether the interviews gathered enough
// information, bumps the iteration counter, and routes either forward to the
// requirements document or into a followup round.
func (e *Engine) handleEvaluateInformation(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	evaluation := e.evaluateInformation(ctx, state.UserRequest, state.Interviews)

	newState := state.Clone()
	newState.IsInformationSufficient = evaluation.IsSufficient
	newState.Iteration = state.Iteration + 1
	newState.EvaluationResult = evaluation

	var nextNode models.NodeId
	switch {
	case evaluation.IsSufficient:
		nextNode = models.NodeGenerateRequirements
	case state.FollowupRound < 2:
		nextNode = models.NodeAskFollowups
	default:
		// Followup budget exhausted: move forward with auto-fill.
		nextNode = models.NodeGenerateRequirements
	}

	slog.Info("Engine.handleEvaluateInformation: evaluation complete",
		"is_sufficient", evaluation.IsSufficient, "iteration", newState.Iteration, "next_node", nextNode)

	return &ExecutionResult{
		Response: models.ModelPlan{
			Type:     models.ResponseTypePlan,
			NextNode: nextNode,
			StatePatch: map[string]any{
				"is_information_sufficient": evaluation.IsSufficient,
				"iteration":                 newState.Iteration,
				"evaluation_result":         evaluation,
			},
		},
		NextState: newState,
		NextNode:  nextNode,
	}, nil
}

// handleAskFollowups collects up to two rounds of additional user input for
// the gaps the evaluation found: first round free text, second round
// yes/no. After the budget is spent, remaining gaps are backfilled with
// model-generated assumptions and the workflow proceeds.
func (e *Engine) handleAskFollowups(ctx context.Context, state *models.InterviewState, userResponse string) (*ExecutionResult, error) {
	slog.Debug("Engine.handleAskFollowups: entered",
		"has_user_response", userResponse != "",
		"followup_round", state.FollowupRound,
		"has_evaluation", state.EvaluationResult != nil)

	if state.EvaluationResult == nil {
		slog.Debug("Engine.handleAskFollowups: no evaluation result, moving to requirements")
		return &ExecutionResult{
			Response: models.ModelPlan{
				Type:     models.ResponseTypePlan,
				NextNode: models.NodeGenerateRequirements,
			},
			NextState: state,
			NextNode:  models.NodeGenerateRequirements,
		}, nil
	}

	updatedLog := state.ClarificationInterviewLog
	if userResponse != "" {
		header := "## 追加入力（1回目・自由記述）"
		if state.FollowupRound != 0 {
			header = "## 追加入力（2回目・はい/いいえ）"
		}
		updatedLog += "\n\n" + header + "\n" + userResponse
	}

	if state.FollowupRound >= 2 || len(state.EvaluationResult.FollowupQuestions) == 0 {
		slog.Info("Engine.handleAskFollowups: followup budget spent, backfilling and moving forward",
			"followup_round", state.FollowupRound, "gap_count", len(state.EvaluationResult.Gaps))

		if len(state.EvaluationResult.Gaps) > 0 {
			autoFill := e.generateAssumptionBackfill(ctx, state.UserRequest, state.Interviews, state.EvaluationResult.Gaps)
			updatedLog += "\n\n## 自動補完（AI仮設定）\n" + autoFill
		}

		newState := state.Clone()
		newState.ClarificationInterviewLog = updatedLog
		newState.FollowupRound = state.FollowupRound + 1
		newState.IsInformationSufficient = true

		return &ExecutionResult{
			Response: models.ModelPlan{
				Type:     models.ResponseTypePlan,
				NextNode: models.NodeGenerateRequirements,
				StatePatch: map[string]any{
					"clarification_interview_log": updatedLog,
					"followup_round":              newState.FollowupRound,
					"is_information_sufficient":   true,
				},
			},
			NextState: newState,
			NextNode:  models.NodeGenerateRequirements,
		}, nil
	}

	newState := state.Clone()
	newState.ClarificationInterviewLog = updatedLog
	newState.FollowupRound = state.FollowupRound + 1

	if userResponse == "" && len(state.EvaluationResult.FollowupQuestions) > 0 {
		mode := "自由記述"
		questions := state.EvaluationResult.FollowupQuestions
		if state.FollowupRound != 0 {
			mode = "はい/いいえ"
			questions = e.convertToYesNoQuestions(ctx, questions)
		}

		var numbered []string
		for i, q := range questions {
			numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, q))
		}

		slog.Info("Engine.handleAskFollowups: asking followup questions", "mode", mode, "count", len(questions))
		return &ExecutionResult{
			Response: models.QuestionMessage{
				Type:    models.ResponseTypeQuestion,
				Content: fmt.Sprintf("以下の点について追加でお聞かせください（%s形式）:\n\n%s", mode, strings.Join(numbered, "\n")),
				Node:    models.NodeAskFollowups,
				Key:     "followup_response",
			},
			NextState: newState,
		}, nil
	}

	slog.Debug("Engine.handleAskFollowups: followup response recorded, moving to requirements")
	return &ExecutionResult{
		Response: models.ModelPlan{
			Type:     models.ResponseTypePlan,
			NextNode: models.NodeGenerateRequirements,
			StatePatch: map[string]any{
				"clarification_interview_log": updatedLog,
				"followup_round":              newState.FollowupRound,
			},
		},
		NextState: newState,
		NextNode:  models.NodeGenerateRequirements,
	}, nil
}
