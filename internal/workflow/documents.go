package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// handleGenerateRequirements produces the integrated requirements document
// from the project summary and interview transcript.
func (e *Engine) handleGenerateRequirements(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	slog.Debug("Engine.handleGenerateRequirements: generating requirements document")
	requirements := e.generateProfessionalRequirements(ctx, state.UserRequest, state.Interviews)
	slog.Info("Engine.handleGenerateRequirements: document generated", "length", len(requirements))

	newState := state.Clone()
	newState.ProfessionalRequirementsDoc = requirements

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentRequirements,
			Title:        "統合要件定義書",
			Content:      requirements,
			Node:         models.NodeGenerateRequirements,
		},
		NextState: newState,
		NextNode:  models.NodeAnalyzeEnvironment,
	}, nil
}

// handleAnalyzeEnvironment runs the consultant-style external environment
// analysis over the requirements document.
func (e *Engine) handleAnalyzeEnvironment(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	slog.Debug("Engine.handleAnalyzeEnvironment: analyzing external environment")
	analysis := e.analyzeExternalEnvironment(ctx, state.ProfessionalRequirementsDoc)

	newState := state.Clone()
	newState.ConsultantAnalysisReport = analysis

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentAnalysis,
			Title:        "外部環境分析レポート",
			Content:      formatAnalysis(analysis),
			Node:         models.NodeAnalyzeEnvironment,
		},
		NextState: newState,
		NextNode:  models.NodeAssessProfitability,
	}, nil
}

func (e *Engine) handleAssessProfitability(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	if state.ConsultantAnalysisReport == nil {
		return nil, fmt.Errorf("no analysis report found")
	}

	assessment := e.assessProfitability(ctx, state.ProfessionalRequirementsDoc, state.ConsultantAnalysisReport)

	newState := state.Clone()
	newState.Profitability = assessment

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentProfitabilityAssessment,
			Title:        "収益性評価",
			Content:      formatProfitability(assessment),
			Node:         models.NodeAssessProfitability,
		},
		NextState: newState,
		NextNode:  models.NodeAssessFeasibility,
	}, nil
}

func (e *Engine) handleAssessFeasibility(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	if state.ConsultantAnalysisReport == nil {
		return nil, fmt.Errorf("no analysis report found")
	}

	assessment := e.assessFeasibility(ctx, state.ProfessionalRequirementsDoc, state.ConsultantAnalysisReport)

	newState := state.Clone()
	newState.Feasibility = assessment

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentFeasibilityAssessment,
			Title:        "実現可能性評価",
			Content:      formatFeasibility(assessment),
			Node:         models.NodeAssessFeasibility,
		},
		NextState: newState,
		NextNode:  models.NodeAssessLegal,
	}, nil
}

func (e *Engine) handleAssessLegal(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	if state.ConsultantAnalysisReport == nil {
		return nil, fmt.Errorf("no analysis report found")
	}

	assessment := e.assessLegal(ctx, state.ProfessionalRequirementsDoc, state.ConsultantAnalysisReport)

	newState := state.Clone()
	newState.Legal = assessment

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentLegalAssessment,
			Title:        "法的リスク評価",
			Content:      formatLegal(assessment),
			Node:         models.NodeAssessLegal,
		},
		NextState: newState,
		NextNode:  models.NodeAssessmentGate,
	}, nil
}

// handleAssessmentGate routes to the pitch when all three assessments pass,
// otherwise into the revision path. A missing assessment counts as a fail.
func (e *Engine) handleAssessmentGate(state *models.InterviewState) (*ExecutionResult, error) {
	profitabilityPassed := state.Profitability != nil && state.Profitability.IsProfitable
	feasibilityPassed := state.Feasibility != nil && state.Feasibility.IsFeasible
	legalPassed := state.Legal != nil && state.Legal.IsCompliant
	allPassed := profitabilityPassed && feasibilityPassed && legalPassed

	nextNode := models.NodeImproveRequirements
	if allPassed {
		nextNode = models.NodeGeneratePitch
	}

	slog.Info("Engine.handleAssessmentGate: gate decided",
		"profitability", profitabilityPassed, "feasibility", feasibilityPassed, "legal", legalPassed, "next_node", nextNode)

	return &ExecutionResult{
		Response: models.ModelPlan{
			Type:     models.ResponseTypePlan,
			NextNode: nextNode,
		},
		NextState: state,
		NextNode:  nextNode,
	}, nil
}

// handleImproveRequirements revises the requirements document against the
// failed assessments, regenerates the summary, and skips straight to the
// pitch. Interviews are kept for the final pitch generation.
func (e *Engine) handleImproveRequirements(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	if state.ConsultantAnalysisReport == nil {
		return nil, fmt.Errorf("no analysis report found")
	}

	var badReasons []string
	if state.Profitability != nil && !state.Profitability.IsProfitable {
		badReasons = append(badReasons, fmt.Sprintf("[収益性NG] %s", state.Profitability.Reason))
	}
	if state.Feasibility != nil && !state.Feasibility.IsFeasible {
		badReasons = append(badReasons, fmt.Sprintf("[実現性NG] %s", state.Feasibility.Reason))
	}
	if state.Legal != nil && !state.Legal.IsCompliant {
		badReasons = append(badReasons, fmt.Sprintf("[法務NG] %s", state.Legal.Reason))
	}

	slog.Info("Engine.handleImproveRequirements: revising requirements", "failed_assessments", len(badReasons))

	improvedRequirements := e.improveRequirements(ctx, state.ProfessionalRequirementsDoc, state.ConsultantAnalysisReport, badReasons)
	newSummary := e.generateSummaryFromRequirements(ctx, improvedRequirements)

	newState := state.Clone()
	newState.ProfessionalRequirementsDoc = improvedRequirements
	newState.UserRequest = newSummary
	newState.AugmentPersonas = true

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentRequirements,
			Title:        "改善された要件定義書",
			Content:      improvedRequirements,
			Node:         models.NodeImproveRequirements,
		},
		NextState: newState,
		NextNode:  models.NodeGeneratePitch,
	}, nil
}

// handleGeneratePitch produces the final pitch document. It is the terminal
// node: the result carries no next node.
func (e *Engine) handleGeneratePitch(ctx context.Context, state *models.InterviewState) (*ExecutionResult, error) {
	slog.Debug("Engine.handleGeneratePitch: generating pitch", "interview_count", len(state.Interviews))
	pitch := e.generatePitch(ctx, state.UserRequest, state.Interviews)
	slog.Info("Engine.handleGeneratePitch: pitch generated", "length", len(pitch))

	newState := state.Clone()
	newState.PitchDocument = pitch

	return &ExecutionResult{
		Response: models.CompletedDocument{
			Type:         models.ResponseTypeCompleted,
			DocumentType: models.DocumentPitch,
			Title:        "プロジェクト企画書",
			Content:      pitch,
			Node:         models.NodeGeneratePitch,
		},
		NextState: newState,
	}, nil
}
