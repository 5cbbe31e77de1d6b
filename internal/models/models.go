// Package models defines the shared types for the ServiceBuilder interview workflow.
package models

// NodeId identifies one state in the interview workflow state machine.
type NodeId string

// Workflow node constants. NodeClarificationInterview is the initial node;
// NodeGeneratePitch is terminal.
const (
	NodeClarificationInterview NodeId = "clarification_interview"
	NodeDetailedQuestions      NodeId = "detailed_questions"
	NodeSummarizeRequest       NodeId = "summarize_request"
	NodeGeneratePersonas       NodeId = "generate_personas"
	NodeConductInterviews      NodeId = "conduct_interviews"
	NodeEvaluateInformation    NodeId = "evaluate_information"
	NodeAskFollowups           NodeId = "ask_followups"
	NodeGenerateRequirements   NodeId = "generate_professional_requirements"
	NodeAnalyzeEnvironment     NodeId = "analyze_environment"
	NodeAssessProfitability    NodeId = "assess_profitability"
	NodeAssessFeasibility      NodeId = "assess_feasibility"
	NodeAssessLegal            NodeId = "assess_legal"
	NodeAssessmentGate         NodeId = "assessment_gate"
	NodeImproveRequirements    NodeId = "improve_requirements"
	NodeGeneratePitch          NodeId = "generate_pitch"
)

// Persona is a synthetic user profile used to simulate stakeholder feedback.
type Persona struct {
	Name       string `json:"name"`
	Background string `json:"background"`
}

// Interview is one simulated question/answer exchange with a persona.
type Interview struct {
	Persona  Persona `json:"persona"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
}

// EvaluationResult is the verdict on whether the collected interviews carry
// enough information to write a requirements document.
type EvaluationResult struct {
	Reason            string   `json:"reason"`
	IsSufficient      bool     `json:"is_sufficient"`
	Gaps              []string `json:"gaps"`
	FollowupQuestions []string `json:"followup_questions"`
}

// ExternalEnvironmentAnalysis holds the five narrative sections of the
// consultant-style environment report. Every field is a string; non-string
// model output is coerced at the parsing boundary.
type ExternalEnvironmentAnalysis struct {
	CustomerAnalysis   string `json:"customer_analysis"`
	CompetitorAnalysis string `json:"competitor_analysis"`
	CompanyAnalysis    string `json:"company_analysis"`
	PestAnalysis       string `json:"pest_analysis"`
	SummaryAndStrategy string `json:"summary_and_strategy"`
}

// ProfitabilityAssessment is the profitability gate verdict.
type ProfitabilityAssessment struct {
	IsProfitable bool   `json:"is_profitable"`
	Reason       string `json:"reason"`
}

// FeasibilityAssessment is the feasibility gate verdict.
type FeasibilityAssessment struct {
	IsFeasible bool   `json:"is_feasible"`
	Reason     string `json:"reason"`
}

// LegalAssessment is the legal/compliance gate verdict.
type LegalAssessment struct {
	IsCompliant bool   `json:"is_compliant"`
	Reason      string `json:"reason"`
}

// Choice is one fixed-answer option attached to a question.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DocumentType tags a completed document for the UI.
type DocumentType string

// Document type constants.
const (
	DocumentSummary                 DocumentType = "summary"
	DocumentPersonas                DocumentType = "personas"
	DocumentInterviews              DocumentType = "interviews"
	DocumentRequirements            DocumentType = "requirements"
	DocumentAnalysis                DocumentType = "analysis"
	DocumentPitch                   DocumentType = "pitch"
	DocumentProfitabilityAssessment DocumentType = "profitability_assessment"
	DocumentFeasibilityAssessment   DocumentType = "feasibility_assessment"
	DocumentLegalAssessment         DocumentType = "legal_assessment"
)

// ResponseType tags the AgentResponse union variants.
type ResponseType string

// Response type constants.
const (
	ResponseTypeQuestion  ResponseType = "question"
	ResponseTypePlan      ResponseType = "plan"
	ResponseTypeStreaming ResponseType = "streaming"
	ResponseTypeCompleted ResponseType = "completed"
)

// AgentResponse is the engine's externally visible output: exactly one of
// QuestionMessage, ModelPlan, StreamingMessage, or CompletedDocument.
type AgentResponse interface {
	ResponseType() ResponseType
}

// QuestionMessage asks the caller to collect one more piece of user input and
// re-invoke the engine at the same node with the answer.
type QuestionMessage struct {
	Type        ResponseType `json:"type"`
	Content     string       `json:"content"`
	Choices     []Choice     `json:"choices,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Node        NodeId       `json:"node"`
	Key         string       `json:"key"`
	// Progress counters, omitted when the question carries no progress.
	CurrentQuestion int `json:"currentQuestion,omitempty"`
	TotalQuestions  int `json:"totalQuestions,omitempty"`
}

// ResponseType implements AgentResponse.
func (QuestionMessage) ResponseType() ResponseType { return ResponseTypeQuestion }

// ModelPlan is a pure state transition with no user-visible content; the
// caller should immediately re-invoke the engine at NextNode with no input.
type ModelPlan struct {
	Type       ResponseType   `json:"type"`
	NextNode   NodeId         `json:"nextNode"`
	StatePatch map[string]any `json:"statePatch,omitempty"`
}

// ResponseType implements AgentResponse.
func (ModelPlan) ResponseType() ResponseType { return ResponseTypePlan }

// StreamingMessage marks a node whose generation should be streamed
// token-by-token by the transport. No handler currently emits it; the
// transport produces it when relaying long generations.
type StreamingMessage struct {
	Type       ResponseType `json:"type"`
	Content    string       `json:"content"`
	IsComplete bool         `json:"isComplete"`
	Node       NodeId       `json:"node"`
}

// ResponseType implements AgentResponse.
func (StreamingMessage) ResponseType() ResponseType { return ResponseTypeStreaming }

// CompletedDocument is a finished generated artifact ready for display.
type CompletedDocument struct {
	Type         ResponseType `json:"type"`
	DocumentType DocumentType `json:"documentType"`
	Title        string       `json:"title,omitempty"`
	Content      string       `json:"content"`
	Node         NodeId       `json:"node"`
}

// ResponseType implements AgentResponse.
func (CompletedDocument) ResponseType() ResponseType { return ResponseTypeCompleted }
