package models

import "time"

// InterviewState is the full persisted state of one workflow run. It is
// treated as immutable by the engine: handlers clone it, mutate the clone,
// and return the clone as the next state.
type InterviewState struct {
	InitialProblem  string `json:"initial_problem,omitempty"`
	InitialPersona  string `json:"initial_persona,omitempty"`
	InitialSolution string `json:"initial_solution,omitempty"`

	ClarificationInterviewLog string            `json:"clarification_interview_log,omitempty"`
	ClarificationAnswers      map[string]string `json:"clarification_answers,omitempty"`
	CurrentQuestionIndex      int               `json:"current_question_index"`

	DetailedQuestions            []string          `json:"detailed_questions,omitempty"`
	DetailedAnswers              map[string]string `json:"detailed_answers,omitempty"`
	CurrentDetailedQuestionIndex int               `json:"current_detailed_question_index"`

	UserRequest string      `json:"user_request,omitempty"`
	Personas    []Persona   `json:"personas,omitempty"`
	Interviews  []Interview `json:"interviews,omitempty"`

	ProfessionalRequirementsDoc string                       `json:"professional_requirements_doc,omitempty"`
	ConsultantAnalysisReport    *ExternalEnvironmentAnalysis `json:"consultant_analysis_report,omitempty"`

	Iteration               int               `json:"iteration"`
	IsInformationSufficient bool              `json:"is_information_sufficient"`
	EvaluationResult        *EvaluationResult `json:"evaluation_result,omitempty"`
	FollowupRound           int               `json:"followup_round"`

	PitchDocument string `json:"pitch_document,omitempty"`

	Profitability *ProfitabilityAssessment `json:"profitability,omitempty"`
	Feasibility   *FeasibilityAssessment   `json:"feasibility,omitempty"`
	Legal         *LegalAssessment         `json:"legal,omitempty"`

	AugmentPersonas bool `json:"augment_personas"`
}

// Clone returns a deep copy safe for independent mutation. Maps, slices and
// nested pointers are copied; the caller may patch the clone freely without
// affecting the original.
func (s *InterviewState) Clone() *InterviewState {
	if s == nil {
		return &InterviewState{}
	}
	c := *s
	if s.ClarificationAnswers != nil {
		c.ClarificationAnswers = make(map[string]string, len(s.ClarificationAnswers))
		for k, v := range s.ClarificationAnswers {
			c.ClarificationAnswers[k] = v
		}
	}
	if s.DetailedAnswers != nil {
		c.DetailedAnswers = make(map[string]string, len(s.DetailedAnswers))
		for k, v := range s.DetailedAnswers {
			c.DetailedAnswers[k] = v
		}
	}
	if s.DetailedQuestions != nil {
		c.DetailedQuestions = append([]string(nil), s.DetailedQuestions...)
	}
	if s.Personas != nil {
		c.Personas = append([]Persona(nil), s.Personas...)
	}
	if s.Interviews != nil {
		c.Interviews = append([]Interview(nil), s.Interviews...)
	}
	if s.ConsultantAnalysisReport != nil {
		a := *s.ConsultantAnalysisReport
		c.ConsultantAnalysisReport = &a
	}
	if s.EvaluationResult != nil {
		er := *s.EvaluationResult
		er.Gaps = append([]string(nil), s.EvaluationResult.Gaps...)
		er.FollowupQuestions = append([]string(nil), s.EvaluationResult.FollowupQuestions...)
		c.EvaluationResult = &er
	}
	if s.Profitability != nil {
		p := *s.Profitability
		c.Profitability = &p
	}
	if s.Feasibility != nil {
		f := *s.Feasibility
		c.Feasibility = &f
	}
	if s.Legal != nil {
		l := *s.Legal
		c.Legal = &l
	}
	return &c
}

// WorkflowSession is the persisted record binding a session ID to its current
// node and serialized InterviewState.
type WorkflowSession struct {
	SessionID   string    `json:"session_id"`
	CurrentNode NodeId    `json:"current_node"`
	StateJSON   string    `json:"state_json"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
