package workflow

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoloForge/ServiceBuilder/internal/genai"
	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// scriptedRespond routes mock completions by the system prompt of the
// request, so a single mock can drive a full workflow run.
func scriptedRespond(t *testing.T) func(req genai.CompletionRequest) (string, error) {
	t.Helper()
	return func(req genai.CompletionRequest) (string, error) {
		switch {
		case strings.Contains(req.System, "方向性アライメント質問票"):
			return "質問1\n質問2\n質問3", nil
		case strings.Contains(req.System, "優秀なプロジェクトマネージャー"):
			return "プロジェクトサマリー", nil
		case strings.Contains(req.System, "ペルソナ生成の専門家"):
			return `{"personas": [{"name": "田中太郎", "background": "エンジニア"}, {"name": "鈴木花子", "background": "学生"}]}`, nil
		case strings.Contains(req.System, "UXリサーチ"):
			return "- 質問A\n- 質問B\n- 質問C", nil
		case strings.Contains(req.System, "ペルソナとして回答"):
			return "私はこう思います。", nil
		case strings.Contains(req.System, "十分性を評価"):
			return `{"reason": "十分", "is_sufficient": true, "gaps": [], "followup_questions": []}`, nil
		case strings.Contains(req.System, "システムアナリスト"):
			return "# 📝 統合要件定義書", nil
		case strings.Contains(req.System, "外資系戦略コンサル"):
			return `{"customer_analysis": "顧客", "competitor_analysis": "競合", "company_analysis": "自社", "pest_analysis": "PEST", "summary_and_strategy": "要約"}`, nil
		case strings.Contains(req.System, "収益性の監査官"):
			return `{"is_profitable": true, "reason": "黒字化可能"}`, nil
		case strings.Contains(req.System, "実現可能性の監査官"):
			return `{"is_feasible": true, "reason": "実装可能"}`, nil
		case strings.Contains(req.System, "法務・コンプライアンス監査官"):
			return `{"is_compliant": true, "reason": "問題なし"}`, nil
		case strings.Contains(req.System, "シニアPM"):
			return "# 改訂版要件定義書", nil
		case strings.Contains(req.System, "編集者"):
			return "改訂後サマリー", nil
		case strings.Contains(req.System, "学生起業家"):
			return "🚀 企画書本文", nil
		default:
			return "", fmt.Errorf("unscripted request: %s", req.System)
		}
	}
}

// drive executes the node and follows plan transitions until the workflow
// waits for input or terminates, the way the HTTP layer does.
func drive(t *testing.T, engine *Engine, node models.NodeId, state *models.InterviewState, input string) ([]models.AgentResponse, models.NodeId, *models.InterviewState) {
	t.Helper()
	var responses []models.AgentResponse
	for i := 0; i < 30; i++ {
		result, err := engine.ExecuteNode(context.Background(), node, state, input)
		require.NoError(t, err, "node %s", node)
		responses = append(responses, result.Response)
		state = result.NextState
		if result.NextNode == "" {
			return responses, node, state
		}
		node = result.NextNode
		input = ""
	}
	t.Fatal("workflow did not settle")
	return nil, "", nil
}

func TestScenarioHappyPath(t *testing.T) {
	engine, mock := newTestEngine(scriptedRespond(t))
	state := &models.InterviewState{}
	node := models.NodeClarificationInterview

	// Opening a session asks for the service overview.
	responses, node, state := drive(t, engine, node, state, "")
	require.Len(t, responses, 1)
	q := responses[0].(models.QuestionMessage)
	assert.Equal(t, "service_overview", q.Key)
	assert.Equal(t, 0, mock.calls)

	// The four intake answers.
	for _, answer := range []string{"ハモリアプリ", "一人だと寂しい", "20代の社会人", "AIがハモるアプリ"} {
		responses, node, state = drive(t, engine, node, state, answer)
	}

	// Last intake answer flowed into detailed question generation.
	require.Equal(t, models.NodeDetailedQuestions, node)
	q = responses[len(responses)-1].(models.QuestionMessage)
	assert.Equal(t, "detailed_0", q.Key)
	require.Len(t, state.DetailedQuestions, 3)

	// Answer the detailed questions; the final answer cascades all the way
	// to the pitch because every gate passes.
	for i := 0; i < 2; i++ {
		responses, node, state = drive(t, engine, node, state, "はい")
	}
	responses, _, state = drive(t, engine, node, state, "はい")

	var docTypes []models.DocumentType
	for _, r := range responses {
		if doc, ok := r.(models.CompletedDocument); ok {
			docTypes = append(docTypes, doc.DocumentType)
		}
	}
	assert.Equal(t, []models.DocumentType{
		models.DocumentSummary,
		models.DocumentPersonas,
		models.DocumentInterviews,
		models.DocumentRequirements,
		models.DocumentAnalysis,
		models.DocumentProfitabilityAssessment,
		models.DocumentFeasibilityAssessment,
		models.DocumentLegalAssessment,
		models.DocumentPitch,
	}, docTypes)

	assert.Equal(t, "🚀 企画書本文", state.PitchDocument)
	assert.Len(t, state.Interviews, 6, "3 questions for each of 2 personas")
	assert.True(t, state.IsInformationSufficient)
	require.NotNil(t, state.Profitability)
	assert.True(t, state.Profitability.IsProfitable)
	require.NotNil(t, state.ConsultantAnalysisReport)
	assert.Equal(t, "顧客", state.ConsultantAnalysisReport.CustomerAnalysis)
}

func TestScenarioInsufficientInformationAsksFollowups(t *testing.T) {
	respond := scriptedRespond(t)
	engine, _ := newTestEngine(func(req genai.CompletionRequest) (string, error) {
		if strings.Contains(req.System, "十分性を評価") {
			return `{"reason": "価格が不明", "is_sufficient": false, "gaps": ["価格"], "followup_questions": ["価格はいくらですか？"]}`, nil
		}
		return respond(req)
	})
	state := &models.InterviewState{
		UserRequest: "サマリー",
		Personas:    []models.Persona{{Name: "田中太郎", Background: "エンジニア"}},
		Interviews:  []models.Interview{{Persona: models.Persona{Name: "田中太郎"}, Question: "q", Answer: "a"}},
	}

	// Evaluation finds a gap and the workflow stops to ask about it.
	responses, node, state := drive(t, engine, models.NodeEvaluateInformation, state, "")
	require.Equal(t, models.NodeAskFollowups, node)
	q := responses[len(responses)-1].(models.QuestionMessage)
	assert.Equal(t, "followup_response", q.Key)
	assert.Contains(t, q.Content, "価格はいくらですか？")
	assert.Equal(t, 1, state.FollowupRound)
	assert.False(t, state.IsInformationSufficient)

	// The answer is recorded and the run continues to the pitch. The round
	// counter was already advanced when the question was asked, so the
	// recorded header is the second-round one.
	responses, _, state = drive(t, engine, node, state, "月500円を想定しています")
	assert.Contains(t, state.ClarificationInterviewLog, "## 追加入力（2回目・はい/いいえ）")
	assert.Contains(t, state.ClarificationInterviewLog, "月500円を想定しています")
	assert.Equal(t, 2, state.FollowupRound)
	assert.Equal(t, "🚀 企画書本文", state.PitchDocument)

	last := responses[len(responses)-1].(models.CompletedDocument)
	assert.Equal(t, models.DocumentPitch, last.DocumentType)
}

func TestScenarioForcedTerminationBackfillsGaps(t *testing.T) {
	respond := scriptedRespond(t)
	backfillCalls := 0
	engine, _ := newTestEngine(func(req genai.CompletionRequest) (string, error) {
		switch {
		case strings.Contains(req.System, "十分性を評価"):
			return `{"reason": "価格が不明", "is_sufficient": false, "gaps": ["価格"], "followup_questions": ["価格はいくらですか？"]}`, nil
		case strings.Contains(req.System, "はい／いいえ"):
			return "- 価格は月500円でよいですか？", nil
		case strings.Contains(req.System, "自動補完"):
			backfillCalls++
			return "- 価格: 月500円 / 競合相場 / リリース後に再確認", nil
		}
		return respond(req)
	})
	state := &models.InterviewState{
		UserRequest:   "サマリー",
		Interviews:    []models.Interview{{Persona: models.Persona{Name: "田中太郎"}, Question: "q", Answer: "a"}},
		FollowupRound: 1,
	}

	// Second evaluation still finds gaps; the remaining round is yes/no.
	responses, node, state := drive(t, engine, models.NodeEvaluateInformation, state, "")
	require.Equal(t, models.NodeAskFollowups, node)
	q := responses[len(responses)-1].(models.QuestionMessage)
	assert.Contains(t, q.Content, "はい/いいえ形式")
	assert.Contains(t, q.Content, "価格は月500円でよいですか？")
	assert.Equal(t, 2, state.FollowupRound)

	// The final answer triggers backfill and the run completes.
	responses, _, state = drive(t, engine, node, state, "はい")
	assert.Contains(t, state.ClarificationInterviewLog, "## 追加入力（2回目・はい/いいえ）")
	assert.Contains(t, state.ClarificationInterviewLog, "## 自動補完（AI仮設定）")
	assert.Equal(t, 1, backfillCalls)
	assert.True(t, state.IsInformationSufficient)
	assert.Equal(t, "🚀 企画書本文", state.PitchDocument)

	last := responses[len(responses)-1].(models.CompletedDocument)
	assert.Equal(t, models.DocumentPitch, last.DocumentType)
}

func TestScenarioFailedGateImprovesAndStillPitches(t *testing.T) {
	respond := scriptedRespond(t)
	engine, _ := newTestEngine(func(req genai.CompletionRequest) (string, error) {
		if strings.Contains(req.System, "収益性の監査官") {
			return `{"is_profitable": false, "reason": "市場が狭すぎる"}`, nil
		}
		return respond(req)
	})
	state := &models.InterviewState{
		UserRequest:             "サマリー",
		Interviews:              []models.Interview{{Persona: models.Persona{Name: "田中太郎"}, Question: "q", Answer: "a"}},
		IsInformationSufficient: true,
	}

	responses, _, state := drive(t, engine, models.NodeGenerateRequirements, state, "")

	var docTypes []models.DocumentType
	for _, r := range responses {
		if doc, ok := r.(models.CompletedDocument); ok {
			docTypes = append(docTypes, doc.DocumentType)
		}
	}
	assert.Equal(t, []models.DocumentType{
		models.DocumentRequirements,
		models.DocumentAnalysis,
		models.DocumentProfitabilityAssessment,
		models.DocumentFeasibilityAssessment,
		models.DocumentLegalAssessment,
		models.DocumentRequirements,
		models.DocumentPitch,
	}, docTypes, "failed gate must produce a revised requirements document before the pitch")

	assert.Equal(t, "# 改訂版要件定義書", state.ProfessionalRequirementsDoc)
	assert.Equal(t, "改訂後サマリー", state.UserRequest)
	assert.True(t, state.AugmentPersonas)
	assert.Equal(t, "🚀 企画書本文", state.PitchDocument)
}
