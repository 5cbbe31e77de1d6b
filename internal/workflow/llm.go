package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SoloForge/ServiceBuilder/internal/genai"
	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// generateRequestSummary condenses the intake answers and interview log into
// a one-paragraph project summary.
func (e *Engine) generateRequestSummary(ctx context.Context, problem, persona, solution, interviewLog string) string {
	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは優秀なプロジェクトマネージャーです。初期入力と質疑応答ログを読み解き、開発チームが参照するためのプロジェクトサマリーを1段落で簡潔に作成してください。出力は必ず日本語のみで記述すること。",
		User: fmt.Sprintf(`## 元情報
- **課題:** %s
- **ターゲットペルソナ:** %s
- **解決策:** %s

## ヒアリングログ
%s

## プロジェクトサマリー:`, problem, persona, solution, interviewLog),
		Temperature: 0.7,
	})
	if err != nil {
		slog.Error("Engine.generateRequestSummary: completion failed", "error", err)
		return "エラーが発生しました。"
	}
	return content
}

// generateDetailedQuestions produces up to nine yes/no alignment questions
// derived from the intake answers.
func (e *Engine) generateDetailedQuestions(ctx context.Context, problem, persona, solution string) []string {
	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは初期入力（課題・ペルソナ・解決策）の解釈と後続アウトプットの齟齬を最小化するための『方向性アライメント質問票』を作る専門家です。特定の業界・媒体・UI・プロダクト名に依存しない汎用の質問にすること。入力（課題/ペルソナ/解決策）に含まれる用語から曖昧または広範な語を抽出し一般化して定義づけを求める。回答は短時間で可能なよう選択中心＋最小限の自由記入、必要なら『わからない』を用意する。出力は必ず日本語のみで記述すること。",
		User: fmt.Sprintf(`【前提（ユーザーの初期入力）】
- 課題: %s
- ペルソナ: %s
- 解決策の仮説: %s

以下の9つの質問を生成してください。それぞれ簡潔で明確な質問にし、「はい/いいえ/わからない」で回答できるような形式にしてください：

1. AIの理解確認に関する質問（理解が正しいか）
2. 主要ゴールに関する質問（価値検証/獲得/効率化/満足度/収益のうちどれが最重要か）
3. スコープInに関する質問（何を含めるか）
4. スコープOutに関する質問（何を含めないか）
5. 優先順位に関する質問（品質 vs 速度）
6. 完成の定義に関する質問（どうなれば完成か）
7. 制約に関する質問（必須条件や禁止事項）
8. 入出力に関する質問（何を入力して何を出力するか）
9. リスクに関する質問（懸念点や注意すべき点）

各質問を1行で、番号なしで出力してください。`, problem, persona, solution),
		Temperature: 0.7,
	})
	if err != nil {
		slog.Error("Engine.generateDetailedQuestions: completion failed", "error", err)
		return nil
	}
	questions := nonEmptyLines(content)
	if len(questions) > 9 {
		questions = questions[:9]
	}
	return questions
}

// generatePersonas asks the model for five candidate personas. An error
// means the API call itself failed; a nil error with an empty slice means
// the response could not be parsed.
func (e *Engine) generatePersonas(ctx context.Context, userRequest string) ([]models.Persona, error) {
	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたはユーザーインタビュー用のペルソナ生成の専門家です。プロジェクトサマリーに基づき、適合する候補ペルソナを5名作成してください。人物属性の重複は避けること。出力は必ず日本語のみで記述し、日本名を用いること。JSONフォーマットで返してください。",
		User: fmt.Sprintf(`プロジェクトサマリー: %s

以下のフォーマットで5名のペルソナを返してください：
{
  "personas": [
    {
      "name": "田中太郎",
      "background": "30代前半のエンジニア。副業でアプリ開発を行っている。"
    }
  ]
}`, userRequest),
		Temperature: 0.8,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Personas []models.Persona `json:"personas"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(stripJSONFences(content))), &result); err != nil {
		slog.Error("Engine.generatePersonas: failed to parse personas", "error", err, "response_length", len(content))
		return nil, nil
	}
	return result.Personas, nil
}

// conductInterviews generates three questions per persona and a simulated
// answer for each, sequentially so the transcript order is stable.
func (e *Engine) conductInterviews(ctx context.Context, userRequest string, personas []models.Persona) []models.Interview {
	var interviews []models.Interview
	for _, persona := range personas {
		questions := e.generateInterviewQuestions(ctx, userRequest, persona)
		for _, question := range questions {
			answer := e.generateInterviewAnswer(ctx, persona, question)
			interviews = append(interviews, models.Interview{
				Persona:  persona,
				Question: question,
				Answer:   answer,
			})
		}
	}
	return interviews
}

func (e *Engine) generateInterviewQuestions(ctx context.Context, userRequest string, persona models.Persona) []string {
	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたはUXリサーチの質問設計の専門家です。各ペルソナの文脈から、真意を引き出す具体的な質問を3つ作成してください。回答に時間がかからない粒度、かつ合意形成に役立つものに限定。出力は必ず日本語のみで記述すること。",
		User: fmt.Sprintf(`プロジェクトサマリー: %s

対象ペルソナ: %s - %s

箇条書き3問で返してください。`, userRequest, persona.Name, persona.Background),
		Temperature: 0.7,
	})
	if err != nil {
		slog.Error("Engine.generateInterviewQuestions: completion failed", "persona", persona.Name, "error", err)
		return nil
	}
	questions := nonEmptyLines(content)
	if len(questions) > 3 {
		questions = questions[:3]
	}
	return questions
}

func (e *Engine) generateInterviewAnswer(ctx context.Context, persona models.Persona, question string) string {
	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは以下のペルソナとして回答します。一人称で自然な日本語、2〜3文、具体例を交えること。出力は必ず日本語のみで記述すること。",
		User: fmt.Sprintf(`ペルソナ: %s - %s
質問: %s
回答:`, persona.Name, persona.Background, question),
		Temperature: 0.8,
	})
	if err != nil {
		slog.Error("Engine.generateInterviewAnswer: completion failed", "persona", persona.Name, "error", err)
		return "回答できませんでした。"
	}
	return content
}

// evaluateInformation judges the sufficiency of the interview transcript.
// Any failure produces the insufficient default rather than an error.
func (e *Engine) evaluateInformation(ctx context.Context, userRequest string, interviews []models.Interview) *models.EvaluationResult {
	degraded := &models.EvaluationResult{
		Reason:            "評価に失敗しました",
		IsSufficient:      false,
		Gaps:              []string{},
		FollowupQuestions: []string{},
	}

	var transcript strings.Builder
	for _, i := range interviews {
		fmt.Fprintf(&transcript, "ペルソナ: %s\n質問: %s\n回答: %s\n", i.Persona.Name, i.Question, i.Answer)
	}

	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは包括的な要件文書を作成するための情報の十分性を評価する専門家です。不足がある場合は、何が足りないかと、それを埋めるための追加入力質問を具体的かつ実行可能な形で作成してください。ただし個人開発前提につき、軽微な不足はAIの仮設定で補完可能と判断し、致命的不足のみを不十分とする。出力は必ず日本語のみで記述すること。JSONフォーマットで返してください。",
		User: fmt.Sprintf(`プロジェクトサマリー: %s

インタビュー結果:
%s
以下のフォーマットで評価結果を返してください：
{
  "reason": "判断理由",
  "is_sufficient": true/false,
  "gaps": ["不足項目1", "不足項目2"],
  "followup_questions": ["追加質問1", "追加質問2"]
}`, userRequest, transcript.String()),
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		slog.Error("Engine.evaluateInformation: completion failed", "error", err)
		return degraded
	}

	var result models.EvaluationResult
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &result); err != nil {
		slog.Error("Engine.evaluateInformation: failed to parse evaluation", "error", err)
		return degraded
	}
	if result.Gaps == nil {
		result.Gaps = []string{}
	}
	if result.FollowupQuestions == nil {
		result.FollowupQuestions = []string{}
	}
	return &result
}

// convertToYesNoQuestions rewrites free-text followup questions into yes/no
// form. On failure the original questions are kept so the round still runs.
func (e *Engine) convertToYesNoQuestions(ctx context.Context, questions []string) []string {
	var list strings.Builder
	for _, q := range questions {
		fmt.Fprintf(&list, "- %s\n", q)
	}

	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは質問設計の専門家です。与えられた自由記述のフォローアップ質問群を、ユーザーが「はい／いいえ」で答えられる形式に短文化してください。各質問は1文・日本語・肯定がデフォルト仮説になるように書き換える。",
		User: fmt.Sprintf(`自由記述の質問群:
%s
変換後: 箇条書きで出力。`, strings.TrimRight(list.String(), "\n")),
		Temperature: 0.3,
	})
	if err != nil {
		slog.Error("Engine.convertToYesNoQuestions: completion failed", "error", err)
		return questions
	}
	converted := nonEmptyLines(content)
	if len(converted) == 0 {
		return questions
	}
	return converted
}

// generateAssumptionBackfill fills the evaluation gaps with model-generated
// working assumptions.
func (e *Engine) generateAssumptionBackfill(ctx context.Context, userRequest string, interviews []models.Interview, gaps []string) string {
	var notes strings.Builder
	for _, i := range interviews {
		fmt.Fprintf(&notes, "- %s: %s\n", i.Persona.Name, i.Answer)
	}
	var gapList strings.Builder
	for _, g := range gaps {
		fmt.Fprintf(&gapList, "- %s\n", g)
	}

	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは個人開発のPMです。以下のプロジェクトサマリー/インタビュー/不足項目に基づき、不足を合理的な仮設定で自動補完します。各補完は「決定値（1行）／根拠（1行）／再確認方法（1行）」で短く。日本語で、保守的かつ実装可能な現実解を優先。",
		User: fmt.Sprintf(`## プロジェクトサマリー
%s

## インタビューメモ
%s
## 不足項目
%s
## 出力
- 項目名: 決定値 / 根拠 / 再確認方法（各1行）を箇条書きで。`, userRequest, notes.String(), gapList.String()),
		Temperature: 0.5,
	})
	if err != nil {
		slog.Error("Engine.generateAssumptionBackfill: completion failed", "error", err)
		return "自動補完に失敗しました。"
	}
	return content
}

// generateProfessionalRequirements writes the integrated Lean+Tech
// requirements document.
func (e *Engine) generateProfessionalRequirements(ctx context.Context, userRequest string, interviews []models.Interview) string {
	var transcript strings.Builder
	for _, i := range interviews {
		fmt.Fprintf(&transcript, "ペルソナ: %s\n質問: %s\n回答: %s\n", i.Persona.Name, i.Question, i.Answer)
	}

	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは、個人開発者が単独で着手・運用できるレベルの統合要件定義書（Lean＋Tech）を作成する、経験豊富なプロダクトマネージャー兼システムアナリストです。ビジネス側（Lean BRD）と開発側（Tech Spec）を1つのドキュメントに統合し、空欄を作らず仮説で埋め、実行手順に落とせる粒度で日本語のみで記述してください。",
		User: fmt.Sprintf(`プロジェクトサマリー: %s

インタビュー詳細:
%s
以下のフォーマットで統合要件定義書を作成してください：

# 📝 統合要件定義書（個人開発向け：Lean＋Tech）

## A. ビジネス（Lean BRD）
### A-1. プロジェクトカード
### A-2. 課題と解く理由（Top3）
### A-3. 主要ユーザーとジョブ
### A-4. 価値提案と差別化
### A-5. 収益モデルと価格（試算付き）
### A-6. 獲得チャネルと最初の10人
### A-7. 成功指標（North Star & KPI）
### A-8. スコープと優先順位（MVP前提）
### A-9. リスク・前提・法務
### A-10. コスト見積とランレート（概算）

## B. 開発（Tech Spec）
### B-1. MVPユーザーストーリー（3〜5件）
### B-2. 画面と主要フロー
### B-3. データモデル（簡易ER）
### B-4. API / 外部連携
### B-5. 非機能要件（個人開発現実解）
### B-6. 運用・サポート
### B-7. 開発ロードマップ（12週目安）
### B-8. 用語集（曖昧語の定義）`, userRequest, transcript.String()),
		Temperature: 0.5,
		MaxTokens:   4000,
	})
	if err != nil {
		slog.Error("Engine.generateProfessionalRequirements: completion failed", "error", err)
		return "要件定義書の生成に失敗しました。"
	}
	return content
}

// analyzeExternalEnvironment produces the five-section environment analysis.
// Parse and API failures yield distinct placeholder texts; neither is an
// error to the caller.
func (e *Engine) analyzeExternalEnvironment(ctx context.Context, requirements string) *models.ExternalEnvironmentAnalysis {
	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは外資系戦略コンサルのシニア。個人開発の実行可否判断に足る精度で外部環境を分析する。3C/PESTに加え、JTBD・市場規模推定・ポーターの5フォース・規制/規約マップ・GTM・ユニットエコノミクス・技術実現性・差別化/モート・主要リスク＆対策・シナリオを含め、不足情報は明示的な仮定で補完し、数値はレンジと算出式を示す。出力は日本語、Markdownで簡潔に。JSONフォーマットで返してください。",
		User: fmt.Sprintf(`統合要件定義書: %s

以下のフォーマットで外部環境分析を返してください：
{
  "customer_analysis": "市場・顧客分析の内容",
  "competitor_analysis": "競合分析の内容",
  "company_analysis": "自社分析の内容",
  "pest_analysis": "PEST分析の内容",
  "summary_and_strategy": "要約と戦略的提言の内容"
}`, requirements),
		Temperature: 0.3,
		MaxTokens:   3000,
		JSONMode:    true,
	})
	if err != nil {
		slog.Error("Engine.analyzeExternalEnvironment: completion failed", "error", err)
		return degradedAnalysis("分析に失敗しました（API呼び出しエラー）")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &raw); err != nil {
		slog.Error("Engine.analyzeExternalEnvironment: failed to parse analysis", "error", err, "response_length", len(content))
		return degradedAnalysis("分析に失敗しました（JSON解析エラー）")
	}

	// The model occasionally nests objects where strings were asked for.
	return &models.ExternalEnvironmentAnalysis{
		CustomerAnalysis:   coerceString(raw["customer_analysis"]),
		CompetitorAnalysis: coerceString(raw["competitor_analysis"]),
		CompanyAnalysis:    coerceString(raw["company_analysis"]),
		PestAnalysis:       coerceString(raw["pest_analysis"]),
		SummaryAndStrategy: coerceString(raw["summary_and_strategy"]),
	}
}

func degradedAnalysis(message string) *models.ExternalEnvironmentAnalysis {
	return &models.ExternalEnvironmentAnalysis{
		CustomerAnalysis:   message,
		CompetitorAnalysis: message,
		CompanyAnalysis:    message,
		PestAnalysis:       message,
		SummaryAndStrategy: message,
	}
}

func formatAnalysisContext(analysis *models.ExternalEnvironmentAnalysis) string {
	return fmt.Sprintf(`- 顧客: %s
- 競合: %s
- 自社: %s
- PEST: %s
- 要約: %s`,
		analysis.CustomerAnalysis, analysis.CompetitorAnalysis, analysis.CompanyAnalysis,
		analysis.PestAnalysis, analysis.SummaryAndStrategy)
}

func (e *Engine) assessProfitability(ctx context.Context, requirements string, analysis *models.ExternalEnvironmentAnalysis) *models.ProfitabilityAssessment {
	degraded := &models.ProfitabilityAssessment{IsProfitable: false, Reason: "判定に失敗しました"}

	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは収益性の監査官。与えられた要件定義書と外部環境分析から、個人開発が継続的に黒字化できる見込みがあるかを判定する。価格戦略、ARPU、CAC、粗利、回収期間、チャーン、チャネルの現実性を短く吟味。出力は必ず日本語のみで記述すること。JSONフォーマットで返してください。",
		User: fmt.Sprintf(`要件定義書: %s

外部環境分析:
%s

以下のフォーマットで収益性判定を返してください：
{
  "is_profitable": true/false,
  "reason": "判定理由"
}`, requirements, formatAnalysisContext(analysis)),
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		slog.Error("Engine.assessProfitability: completion failed", "error", err)
		return degraded
	}

	var result models.ProfitabilityAssessment
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &result); err != nil {
		slog.Error("Engine.assessProfitability: failed to parse assessment", "error", err)
		return degraded
	}
	if result.Reason == "" {
		result.Reason = "判定に失敗しました"
	}
	return &result
}

func (e *Engine) assessFeasibility(ctx context.Context, requirements string, analysis *models.ExternalEnvironmentAnalysis) *models.FeasibilityAssessment {
	degraded := &models.FeasibilityAssessment{IsFeasible: false, Reason: "判定に失敗しました"}

	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは実現可能性の監査官。与えられた要件定義書と外部環境分析から、個人が負債なく現実的な工数・コスト・技術難易度で実装・運用できるかを判定する。MVPの範囲、スキル前提、推論コスト/遅延、運用負荷、依存外部APIの制約などを簡潔に評価。出力は必ず日本語のみで記述すること。JSONフォーマットで返してください。",
		User: fmt.Sprintf(`要件定義書: %s

外部環境分析:
%s

以下のフォーマットで実現性判定を返してください：
{
  "is_feasible": true/false,
  "reason": "判定理由"
}`, requirements, formatAnalysisContext(analysis)),
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		slog.Error("Engine.assessFeasibility: completion failed", "error", err)
		return degraded
	}

	var result models.FeasibilityAssessment
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &result); err != nil {
		slog.Error("Engine.assessFeasibility: failed to parse assessment", "error", err)
		return degraded
	}
	if result.Reason == "" {
		result.Reason = "判定に失敗しました"
	}
	return &result
}

func (e *Engine) assessLegal(ctx context.Context, requirements string, analysis *models.ExternalEnvironmentAnalysis) *models.LegalAssessment {
	degraded := &models.LegalAssessment{IsCompliant: false, Reason: "判定に失敗しました"}

	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは法務・コンプライアンス監査官。与えられた要件定義書と外部環境分析から、著作権・商標・プラットフォーム規約・個人情報/プライバシー・表示義務・年齢制限などの観点でプロダクトが適合しているかを判定する。重大違反の恐れがあればFalse。出力は必ず日本語のみで記述すること。JSONフォーマットで返してください。",
		User: fmt.Sprintf(`要件定義書: %s

外部環境分析:
%s

以下のフォーマットで法務判定を返してください：
{
  "is_compliant": true/false,
  "reason": "判定理由"
}`, requirements, formatAnalysisContext(analysis)),
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		slog.Error("Engine.assessLegal: completion failed", "error", err)
		return degraded
	}

	var result models.LegalAssessment
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &result); err != nil {
		slog.Error("Engine.assessLegal: failed to parse assessment", "error", err)
		return degraded
	}
	if result.Reason == "" {
		result.Reason = "判定に失敗しました"
	}
	return &result
}

// improveRequirements revises the requirements document against the failed
// assessment reasons.
func (e *Engine) improveRequirements(ctx context.Context, requirements string, analysis *models.ExternalEnvironmentAnalysis, badReasons []string) string {
	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたはシニアPMです。以下の材料（要件定義書、外部環境、評価のNG理由）を受け、個人開発で現実的に勝てる形へ要件定義書を改訂します。改訂方針：MVPの絞り込み・差別化の明確化・収益性の改善・実現性の向上・法務の適合のいずれか。元の良さは保持しつつ、危険な仮定は明確に変更。出力は必ず日本語のみで記述すること。Markdownで完結な改訂版を返してください。",
		User: fmt.Sprintf(`## 旧 要件定義書
%s

## 外部環境の要点
%s

## 評価NG理由
%s

## 出力: 改訂版の要件定義書（Markdown）`, requirements, formatAnalysisContext(analysis), strings.Join(badReasons, "\n")),
		Temperature: 0.5,
		MaxTokens:   4000,
	})
	if err != nil {
		slog.Error("Engine.improveRequirements: completion failed", "error", err)
		return "改訂に失敗しました。"
	}
	return content
}

// generateSummaryFromRequirements regenerates the one-paragraph project
// summary after a revision.
func (e *Engine) generateSummaryFromRequirements(ctx context.Context, requirements string) string {
	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは編集者です。与えられた要件定義書から、開発チーム向けに1段落の要約を作成します。トーンは中立・簡潔。固有名の羅列を避け、目的・主要なユーザー価値・MVPスコープを明示する。出力は必ず日本語のみで記述すること。",
		User: fmt.Sprintf(`要件定義書（抜粋可）:
%s

---
1段落サマリー:`, requirements),
		Temperature: 0.3,
	})
	if err != nil {
		slog.Error("Engine.generateSummaryFromRequirements: completion failed", "error", err)
		return "サマリー生成に失敗しました。"
	}
	return content
}

// generatePitch writes the final pitch document.
func (e *Engine) generatePitch(ctx context.Context, userRequest string, interviews []models.Interview) string {
	var opinions strings.Builder
	for _, i := range interviews {
		fmt.Fprintf(&opinions, "ペルソナ「%s」の意見: %s\n", i.Persona.Name, i.Answer)
	}

	content, err := e.genAIClient.Complete(ctx, genai.CompletionRequest{
		System: "あなたは、提示された情報を基に、大学生向けの魅力的なプロジェクト企画書（ピッチ資料）を作成する学生起業家です。専門用語を避け、読者が共感しワクワクする文章を作成してください。出力は必ず日本語のみで記述すること。",
		User: fmt.Sprintf(`プロジェクトサマリー: %s

インタビュー詳細:
%s
以下のフォーマットで魅力的なプロジェクト企画書を作成してください：

# 🚀 プロジェクト企画書: [ここにキャッチーなアプリ名を考案]

## 😵「こんなことで困ってない？」 - 解決したい課題
> [学生向けの言葉で課題を表現]

## ✨「こうなったら最高じゃない？」 - 僕たちの解決策
> [ベネフィットを感情的に描写]

## 🎯 ターゲットユーザー
- **こんな人にピッタリ:** [一行で表現]

## 🛠️ このアプリでできること (主要機能)
- **[主要機能1]:** [説明]
- **[主要機能2]:** [説明]
- **[主要機能3]:** [説明]

## 💰 ビジネス的な話（ちょっとだけ）
- [マネタイズの方針]

## 🤝 一緒に作りませんか？
- [参加や応援の呼びかけ]`, userRequest, opinions.String()),
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		slog.Error("Engine.generatePitch: completion failed", "error", err)
		return "ピッチ生成に失敗しました。"
	}
	return content
}
