package workflow

import (
	"fmt"
	"strings"

	"github.com/SoloForge/ServiceBuilder/internal/models"
)

// formatClarificationLog renders the four intake answers as the markdown
// block that seeds the interview log.
func formatClarificationLog(answers map[string]string) string {
	return fmt.Sprintf(`## 収集した情報

### サービス概要
%s

### 想定課題
%s

### ペルソナ
%s

### 想定解決策
%s`, answers["service_overview"], answers["problem"], answers["persona"], answers["solution"])
}

// formatDetailedAnswersLog renders the detailed question round. Unanswered
// questions are marked 未回答.
func formatDetailedAnswersLog(questions []string, answers map[string]string) string {
	var b strings.Builder
	b.WriteString("## 📋 詳細質問と回答\n\n")
	for i, question := range questions {
		answer := answers[fmt.Sprintf("detailed_%d", i)]
		if answer == "" {
			answer = "未回答"
		}
		fmt.Fprintf(&b, "### 質問 %d\n%s\n**回答**: %s\n\n", i+1, question, answer)
	}
	return b.String()
}

func formatPersonas(personas []models.Persona) string {
	parts := make([]string, 0, len(personas))
	for i, p := range personas {
		parts = append(parts, fmt.Sprintf("## %d. %s\n\n**背景:** %s\n", i+1, p.Name, p.Background))
	}
	return strings.Join(parts, "\n")
}

func formatInterviews(interviews []models.Interview) string {
	parts := make([]string, 0, len(interviews))
	for i, iv := range interviews {
		parts = append(parts, fmt.Sprintf("## %d. %sさんへのインタビュー\n\n**質問:** %s\n\n**回答:** %s\n", i+1, iv.Persona.Name, iv.Question, iv.Answer))
	}
	return strings.Join(parts, "\n")
}

func formatAnalysis(analysis *models.ExternalEnvironmentAnalysis) string {
	return fmt.Sprintf(`## 📊 外部環境分析レポート

### 市場・顧客分析
%s

### 競合分析
%s

### 自社分析
%s

### PEST分析
%s

### 要約と戦略的提言
%s`, analysis.CustomerAnalysis, analysis.CompetitorAnalysis, analysis.CompanyAnalysis, analysis.PestAnalysis, analysis.SummaryAndStrategy)
}

func formatProfitability(assessment *models.ProfitabilityAssessment) string {
	status := "❌ 収益化困難"
	if assessment.IsProfitable {
		status = "✅ 収益化可能"
	}
	return fmt.Sprintf("## 💰 収益性評価\n\n### %s\n\n%s", status, assessment.Reason)
}

func formatFeasibility(assessment *models.FeasibilityAssessment) string {
	status := "❌ 実現困難"
	if assessment.IsFeasible {
		status = "✅ 実現可能"
	}
	return fmt.Sprintf("## 🛠️ 実現性評価\n\n### %s\n\n%s", status, assessment.Reason)
}

func formatLegal(assessment *models.LegalAssessment) string {
	status := "⚠️ 法的注意が必要"
	if assessment.IsCompliant {
		status = "✅ 法的問題なし"
	}
	return fmt.Sprintf("## ⚖️ 法的評価\n\n### %s\n\n%s", status, assessment.Reason)
}
