package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moriyak/kessanlens/pkg/models"
)

// AnalysisInput carries everything the contrarian analysis prompt
// needs about one company.
type AnalysisInput struct {
	CompanyCode string
	KessanText  string              // latest earnings report text, may be empty
	Trend       []models.TrendPoint // past performance, oldest first
}

const (
	maxAttempts = 3

	missingKessan = "（決算短信テキストは取得できませんでした）"
	missingTrend  = "（過去業績データは取得できませんでした）"
)

// Analyze runs the contrarian analysis, retrying quota errors with
// exponential backoff.
func Analyze(ctx context.Context, client *GeminiClient, input AnalysisInput) (string, error) {
	prompt := BuildAnalysisPrompt(input)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		text, err := client.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimit) || attempt == maxAttempts-1 {
			return "", err
		}
		wait := time.Duration(1<<(attempt+1)) * time.Second // 2s, 4s
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

// BuildAnalysisPrompt renders the contrarian analysis prompt. The
// three numbered sections are mandatory parts of the answer format and
// the verdict must open with its star count.
func BuildAnalysisPrompt(input AnalysisInput) string {
	kessan := strings.TrimSpace(input.KessanText)
	if len([]rune(kessan)) < 50 {
		kessan = missingKessan
	}
	trend := renderTrend(input.Trend)

	var b strings.Builder
	fmt.Fprintf(&b, `あなたは、日本の株式市場に精通したプロのファンダメンタルアナリストです。
以下の情報を基に、証券コード %s の決算内容を「逆張り投資」の観点から詳細に分析してください。

## 分析に使うデータ

### 【最新の決算短信テキスト】
%s

### 【過去の業績トレンドデータ】
%s

## 分析してほしいこと（必ず以下の3項目すべてに回答してください）

### ① 悪材料の特定
- なぜPTSや翌日の寄付きで売られるような「悪い数字」が出たのか？
- その要因は **一過性** のものか、それとも **構造的な問題** か？
- 具体的な数字やファクトを引用して説明してください。

### ② 隠れた好材料と過去比較
- 過去の業績トレンドと比較して、本業の成長性や収益の中身は実は健全ではないか？
- 市場が見落としている可能性のあるポジティブな要素は何か？
- セグメント別や利益率の変化など、表面的な数字には現れていない改善点はあるか？

### ③ 投資妙味の判定（5段階評価）
以下の5段階で「逆張り買いチャンス」としての評価を行ってください：
- ⭐⭐⭐⭐⭐ : 絶好の買い場（パニック売りは過剰反応）
- ⭐⭐⭐⭐ : 良い買い場（悪材料は限定的）
- ⭐⭐⭐ : 中立（好悪材料が拮抗）
- ⭐⭐ : 注意が必要（構造的な問題の可能性）
- ⭐ : 見送り推奨（深刻な悪材料）

**重要**: 評価の最初に、選んだ星の数を明記してください（例：「⭐⭐⭐⭐ 4/5」）。

各項目について、根拠となる数字を挙げながら、初心者にも分かりやすい日本語で説明してください。
`, input.CompanyCode, kessan, trend)
	return b.String()
}

// renderTrend formats trend points as an aligned text table, yen
// values in millions.
func renderTrend(points []models.TrendPoint) string {
	if len(points) == 0 {
		return missingTrend
	}
	var b strings.Builder
	b.WriteString("期間終了 | 書類 | 売上高(百万円) | 営業利益(百万円) | 経常利益(百万円) | 純利益(百万円)\n")
	for _, p := range points {
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s\n",
			p.PeriodEnd, p.Description,
			millionCell(p.Financials.Sales),
			millionCell(p.Financials.OperatingIncome),
			millionCell(p.Financials.OrdinaryIncome),
			millionCell(p.Financials.NetIncome),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func millionCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v/1e6)
}
