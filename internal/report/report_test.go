package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
)

func sampleItems() []homework.Item {
	return []homework.Item{
		{
			Name:    "hw1.jpg",
			Subject: homework.SubjectMath,
			Status:  homework.StatusCompleted,
			Result: &homework.AnalysisResult{
				OCRText:    "2+2=5",
				Correction: "# 评分: 40\n## 错误诊断\n**2+2应为4**\n## 💡 评语\n再仔细一点。",
			},
		},
		{
			Name:         "hw2.jpg",
			Subject:      homework.SubjectMath,
			Status:       homework.StatusError,
			ErrorMessage: "OCR returned 429: rate limited",
		},
		{
			Name:    "hw3.jpg",
			Subject: homework.SubjectMath,
			Status:  homework.StatusCompleted,
			Result:  &homework.AnalysisResult{OCRText: "x", Correction: "## ✅ 正确解析\n无分数"},
		},
	}
}

func TestCards(t *testing.T) {
	cards := Cards(sampleItems())
	require.Len(t, cards, 3)

	assert.True(t, cards[0].HasScore)
	assert.Equal(t, "40", cards[0].Score)
	assert.Equal(t, "再仔细一点。", cards[0].Feedback)

	assert.Equal(t, "OCR returned 429: rate limited", cards[1].Error)
	assert.False(t, cards[1].HasScore)

	assert.False(t, cards[2].HasScore)
}

func TestRender(t *testing.T) {
	stats := homework.NewStatistics()
	stats.FilesProcessed = 2
	stats.TotalTokensUsed = 42
	stats.SubjectDistribution[homework.SubjectMath] = 2

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, homework.SubjectMath, sampleItems(), stats))
	out := buf.String()

	assert.Contains(t, out, "数学 · 作业批改报告")
	assert.Contains(t, out, `<div class="score">40<small> 分</small></div>`)
	assert.Contains(t, out, "<strong>2+2应为4</strong>")
	assert.Contains(t, out, "rate limited")
	assert.Contains(t, out, "<strong>42</strong>")
	assert.Equal(t, 1, strings.Count(out, `class="score"`))
}

func TestRenderEscapesOCRText(t *testing.T) {
	items := []homework.Item{{
		Name:   "x",
		Status: homework.StatusCompleted,
		Result: &homework.AnalysisResult{OCRText: "<script>alert(1)</script>", Correction: "ok"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, homework.SubjectEnglish, items, homework.NewStatistics()))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, homework.SubjectChinese, nil, homework.NewStatistics()))
	assert.Contains(t, buf.String(), "暂无作业")
}
