package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
	"github.com/TobiSchelling/SmartGrade/internal/knowledge"
)

func TestBuildWithoutKnowledgeOmitsBlock(t *testing.T) {
	p := Build(homework.SubjectMath, nil)

	assert.True(t, strings.HasPrefix(p, "你是一位资深的数学阅卷老师。"))
	assert.NotContains(t, p, KnowledgeHeading)
	assert.NotContains(t, p, "###")
}

func TestBuildListsEntriesInOrder(t *testing.T) {
	p := Build(homework.SubjectChinese, []knowledge.Item{
		{Title: "常见修辞手法解析", Content: "比喻、拟人"},
		{Title: "古诗文鉴赏方法", Content: "意象分析"},
	})

	assert.Contains(t, p, "资深的语文阅卷老师")
	assert.Contains(t, p, KnowledgeHeading+"\n### 常见修辞手法解析\n比喻、拟人\n### 古诗文鉴赏方法\n意象分析\n")
	assert.Less(t, strings.Index(p, KnowledgeHeading), strings.Index(p, "【重要要求】"))
}

func TestBuildTemplateSectionsInOrder(t *testing.T) {
	p := Build(homework.SubjectEnglish, nil)

	score := strings.Index(p, "# 评分: [0-100]")
	diag := strings.Index(p, "## ❌ 错误诊断")
	fix := strings.Index(p, "## ✅ 正确解析")
	assert.True(t, score >= 0 && diag > score && fix > diag, "sections out of order")
	assert.Contains(t, p, "无明显错误")
	assert.Contains(t, p, "LaTeX")
	assert.Contains(t, p, "**粗体**")
}

func TestBuildEndsWithFeedbackHeading(t *testing.T) {
	p := Build(homework.SubjectMath, []knowledge.Item{{Title: "t", Content: "c"}})

	fix := strings.Index(p, "## ✅ 正确解析")
	feedback := strings.Index(p, "## 💡 评语")
	require.GreaterOrEqual(t, fix, 0)
	assert.Greater(t, feedback, fix)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(p), "## 💡 评语"))
}

func TestBuildIsDeterministic(t *testing.T) {
	ranked := []knowledge.Item{{Title: "t", Content: "c"}}
	assert.Equal(t, Build(homework.SubjectMath, ranked), Build(homework.SubjectMath, ranked))
}
