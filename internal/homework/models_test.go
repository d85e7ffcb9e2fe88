package homework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubject(t *testing.T) {
	for in, want := range map[string]Subject{
		"math":     SubjectMath,
		" MATH ":   SubjectMath,
		"数学":       SubjectMath,
		"语文":       SubjectChinese,
		"english":  SubjectEnglish,
		"英语":       SubjectEnglish,
		"chinese":  SubjectChinese,
	} {
		got, err := ParseSubject(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSubject("physics")
	assert.Error(t, err)
}

func TestSubjectLabel(t *testing.T) {
	assert.Equal(t, "数学", SubjectMath.Label())
	assert.Equal(t, "unknown", Subject("unknown").Label())
}

func TestStatusSelectable(t *testing.T) {
	assert.True(t, StatusPending.Selectable())
	assert.True(t, StatusError.Selectable())
	assert.False(t, StatusProcessing.Selectable())
	assert.False(t, StatusCompleted.Selectable())
	assert.False(t, Status("bogus").Valid())
}

func TestNewStatisticsHasEveryBucket(t *testing.T) {
	stats := NewStatistics()
	assert.Len(t, stats.SubjectDistribution, len(Subjects))
	for _, s := range Subjects {
		assert.Zero(t, stats.SubjectDistribution[s])
	}
}

func TestExtractScore(t *testing.T) {
	score, ok := ExtractScore("# 评分: 40\n## 错误诊断\n**2+2应为4**")
	require.True(t, ok)
	assert.Equal(t, "40", score)

	score, ok = ExtractScore("#评分：95")
	require.True(t, ok)
	assert.Equal(t, "95", score)

	_, ok = ExtractScore("## 错误诊断\n无明显错误")
	assert.False(t, ok)
}

func TestExtractFeedback(t *testing.T) {
	text := "# 评分: 80\n## ✅ 正确解析\n步骤正确\n## 💡 评语\n书写工整，继续保持。\n"
	assert.Equal(t, "书写工整，继续保持。", ExtractFeedback(text))
	assert.Empty(t, ExtractFeedback("# 评分: 80"))
}
