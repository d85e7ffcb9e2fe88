// Package prompt assembles the grading instruction sent with each item.
package prompt

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
	"github.com/TobiSchelling/SmartGrade/internal/knowledge"
)

const gradingPrompt = `你是一位资深的%s阅卷老师。
请根据以下OCR识别出的学生作业内容进行批改。
%s
【重要要求】
1. **速度优先**：分析要言简意赅，直击要点，不要有废话。
2. **格式规范**：必须使用标准的 Markdown 语法。数学公式请使用 LaTeX 格式（例如 $E=mc^2$）。
3. **强调重点**：错误的地方请加粗 (**粗体**)，并说明原因。

请严格按照以下结构输出：

# 评分: [0-100]

## ❌ 错误诊断
*(如果无错误，直接写“无明显错误”。如果有错，请列出并加粗关键错误点)*

## ✅ 正确解析
*(简明扼要的解题思路，支持公式)*

## 💡 评语
`

// KnowledgeHeading introduces the reference block.
const KnowledgeHeading = "## 参考知识库内容"

// Build returns the system prompt for subject. The reference block is left
// out entirely when ranked is empty.
func Build(subject homework.Subject, ranked []knowledge.Item) string {
	return fmt.Sprintf(gradingPrompt, subject.Label(), knowledgeBlock(ranked))
}

func knowledgeBlock(ranked []knowledge.Item) string {
	if len(ranked) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ranked))
	for _, it := range ranked {
		parts = append(parts, fmt.Sprintf("### %s\n%s", it.Title, it.Content))
	}
	return "\n" + KnowledgeHeading + "\n" + strings.Join(parts, "\n") + "\n"
}
