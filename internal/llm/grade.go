package llm

import (
	"context"
	"time"
)

// ChatGrader grades text through an OpenAI-compatible chat model.
type ChatGrader struct {
	chatClient
}

// NewChatGrader creates a grading client. The API key is read from the
// environment variable apiKeyEnv.
func NewChatGrader(baseURL, model, apiKeyEnv string, temperature float64, timeout time.Duration) *ChatGrader {
	return &ChatGrader{chatClient: newChatClient("grading", baseURL, model, apiKeyEnv, temperature, timeout)}
}

// GradeText sends the system prompt and the homework text as separate
// messages and returns the first choice.
func (g *ChatGrader) GradeText(ctx context.Context, content, systemPrompt string) (string, error) {
	return g.complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: content},
	})
}
