package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

// OCRPrompt is the transcription instruction sent with every image.
const OCRPrompt = "请精准识别这张图片中的所有文字，保持原有段落结构。数学公式请尽量转换为LaTeX格式。只输出识别到的文字，不要包含“这张图片写了...”等任何解释性语句。"

// VisionOCR reads images through an OpenAI-compatible vision model.
type VisionOCR struct {
	chatClient
}

// NewVisionOCR creates a vision OCR client. The API key is read from the
// environment variable apiKeyEnv.
func NewVisionOCR(baseURL, model, apiKeyEnv string, temperature float64, timeout time.Duration) *VisionOCR {
	return &VisionOCR{chatClient: newChatClient("OCR", baseURL, model, apiKeyEnv, temperature, timeout)}
}

// ExtractText sends the image with the transcription instruction.
func (o *VisionOCR) ExtractText(ctx context.Context, img Image) (string, error) {
	if img.Encoded == "" {
		return "", ErrEmptyImage
	}
	return o.complete(ctx, []chatMessage{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: OCRPrompt},
			{Type: "image_url", ImageURL: &imageURL{URL: img.DataURI()}},
		},
	}})
}

// GeminiOCR reads images through Google Gemini.
type GeminiOCR struct {
	Model       string
	APIKey      string
	Temperature float32
	timeout     time.Duration
	client      *genai.Client
}

// NewGeminiOCR creates a Gemini OCR client. The SDK client is created lazily
// on the first call so an unconfigured provider costs nothing.
func NewGeminiOCR(model, apiKeyEnv string, temperature float64, timeout time.Duration) *GeminiOCR {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiOCR{
		Model:       model,
		APIKey:      os.Getenv(apiKeyEnv),
		Temperature: float32(temperature),
		timeout:     timeout,
	}
}

// IsConfigured checks if the API key is set.
func (g *GeminiOCR) IsConfigured() bool {
	return g.APIKey != ""
}

// ExtractText sends the image inline with the transcription instruction.
func (g *GeminiOCR) ExtractText(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}
	if g.APIKey == "" {
		return "", fmt.Errorf("Gemini API key not configured")
	}
	if g.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return "", fmt.Errorf("creating Gemini client: %w", err)
		}
		g.client = client
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, "image/jpeg"),
			genai.NewPartFromText(OCRPrompt),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.Model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.Temperature),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &ServiceError{Service: "Gemini", Status: apiErr.Code, Body: apiErr.Message}
		}
		return "", &TransportError{Service: "Gemini", Err: err}
	}
	return strings.TrimSpace(resp.Text()), nil
}

// NewOCR builds the OCR provider named by provider ("zhipu" or "gemini").
func NewOCR(provider, baseURL, model, apiKeyEnv string, temperature float64, timeout time.Duration) (OCR, error) {
	switch strings.ToLower(provider) {
	case "", "zhipu", "openai":
		return NewVisionOCR(baseURL, model, apiKeyEnv, temperature, timeout), nil
	case "gemini":
		return NewGeminiOCR(model, apiKeyEnv, temperature, timeout), nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", provider)
	}
}
