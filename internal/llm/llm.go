// Package llm talks to the OCR and grading services.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OCR turns a homework image into raw text.
type OCR interface {
	ExtractText(ctx context.Context, img Image) (string, error)
	IsConfigured() bool
}

// Grader grades extracted text against a system prompt.
type Grader interface {
	GradeText(ctx context.Context, content, systemPrompt string) (string, error)
	IsConfigured() bool
}

// ServiceError is a non-2xx answer from a remote service.
type ServiceError struct {
	Service string
	Status  int
	Body    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Body)
}

// TransportError is a request that never produced an HTTP answer.
type TransportError struct {
	Service string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrEmptyImage is returned when an item carries no image bytes.
var ErrEmptyImage = errors.New("image payload is empty")

// Image is an image payload together with its base64 form.
type Image struct {
	Data    []byte
	Encoded string
}

// EncodeImage prepares raw bytes for upload.
func EncodeImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	return Image{Data: data, Encoded: base64.StdEncoding.EncodeToString(data)}, nil
}

// DataURI renders the image as an inline JPEG data URI.
func (img Image) DataURI() string {
	return "data:image/jpeg;base64," + img.Encoded
}

// chatClient is a minimal OpenAI-compatible chat-completions client.
type chatClient struct {
	service     string
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	client      *http.Client
}

func newChatClient(service, baseURL, model, apiKeyEnv string, temperature float64, timeout time.Duration) chatClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return chatClient{
		service:     service,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		APIKey:      os.Getenv(apiKeyEnv),
		Temperature: temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

// IsConfigured checks if the API key is set.
func (c *chatClient) IsConfigured() bool {
	return c.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func (c *chatClient) complete(ctx context.Context, messages []chatMessage) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("%s API key not configured", c.service)
	}

	body := map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": c.Temperature,
		"stream":      false,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &TransportError{Service: c.service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &ServiceError{Service: c.service, Status: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding %s response: %w", c.service, err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", c.service)
	}

	zap.S().Debugw("chat completion done",
		"service", c.service, "model", c.Model, "elapsed", time.Since(start))
	return result.Choices[0].Message.Content, nil
}
