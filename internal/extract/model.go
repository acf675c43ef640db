package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// defaultBaseURL is the OpenRouter chat-completions endpoint.
	defaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	// requestTimeout bounds a single model call.
	requestTimeout = 30 * time.Second
	// maxAnswerTokens bounds the model output; the answer is a single short name.
	maxAnswerTokens = 60
)

// extractionPrompt is the fixed instruction sent with every request.
const extractionPrompt = `Extract the application name from this developer request: %q

Respond with only the name in lowercase letters, digits and hyphens, nothing else.
Example: for "I need to deploy my new NodeJS service called inventory-api" respond with "inventory-api".`

// ModelStrategy asks a hosted model for the application name. It implements
// Strategy; callers treat every failure as a soft miss.
type ModelStrategy struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewModelStrategy constructs a ModelStrategy for the given OpenRouter
// credentials and model identifier.
func NewModelStrategy(apiKey, model string) *ModelStrategy {
	return &ModelStrategy{
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Extract sends the fixed extraction prompt and returns the raw model answer.
func (s *ModelStrategy) Extract(ctx context.Context, request string) (string, error) {
	payload := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, request)},
		},
		Temperature: 0.1,
		MaxTokens:   maxAnswerTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode model request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model call returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("model response contained no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
