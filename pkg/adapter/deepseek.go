package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekAdapter implements the Adapter interface for DeepSeek models.
// DeepSeek uses an OpenAI-compatible API format.
type DeepSeekAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// deepseekRequest represents the OpenAI-compatible request format.
type deepseekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepseekMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

// deepseekMessage represents a chat message.
type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// deepseekResponse represents the OpenAI-compatible response format.
type deepseekResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewDeepSeekAdapter creates a new DeepSeek adapter.
func NewDeepSeekAdapter(apiKey string) (*DeepSeekAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}

	return &DeepSeekAdapter{
		apiKey:     apiKey,
		baseURL:    deepseekBaseURL,
		httpClient: &http.Client{},
	}, nil
}

// Name returns the adapter identifier.
func (a *DeepSeekAdapter) Name() string {
	return "deepseek"
}

// Models returns the list of supported DeepSeek models.
func (a *DeepSeekAdapter) Models() []string {
	return []string{
		"deepseek-chat",
		"deepseek-reasoner",
	}
}

// Complete sends a prompt to DeepSeek and returns the completion.
func (a *DeepSeekAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	reqBody := deepseekRequest{
		Model: req.Model,
		Messages: []deepseekMessage{
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepseek API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var deepseekResp deepseekResponse
	if err := json.Unmarshal(body, &deepseekResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if deepseekResp.Error != nil {
		return nil, fmt.Errorf("deepseek API error: %s (type: %s, code: %s)",
			deepseekResp.Error.Message, deepseekResp.Error.Type, deepseekResp.Error.Code)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AdapterError{Status: resp.StatusCode, Err: fmt.Errorf("deepseek API returned status %d: %s", resp.StatusCode, string(body))}
	}

	if len(deepseekResp.Choices) == 0 {
		return nil, fmt.Errorf("deepseek returned no choices")
	}

	return &Response{
		Text: deepseekResp.Choices[0].Message.Content,
		Usage: &Usage{
			PromptTokens:     deepseekResp.Usage.PromptTokens,
			CompletionTokens: deepseekResp.Usage.CompletionTokens,
			TotalTokens:      deepseekResp.Usage.TotalTokens,
		},
	}, nil
}
