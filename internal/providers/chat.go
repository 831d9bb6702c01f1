package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"inkwell/internal/models"
)

const defaultChatTimeout = 120 * time.Second

// OpenAI-compatible chat endpoints per provider. All four vendors expose a
// compatibility surface for /chat/completions.
var chatBaseURLs = map[string]string{
	"openai":    "https://api.openai.com/v1",
	"anthropic": "https://api.anthropic.com/v1",
	"google":    "https://generativelanguage.googleapis.com/v1beta/openai",
	"xai":       "https://api.x.ai/v1",
}

// CompletionRequest is a single text-generation call.
type CompletionRequest struct {
	Provider string
	Model    string
	Secret   string
	System   string
	Prompt   string
}

// CompletionResult carries the generated text and the provider-reported
// token usage.
type CompletionResult struct {
	Content string
	Usage   models.TokenUsage
}

// ChatCompleter sends chat completion requests to OpenAI-compatible
// endpoints.
type ChatCompleter struct {
	client   *http.Client
	baseURLs map[string]string
}

// NewChatCompleter creates a chat completer. A non-empty openAIBaseURL
// overrides the OpenAI endpoint, which is useful for tests and proxies.
// A timeout <= 0 selects the default.
func NewChatCompleter(openAIBaseURL string, timeout time.Duration) *ChatCompleter {
	baseURLs := make(map[string]string, len(chatBaseURLs))
	for provider, url := range chatBaseURLs {
		baseURLs[provider] = url
	}
	if openAIBaseURL != "" {
		baseURLs["openai"] = openAIBaseURL
	}
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}

	return &ChatCompleter{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURLs: baseURLs,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens        int `json:"prompt_tokens"`
		CompletionTokens    int `json:"completion_tokens"`
		PromptTokensDetails struct {
			CachedTokens int `json:"cached_tokens"`
		} `json:"prompt_tokens_details"`
	} `json:"usage"`
}

// Complete sends a chat completion request and returns the first choice.
func (c *ChatCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	baseURL, ok := c.baseURLs[req.Provider]
	if !ok {
		return nil, &ProviderError{
			Provider:   req.Provider,
			StatusCode: http.StatusBadRequest,
			Message:    "unsupported provider: " + req.Provider,
		}
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Secret)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider:   req.Provider,
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(respBody, "chat completion request failed"),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil || len(chatResp.Choices) == 0 {
		return nil, &ProviderError{
			Provider:   req.Provider,
			StatusCode: resp.StatusCode,
			Message:    "provider returned no completion",
		}
	}

	return &CompletionResult{
		Content: chatResp.Choices[0].Message.Content,
		Usage: models.TokenUsage{
			InputTokens:       chatResp.Usage.PromptTokens,
			OutputTokens:      chatResp.Usage.CompletionTokens,
			CachedInputTokens: chatResp.Usage.PromptTokensDetails.CachedTokens,
		},
	}, nil
}
