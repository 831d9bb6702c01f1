package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatCompleterTimeout(t *testing.T) {
	assert.Equal(t, defaultChatTimeout, NewChatCompleter("", 0).client.Timeout)
	assert.Equal(t, 5*time.Second, NewChatCompleter("", 5*time.Second).client.Timeout)
}

func TestChatCompleterComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "Write a haiku about autumn.", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": "Leaves drift on cold wind."}}],
			"usage": {
				"prompt_tokens": 25,
				"completion_tokens": 8,
				"prompt_tokens_details": {"cached_tokens": 5}
			}
		}`))
	}))
	defer server.Close()

	completer := NewChatCompleter(server.URL, 0)
	result, err := completer.Complete(context.Background(), CompletionRequest{
		Provider: "openai",
		Model:    "gpt-4o",
		Secret:   "sk-test",
		System:   "You are a poet.",
		Prompt:   "Write a haiku about autumn.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Leaves drift on cold wind.", result.Content)
	assert.Equal(t, 25, result.Usage.InputTokens)
	assert.Equal(t, 8, result.Usage.OutputTokens)
	assert.Equal(t, 5, result.Usage.CachedInputTokens)
}

func TestChatCompleterUnsupportedProvider(t *testing.T) {
	completer := NewChatCompleter("", 0)

	_, err := completer.Complete(context.Background(), CompletionRequest{
		Provider: "deepseek",
		Model:    "deepseek-chat",
	})

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.Contains(t, provErr.Message, "unsupported provider")
}

func TestChatCompleterProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "Rate limit exceeded"}}`))
	}))
	defer server.Close()

	completer := NewChatCompleter(server.URL, 0)
	_, err := completer.Complete(context.Background(), CompletionRequest{
		Provider: "openai",
		Model:    "gpt-4o",
	})

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.Equal(t, "Rate limit exceeded", provErr.Message)
}

func TestChatCompleterEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	completer := NewChatCompleter(server.URL, 0)
	_, err := completer.Complete(context.Background(), CompletionRequest{
		Provider: "openai",
		Model:    "gpt-4o",
	})

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "provider returned no completion", provErr.Message)
}
