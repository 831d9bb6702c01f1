package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIImageProviderTimeout(t *testing.T) {
	assert.Equal(t, defaultImageTimeout, NewOpenAIImageProvider("", 0).client.Timeout)
	assert.Equal(t, 30*time.Second, NewOpenAIImageProvider("", 30*time.Second).client.Timeout)
}

func TestMapOpenAISize(t *testing.T) {
	tests := []struct {
		width, height int
		expected      string
	}{
		{1024, 1024, "1024x1024"},
		{1792, 1024, "1792x1024"},
		{1024, 1792, "1024x1792"},
		{512, 512, "1024x1024"},  // unrecognized falls back to square
		{1920, 1080, "1024x1024"},
		{0, 0, "1024x1024"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, mapOpenAISize(tt.width, tt.height))
	}
}

func TestMapOpenAIStyle(t *testing.T) {
	assert.Equal(t, "vivid", mapOpenAIStyle("vivid"))
	assert.Equal(t, "natural", mapOpenAIStyle("natural"))
	assert.Equal(t, "natural", mapOpenAIStyle("photorealistic"))
	assert.Equal(t, "natural", mapOpenAIStyle(""))
}

func TestOpenAIGenerate(t *testing.T) {
	imageBytes := []byte("fake-png-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dall-e-3", req.Model)
		assert.Equal(t, 1, req.N)
		assert.Equal(t, "1792x1024", req.Size)
		assert.Equal(t, "b64_json", req.ResponseFormat)
		assert.Equal(t, "natural", req.Style)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{
					"b64_json":       base64.StdEncoding.EncodeToString(imageBytes),
					"revised_prompt": "a detailed painting of a lighthouse",
				},
			},
		})
	}))
	defer server.Close()

	p := NewOpenAIImageProvider(server.URL, 0)
	result, err := p.Generate(context.Background(), ImageRequest{
		Prompt: "a lighthouse",
		Model:  "dall-e-3",
		Secret: "sk-test",
		Width:  1792,
		Height: 1024,
		Style:  "sketchy",
	})

	require.NoError(t, err)
	assert.Equal(t, imageBytes, result.Data)
	assert.Equal(t, "image/png", result.ContentType)
	assert.Equal(t, "a detailed painting of a lighthouse", result.RevisedPrompt)
}

func TestOpenAIGenerateProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Your prompt was rejected"},
		})
	}))
	defer server.Close()

	p := NewOpenAIImageProvider(server.URL, 0)
	_, err := p.Generate(context.Background(), ImageRequest{Model: "dall-e-3", Secret: "sk-test"})

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "openai", provErr.Provider)
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.Equal(t, "Your prompt was rejected", provErr.Message)
}

func TestOpenAIGenerateMalformedErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	p := NewOpenAIImageProvider(server.URL, 0)
	_, err := p.Generate(context.Background(), ImageRequest{Model: "dall-e-3", Secret: "sk-test"})

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadGateway, provErr.StatusCode)
	assert.Equal(t, "image generation request failed", provErr.Message)
}

func TestOpenAIGenerateEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer server.Close()

	p := NewOpenAIImageProvider(server.URL, 0)
	_, err := p.Generate(context.Background(), ImageRequest{Model: "dall-e-3", Secret: "sk-test"})

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "provider returned no image data", provErr.Message)
}

func TestRegistryUnsupportedProvider(t *testing.T) {
	registry := NewRegistry(0)

	_, err := registry.Generate(context.Background(), "stability", ImageRequest{})

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "stability", provErr.Provider)
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.Contains(t, provErr.Message, "unsupported provider")
}
