package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	defaultImageTimeout  = 120 * time.Second
)

// Canvas sizes DALL-E 3 supports. Anything else maps to the square default.
const (
	openAISizeSquare    = "1024x1024"
	openAISizeLandscape = "1792x1024"
	openAISizePortrait  = "1024x1792"
)

// OpenAIImageProvider implements ImageProvider for the OpenAI images API.
type OpenAIImageProvider struct {
	client  *http.Client
	baseURL string
}

// NewOpenAIImageProvider creates an OpenAI image adapter. An empty baseURL
// selects the public API endpoint; a timeout <= 0 selects the default.
func NewOpenAIImageProvider(baseURL string, timeout time.Duration) *OpenAIImageProvider {
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultImageTimeout
	}
	return &OpenAIImageProvider{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
	}
}

// Name returns the provider identifier
func (p *OpenAIImageProvider) Name() string {
	return "openai"
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
	Style          string `json:"style"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// Generate sends an image-generation request to OpenAI and decodes the
// base64 payload into raw bytes.
func (p *OpenAIImageProvider) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	body, err := json.Marshal(openAIImageRequest{
		Model:          req.Model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           mapOpenAISize(req.Width, req.Height),
		ResponseFormat: "b64_json",
		Style:          mapOpenAIStyle(req.Style),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + "/images/generations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Secret)

	resp, err := p.client.Do(httpReq)
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
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(respBody, "image generation request failed"),
		}
	}

	var imageResp openAIImageResponse
	if err := json.Unmarshal(respBody, &imageResp); err != nil || len(imageResp.Data) == 0 {
		return nil, &ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    "provider returned no image data",
		}
	}

	data, err := base64.StdEncoding.DecodeString(imageResp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}

	return &ImageResult{
		Data:          data,
		ContentType:   "image/png",
		RevisedPrompt: imageResp.Data[0].RevisedPrompt,
	}, nil
}

// mapOpenAISize maps requested pixel dimensions onto the enumerated DALL-E
// canvas sizes. Unrecognized sizes fall back to the square default.
func mapOpenAISize(width, height int) string {
	switch {
	case width == 1792 && height == 1024:
		return openAISizeLandscape
	case width == 1024 && height == 1792:
		return openAISizePortrait
	default:
		return openAISizeSquare
	}
}

// mapOpenAIStyle maps a free-form style hint onto DALL-E's enumerated style
// values: "vivid" passes through, everything else is "natural".
func mapOpenAIStyle(style string) string {
	if style == "vivid" {
		return "vivid"
	}
	return "natural"
}

// extractErrorMessage pulls the human-readable message out of an OpenAI-style
// error envelope. Malformed envelopes are tolerated with the fallback message
// rather than a secondary parse error.
func extractErrorMessage(body []byte, fallback string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		return fallback
	}
	return envelope.Error.Message
}
