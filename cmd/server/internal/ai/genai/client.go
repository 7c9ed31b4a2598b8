// Package genai implements the HTTP client for the multimodal model that
// backs classification, description, correction suggestions, and
// translation. The endpoint speaks an OpenAI-style chat-completions API.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRateLimited indicates the model endpoint rejected the call for quota
// reasons (HTTP 429 or a rate-limit error code in the body). Callers decide
// the fallback; detection is structural, never by matching message text.
var ErrRateLimited = errors.New("model endpoint rate limited")

// rateLimitCodes are the provider error codes treated as rate limiting.
var rateLimitCodes = map[string]bool{
	"rate_limit_exceeded": true,
	"insufficient_quota":  true,
}

// Config defines the connection settings for the model endpoint.
type Config struct {
	// BaseURL is the endpoint root (e.g., "https://api.openai.com/v1").
	BaseURL string

	// APIKey is the bearer token. Empty is allowed for local endpoints.
	APIKey string

	// Model is the model identifier sent with every completion.
	Model string

	// Timeout bounds one completion call end to end.
	Timeout time.Duration
}

// Client issues chat completions against one configured model endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a Client for the given endpoint configuration.
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Message is one chat message. Content is always the part-array form so a
// single shape covers both text-only and image-bearing messages.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one element of a message's content array.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image reference; data URIs are accepted.
type ImageURL struct {
	URL string `json:"url"`
}

// TextMessage builds a text-only message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []ContentPart{{Type: "text", Text: text}}}
}

// ImageMessage builds a user message pairing instruction text with an image.
func ImageMessage(text, imageURL string) Message {
	return Message{Role: "user", Content: []ContentPart{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
	}}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Complete sends one chat completion and returns the assistant text.
// When jsonOutput is set, the endpoint is asked for a JSON object response.
func (c *Client) Complete(ctx context.Context, messages []Message, jsonOutput bool) (string, error) {
	reqBody := chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: 0.2,
	}
	if jsonOutput {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to serialize completion request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call model endpoint (network error): %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w (HTTP 429)", ErrRateLimited)
	}

	var resp chatResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return "", fmt.Errorf("failed to parse model response (HTTP %d): %w", httpResp.StatusCode, err)
	}

	if resp.Error != nil && rateLimitCodes[resp.Error.Code] {
		return "", fmt.Errorf("%w (code %s)", ErrRateLimited, resp.Error.Code)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := string(bodyBytes)
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return "", fmt.Errorf("model endpoint returned error (HTTP %d): %s", httpResp.StatusCode, msg)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model response contained no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies the model endpoint is reachable. It lists models
// rather than spending a completion.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model endpoint unhealthy (HTTP %d)", resp.StatusCode)
	}

	return nil
}

// StripJSONFences removes markdown code fences some models wrap around JSON
// output, so structured responses parse even when the fence slips through.
func StripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
