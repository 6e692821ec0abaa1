// Package llm provides the text-generation collaborator: a Generator
// interface, the Anthropic Messages API client behind it, and the few-shot
// prompts for every generation stage.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultAPIURL = "https://api.anthropic.com/v1/messages"
	apiVersion    = "2023-06-01"
	DefaultModel  = "claude-haiku-4-5-20251001"

	// maxAttempts bounds regeneration of degenerate output.
	maxAttempts = 3
)

var (
	ErrNotConfigured = errors.New("LLM client not configured")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrEmptyResponse = errors.New("empty response")
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Generator turns an ordered conversation into generated text.
type Generator interface {
	Generate(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, messages []Message, maxTokens int) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	return f(ctx, messages, maxTokens)
}

// Client wraps the Anthropic Messages API.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient creates a new API client.
// Returns nil if apiKey is empty (generation disabled).
func NewClient(apiKey, model string, maxPerMin int) *Client {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultModel
	}
	if maxPerMin <= 0 {
		maxPerMin = 20
	}
	return &Client{
		apiKey: apiKey,
		apiURL: defaultAPIURL,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		maxPerMin: maxPerMin,
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// request is the API request body.
type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

// response is the API response body.
type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate implements Generator. System messages are joined into the API's
// system field; the rest are sent in order. Output containing a run of "QQ"
// is a known failure mode of small models and is regenerated.
func (c *Client) Generate(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	req := buildRequest(c.model, messages, maxTokens)

	var text string
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err = c.complete(ctx, req)
		if err != nil {
			return "", err
		}
		if !degenerate(text) {
			slog.Debug("generated response", "attempts", attempt)
			return text, nil
		}
	}
	return text, nil
}

func buildRequest(model string, messages []Message, maxTokens int) request {
	var system []string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return request{
		Model:     model,
		MaxTokens: maxTokens,
		System:    strings.Join(system, "\n\n"),
		Messages:  turns,
	}
}

func degenerate(text string) bool {
	return strings.Contains(text, "QQ")
}

func (c *Client) complete(ctx context.Context, req request) (string, error) {
	// Rate limiting.
	c.mu.Lock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		c.mu.Unlock()
		return "", fmt.Errorf("%w (%d calls/min)", ErrRateLimited, c.maxPerMin)
	}
	c.callCount++
	c.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Content) == 0 {
		return "", ErrEmptyResponse
	}

	slog.Debug("generation call",
		"input_tokens", apiResp.Usage.InputTokens,
		"output_tokens", apiResp.Usage.OutputTokens,
	)

	return apiResp.Content[0].Text, nil
}
