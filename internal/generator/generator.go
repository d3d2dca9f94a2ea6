// Package generator produces story content from a child's meal context by
// calling an OpenAI-compatible chat completions endpoint in JSON mode.
//
// The generator is treated as an opaque collaborator: it returns a parsed
// StoryContent or an error, and never touches draft lifecycle state.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// DefaultModel balances quality against latency for short storybooks.
const DefaultModel = "gemini-2.0-flash"

const defaultTemperature = 0.7

// Request carries everything a single generation needs. For regenerations
// the caller resolves carry-forward inputs before building the request;
// DissatisfactionReason and DislikeReason are non-empty only on
// regeneration.
type Request struct {
	ChildProfile *domain.ChildProfile
	MealContext  *domain.MealContext
	StoryConfig  *domain.StoryConfig

	// DissatisfactionReason is why the caller rejected the previous draft.
	DissatisfactionReason string

	// DislikeReason is what the child disliked in the previous story.
	DislikeReason string
}

// ContentGenerator is the content model contract consumed by the use case
// layer. Implementations must be safe for concurrent use.
type ContentGenerator interface {
	Generate(ctx context.Context, req *Request) (*domain.StoryContent, error)
}

// Config configures the HTTP client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls a chat completions endpoint and parses the JSON-mode reply
// into the story content model.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ContentGenerator = (*Client)(nil)

// NewClient builds a generator client. The API key is required: story
// generation is the core operation and cannot degrade silently.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generator: API key is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
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
}

// Generate performs one chat completion and returns the parsed content.
// Upstream 429s map to RATE_LIMITED; every other failure, including a reply
// that is not valid story JSON, maps to GENERATION_FAILED.
func (c *Client) Generate(ctx context.Context, req *Request) (*domain.StoryContent, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    defaultTemperature,
	})
	if err != nil {
		return nil, apperrors.ErrGenerationFailed(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.ErrGenerationFailed(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.ErrGenerationFailed(fmt.Errorf("call content model: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperrors.ErrGenerationFailed(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.ErrRateLimited(fmt.Errorf("content model returned 429: %s", truncate(respBody)))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrGenerationFailed(
			fmt.Errorf("content model returned %d: %s", resp.StatusCode, truncate(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperrors.ErrGenerationFailed(fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, apperrors.ErrGenerationFailed(fmt.Errorf("content model returned no choices"))
	}

	var content domain.StoryContent
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &content); err != nil {
		return nil, apperrors.ErrGenerationFailed(fmt.Errorf("parse story content: %w", err))
	}
	return &content, nil
}

func truncate(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
