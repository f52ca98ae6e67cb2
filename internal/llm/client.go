// Package llm wraps an OpenAI-compatible chat-completions API and manages
// consultant conversation sessions with injected data context.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// ChatMessage is one entry in a chat-completions request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the connection settings for the completions API.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client with sane completion defaults filled in.
func NewClient(cfg Config) *Client {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Completion is the parsed result of one chat call.
type Completion struct {
	Content    string
	TokensUsed int
}

// Complete sends the message list and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (Completion, error) {
	body, err := json.Marshal(map[string]any{
		"model":       c.cfg.Model,
		"messages":    messages,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
	})
	if err != nil {
		return Completion{}, err
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Completion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	log.Debug().Str("model", c.cfg.Model).Int("messages", len(messages)).Msg("Requesting chat completion")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
			return Completion{}, fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, msg.String())
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return Completion{}, fmt.Errorf("completion API authentication failed (401/403), check the API key")
		case http.StatusTooManyRequests:
			return Completion{}, fmt.Errorf("completion API rate limit exceeded (429)")
		default:
			return Completion{}, fmt.Errorf("completion API returned status %d", resp.StatusCode)
		}
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return Completion{}, fmt.Errorf("completion response has no message content")
	}

	return Completion{
		Content:    content.String(),
		TokensUsed: int(gjson.GetBytes(raw, "usage.total_tokens").Int()),
	}, nil
}
