// Package llm generates summaries through an OpenAI-compatible chat
// completions endpoint (OpenRouter by default).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const maxAttempts = 3

// Backoff bounds, shrunk in tests.
var (
	backoffMin = 4 * time.Second
	backoffMax = 10 * time.Second
)

// ErrEmptyResponse is returned when the model produced no content.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Options configures a Client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls the chat completions API with bounded retries.
type Client struct {
	opts   Options
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client. The API key is never logged in full.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	logger.Info("llm: client initialized",
		slog.String("model", opts.Model),
		slog.String("api_key", MaskKey(opts.APIKey)))
	return &Client{
		opts:   opts,
		http:   &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// statusError marks an HTTP failure; retryable reports whether another
// attempt can help.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm: request failed with status %d: %s", e.code, snippet(e.body))
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Generate sends the system and user prompts and returns the model's
// markdown output. Rate limits, server errors and transport failures are
// retried with exponential backoff; authentication failures are not.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.logger.Debug("llm: generating summary", slog.Int("prompt_chars", len(userPrompt)))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff(attempt)):
			}
			c.logger.Info("llm: retrying", slog.Int("attempt", attempt))
		}

		out, err := c.complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			if se.code == http.StatusUnauthorized {
				return "", fmt.Errorf("llm: authentication failed, check LECTIO_LLM_API_KEY: %w", err)
			}
			return "", err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		c.logger.Warn("llm: attempt failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
	}
	return "", fmt.Errorf("llm: giving up after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.opts.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &statusError{code: resp.StatusCode, body: string(raw)}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Info("llm: summary generated",
		slog.Int("prompt_tokens", cr.Usage.PromptTokens),
		slog.Int("completion_tokens", cr.Usage.CompletionTokens),
		slog.Int("total_tokens", cr.Usage.TotalTokens))
	return cr.Choices[0].Message.Content, nil
}

// backoff is exponential from backoffMin, capped at backoffMax, with a
// little jitter so parallel callers spread out.
func backoff(attempt int) time.Duration {
	d := backoffMin << (attempt - 2)
	if d > backoffMax {
		d = backoffMax
	}
	return d + time.Duration(rand.Int63n(int64(time.Second)))
}

// EstimateTokens is a rough 4-chars-per-token estimate.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// MaskKey hides all but the edges of an API key for logging.
func MaskKey(key string) string {
	if len(key) <= 12 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
