// Package llm is a chat-completions client that plays as a tournament agent.
// It speaks the OpenAI-compatible API exposed by OpenRouter and others.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/arena/internal/domain/agent"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultTemperature = 0.7
	DefaultTimeout     = 45 * time.Second

	maxErrorBody = 800
)

var (
	ErrMissingAPIKey = errors.New("llm api key missing")
	ErrNoChoices     = errors.New("no choices returned")
)

// Client asks one model for decisions.
type Client struct {
	model       model.AgentID
	baseURL     string
	apiKey      string
	temperature float64
	maxTokens   int
	jsonMode    bool
	siteURL     string
	title       string
	http        *http.Client
	logger      logger.Logger
}

// New creates a client for the given model id.
func New(id model.AgentID, opts ...Option) (*Client, error) {
	c := &Client{
		model:       id,
		baseURL:     DefaultBaseURL,
		temperature: DefaultTemperature,
		jsonMode:    true,
		http:        &http.Client{Timeout: DefaultTimeout},
		logger:      logger.Named("llm"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c, nil
}

// NewFactory returns an agent factory that builds clients sharing opts.
func NewFactory(opts ...Option) agent.Factory {
	return func(id model.AgentID) (agent.Agent, error) {
		return New(id, opts...)
	}
}

// Model returns the model id the client queries.
func (c *Client) Model() model.AgentID { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Respond sends the prompt and returns the first choice's content.
func (c *Client) Respond(ctx context.Context, p agent.Prompt) (string, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordAgentRequest(c.model.String(), status, time.Since(start))
	}()

	body := chatRequest{
		Model: c.model.String(),
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if c.jsonMode {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			status = "canceled"
		}
		return "", fmt.Errorf("chat completion %s: %w", c.model, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response %s: %w", c.model, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status = strconv.Itoa(resp.StatusCode)
		return "", fmt.Errorf("chat completion %s: http %d: %s", c.model, resp.StatusCode, truncate(string(data), maxErrorBody))
	}

	var cc chatResponse
	if err := json.Unmarshal(data, &cc); err != nil {
		return "", fmt.Errorf("decode response %s: %w", c.model, err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoChoices, c.model)
	}

	status = "ok"
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.logger.Debug(ctx, "Model responded",
		logger.String("model", c.model.String()),
		logger.Duration("latency", time.Since(start)),
		logger.Int("chars", len(content)))
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
