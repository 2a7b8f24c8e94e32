// Package openai implements llm.Provider against any OpenAI-compatible
// chat completions endpoint, including OpenRouter via BaseURL override.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/llm"
	"github.com/BaSui01/opscrew/types"
)

// Config configures the provider.
type Config struct {
	APIKey  string        `yaml:"api_key" json:"api_key"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Model   string        `yaml:"model" json:"model"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// ExtraHeaders are attached to every request. OpenRouter expects
	// HTTP-Referer and X-Title for attribution.
	ExtraHeaders map[string]string `yaml:"extra_headers" json:"extra_headers"`
}

// DefaultConfig returns sensible defaults for the direct OpenAI API.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4",
		Timeout: 30 * time.Second,
	}
}

// Provider is an OpenAI-compatible chat completion client.
type Provider struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewProvider creates the provider. A nil logger is replaced with a nop.
func NewProvider(config Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Provider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With(zap.String("component", "openai_provider")),
	}
}

func (p *Provider) Name() string { return "openai" }

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type wireChoice struct {
	Index        int         `json:"index"`
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   llm.Usage    `json:"usage"`
	Error   *wireError   `json:"error,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

// Completion performs a blocking chat completion request.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.config.APIKey == "" {
		return nil, types.NewError(types.ErrAuthentication, "api key not configured")
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	body := wireRequest{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	for k, v := range p.config.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrTimeout, "completion canceled or timed out").WithCause(err).WithRetryable(true)
		}
		return nil, types.NewError(types.ErrServiceUnavailable, "completion request failed").WithCause(err).WithRetryable(true)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, p.apiError(httpResp.StatusCode, data)
	}

	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(wire.Choices) == 0 {
		return nil, types.NewError(types.ErrUpstreamError, "empty choices in response")
	}

	p.logger.Debug("completion ok",
		zap.String("model", wire.Model),
		zap.Int("total_tokens", wire.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)))

	resp := &llm.ChatResponse{ID: wire.ID, Model: wire.Model, Usage: wire.Usage}
	for _, c := range wire.Choices {
		resp.Choices = append(resp.Choices, llm.Choice{
			Index:        c.Index,
			Message:      llm.Message{Role: llm.Role(c.Message.Role), Content: c.Message.Content},
			FinishReason: c.FinishReason,
		})
	}
	return resp, nil
}

func (p *Provider) apiError(status int, data []byte) error {
	msg := string(data)
	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err == nil && wire.Error != nil {
		msg = wire.Error.Message
	}

	var code types.ErrorCode
	retryable := false
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = types.ErrAuthentication
	case status == http.StatusTooManyRequests:
		code = types.ErrRateLimited
		retryable = true
	case status == http.StatusBadRequest:
		code = types.ErrInvalidRequest
	case status >= 500:
		code = types.ErrUpstreamError
		retryable = true
	default:
		code = types.ErrUpstreamError
	}

	return types.NewError(code, fmt.Sprintf("api error (status %d): %s", status, msg)).
		WithHTTPStatus(status).
		WithRetryable(retryable)
}
