package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/convodoc/internal/domain/ai"
)

const maxTokens = 2048

// AnthropicBaseURL is Anthropic's OpenAI-compatible endpoint.
const AnthropicBaseURL = "https://api.anthropic.com/v1/"

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-5"
)

type Options struct {
	Provider   ai.Provider
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is one chat-completion provider speaking the OpenAI wire protocol.
type Client struct {
	*openai.Client
	provider ai.Provider
	Model    string
	timeout  time.Duration
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	switch {
	case opts.BaseURL != "":
		cfg.BaseURL = opts.BaseURL
	case opts.Provider == ai.ProviderAnthropic:
		cfg.BaseURL = AnthropicBaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
		if opts.Provider == ai.ProviderAnthropic {
			model = DefaultAnthropicModel
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	provider := opts.Provider
	if provider == "" {
		provider = ai.ProviderOpenAI
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), provider: provider, Model: model, timeout: timeout}
}

func (c *Client) Provider() ai.Provider { return c.provider }

// Complete performs a single chat completion round-trip bounded by the client timeout.
func (c *Client) Complete(ctx context.Context, systemPrompt, prompt string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if c.provider == ai.ProviderOpenAI {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", "", fmt.Errorf("%s chat completion: %w", c.provider, classify(err))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", "", fmt.Errorf("%s chat completion: %w: empty choices", c.provider, ai.ErrMalformedResponse)
	}
	model := resp.Model
	if model == "" {
		model = c.Model
	}
	return resp.Choices[0].Message.Content, model, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// classify maps go-openai errors onto the gateway error taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", byStatus(apiErr.HTTPStatusCode), err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %w", byStatus(reqErr.HTTPStatusCode), err)
	}
	return fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, err)
}

func byStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ai.ErrAuthenticationFailed
	case code == http.StatusTooManyRequests:
		return ai.ErrQuotaExceeded
	case code == http.StatusBadRequest || code == http.StatusNotFound || code == http.StatusUnprocessableEntity:
		return ai.ErrInvalidRequest
	}
	return ai.ErrProviderUnavailable
}
