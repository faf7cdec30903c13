package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the model returns no text.
var ErrEmptyCompletion = errors.New("model returned no completion")

// ErrMissingAPIKey is returned when the generator has no API key.
var ErrMissingAPIKey = errors.New("missing API key")

// Generator completes a prompt into report text.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAI is a Generator backed by the chat completions API.
type OpenAI struct {
	client       *openai.Client
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float32
	logger       *slog.Logger
}

// OpenAIOption configures an OpenAI generator.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL      string
	httpClient   *http.Client
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float32
	logger       *slog.Logger
}

// WithModel sets the model name.
func WithModel(model string) OpenAIOption {
	return func(c *openAIConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(c *openAIConfig) {
		c.httpClient = client
	}
}

// WithSystemPrompt sets the system message.
func WithSystemPrompt(prompt string) OpenAIOption {
	return func(c *openAIConfig) {
		if prompt != "" {
			c.systemPrompt = prompt
		}
	}
}

// WithMaxTokens sets the completion length ceiling.
func WithMaxTokens(n int) OpenAIOption {
	return func(c *openAIConfig) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) OpenAIOption {
	return func(c *openAIConfig) {
		c.temperature = t
	}
}

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(logger *slog.Logger) OpenAIOption {
	return func(c *openAIConfig) {
		c.logger = logger
	}
}

// NewOpenAI creates a generator authenticated with apiKey.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &openAIConfig{
		model:        openai.GPT4oMini,
		systemPrompt: "You are a helpful assistant.",
		maxTokens:    8000,
		temperature:  0.7,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.baseURL, "/")
	}
	if cfg.httpClient != nil {
		clientCfg.HTTPClient = cfg.httpClient
	}

	return &OpenAI{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.model,
		systemPrompt: cfg.systemPrompt,
		maxTokens:    cfg.maxTokens,
		temperature:  cfg.temperature,
		logger:       cfg.logger,
	}, nil
}

// Complete sends the prompt as the user message and returns the first
// choice, cleaned.
func (g *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := Clean(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	g.logger.Debug("generated narrative",
		"model", g.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason,
	)
	return text, nil
}
