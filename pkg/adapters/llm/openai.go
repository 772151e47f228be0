// Package llm adapts OpenAI-compatible chat completion APIs to ports.Generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/aretw0/canopy/pkg/domain"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
	// EnvAPIKey is read when Config.APIKey is empty.
	EnvAPIKey = "OPENAI_API_KEY"
)

// Config configures the OpenAI adapter.
type Config struct {
	APIKey string
	// BaseURL points at an OpenAI-compatible endpoint (e.g. a local gateway).
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float32
}

// OpenAI implements ports.Generator on top of the chat completion API.
type OpenAI struct {
	client *openai.Client
	config Config
}

// NewOpenAI creates the adapter. A missing API key is reported here, once, as
// domain.ErrMissingCredential; there is no silent fallback.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAPIKey)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrMissingCredential, EnvAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Model returns the configured model name.
func (o *OpenAI) Model() string {
	return o.config.Model
}

// Generate sends one system + user exchange and returns the assistant's text.
func (o *OpenAI) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 401 {
			return "", fmt.Errorf("%w: %s", domain.ErrMissingCredential, apiErr.Message)
		}
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
