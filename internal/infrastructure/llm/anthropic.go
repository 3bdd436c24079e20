package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

const defaultAnthropicMaxTokens = 2048

// AnthropicClient implements ports.ModelClient with the Anthropic Messages API.
type AnthropicClient struct {
	client       anthropic.Client
	configured   bool
	systemPrompt string
	maxTokens    int64
	temperature  float64
}

var _ ports.ModelClient = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration. An empty key yields
// a client whose Ready reports the missing credential.
func NewAnthropicClient(cfg config.AnthropicConfig) *AnthropicClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	apiKey := strings.TrimSpace(cfg.APIKey)

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicClient{
		client:       anthropic.NewClient(opts...),
		configured:   apiKey != "",
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    maxTokens,
		temperature:  cfg.Temperature,
	}
}

// Ready reports a missing API key without touching the network.
func (c *AnthropicClient) Ready(string) error {
	if c == nil || !c.configured {
		return domain.ErrMissingCredential
	}
	return nil
}

// Complete sends prompt as a single user turn and joins the text blocks of
// the reply.
func (c *AnthropicClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	if err := c.Ready(model); err != nil {
		return "", err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{{Text: safePrompt(c.systemPrompt)}},
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return out.String(), nil
}
