package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
)

const defaultClaudeMaxTokens = 1024

// ClaudeProvider generates content through the Anthropic API.
type ClaudeProvider struct {
	client anthropic.Client
	config *common.ClaudeConfig
	logger arbor.ILogger
	retry  *RetryConfig
}

// NewClaudeProvider creates a Claude provider. Returns an error when no
// API key is configured.
func NewClaudeProvider(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("claude API key not configured")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	return &ClaudeProvider{
		client: client,
		config: config,
		logger: logger,
		retry:  NewDefaultRetryConfig(),
	}, nil
}

// GetProviderType returns the provider type
func (p *ClaudeProvider) GetProviderType() ProviderType {
	return ProviderClaude
}

// GenerateContent sends the prompt to the Anthropic API with retry.
func (p *ClaudeProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	if request.Prompt == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}

	model := request.Model
	if model == "" {
		model = p.config.Model
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}

	if request.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(request.Temperature))
	}
	if request.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemInstruction},
		}
	}

	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		resp, apiErr = p.client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}
		if attempt == p.retry.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = p.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		}

		p.logger.Warn().
			Int("attempt", attempt+1).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("Claude API call failed after %d retries: %w", p.retry.MaxRetries, apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	return &ContentResponse{
		Text:     text.String(),
		Provider: ProviderClaude,
		Model:    model,
	}, nil
}

// Close releases the provider
func (p *ClaudeProvider) Close() error {
	p.client = anthropic.Client{}
	return nil
}
