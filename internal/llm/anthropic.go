package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/ppiankov/leadradar/internal/util"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	client sdk.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider backed by the SDK
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, eris.New("Anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0), // callers fall back to mock on first failure
		option.WithHTTPClient(&http.Client{
			Timeout: config.timeout(),
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		}),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(config.BaseURL, "/")+"/"))
	}

	return &AnthropicProvider{
		client: sdk.NewClient(opts...),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete sends a single Messages API request
func (p *AnthropicProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := p.config.model(req, defaultAnthropicModel)

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	system := req.SystemPrompt
	if req.JSONMode {
		system += "\n\nRespond with ONLY a valid JSON object, no other text."
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(p.config.maxTokens(req)),
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.UserPrompt)),
		},
		Temperature: sdk.Float(req.Temperature),
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, newError("anthropic", KindStatus, apiErr.StatusCode, err)
		}
		return nil, newError("anthropic", KindNetwork, 0, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, newError("anthropic", KindEmpty, 0, eris.New("no text content in response"))
	}

	return &ChatResponse{
		Content:    content,
		Model:      string(msg.Model),
		TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}, nil
}
