package generator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/leadvett/backend/internal/config"
)

// LLMClient is the text-completion contract the narrative generator depends on.
// Implementations must be safe for concurrent use.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// NewLLMClient picks the client implementation named by cfg.Provider.
func NewLLMClient(cfg *config.AIConfig) LLMClient {
	switch cfg.Provider {
	case config.ProviderCLI:
		log.Println("Narrative generator using Claude CLI (local plan)")
		return NewCLIClient(cfg.CLIPath)
	case config.ProviderMock:
		log.Println("Narrative generator using mock data")
		return NewMockClient()
	default:
		if !cfg.IsEnabled() {
			log.Println("WARN: ANTHROPIC_API_KEY not set, narratives will use the fallback text")
		}
		log.Println("Narrative generator using Anthropic API:", cfg.Model)
		return NewAPIClient(cfg)
	}
}

// ── APIClient: Anthropic SDK (Production) ──────────────────

type APIClient struct {
	client      *anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	maxAttempts int
}

func NewAPIClient(cfg *config.AIConfig) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &APIClient{
		client:      &client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxAttempts: attempts,
	}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: param.NewOpt(c.temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("anthropic API: %w", ctx.Err())
			case <-time.After(sleepDuration):
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after %d attempt(s): %w", c.maxAttempts, lastErr)
}

// ── MockClient: Local Development ──────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      mockNarrativeJSON,
		PromptTokens: 600,
		OutputTokens: 250,
	}, nil
}

const mockNarrativeJSON = `{
  "strengths": [
    "[Mock] Answered every question",
    "[Mock] Stated a concrete budget",
    "[Mock] Timeline is clearly described"
  ],
  "risks": [
    "[Mock] Decision process not fully confirmed",
    "[Mock] Scope of work still open"
  ],
  "dmScript": "[Mock] Thanks for the detail in your answers. Based on what you shared, the next step is a short call to confirm scope.",
  "summary": "[Mock] Qualified lead consistent with the rule engine verdict."
}`
