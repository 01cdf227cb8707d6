package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const maxPhraseChars = 120

// OpenAIPhrases generates phrases with OpenAI chat completions, falling back to a fixed pool
type OpenAIPhrases struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	fallback PhraseProvider
	logger   *zap.Logger
}

// NewOpenAIPhrases creates an OpenAI-backed phrase provider
func NewOpenAIPhrases(apiKey, baseURL, model string, fallback PhraseProvider, logger *zap.Logger) (*OpenAIPhrases, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if fallback == nil {
		fallback = NewFixedPhrases(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIPhrases{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		timeout:  20 * time.Second,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// Name returns the provider name
func (p *OpenAIPhrases) Name() string {
	return "openai"
}

// Phrase asks the model for one short supportive phrase
func (p *OpenAIPhrases) Phrase(ctx context.Context, kind PhraseKind) string {
	text, err := p.generate(ctx, kind)
	if err != nil {
		p.logger.Warn("phrase generation failed, using fixed pool", zap.String("kind", string(kind)), zap.Error(err))
		return p.fallback.Phrase(ctx, kind)
	}
	return text
}

func (p *OpenAIPhrases) generate(ctx context.Context, kind PhraseKind) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write very short, friendly social media posts. No hashtags, no links, no quotes.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPhrasePrompt(kind),
			},
		},
		MaxTokens:   40,
		Temperature: 1.0,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	text := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`)
	if text == "" {
		return "", fmt.Errorf("empty phrase from OpenAI")
	}
	if len([]rune(text)) > maxPhraseChars {
		text = string([]rune(text)[:maxPhraseChars])
	}
	return text, nil
}

func buildPhrasePrompt(kind PhraseKind) string {
	switch kind {
	case PhraseReply:
		return fmt.Sprintf("Write one enthusiastic reply (under %d characters) to a crypto project's announcement.", maxPhraseChars)
	default:
		return fmt.Sprintf("Write one upbeat tweet (under %d characters) cheering on a crypto community.", maxPhraseChars)
	}
}
