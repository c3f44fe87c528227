package words

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures the chat completions generator.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The service owns the time budget and falls back on failure.
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(o.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	text := completion.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", errors.New("chat completion returned empty content")
	}

	return text, nil
}
