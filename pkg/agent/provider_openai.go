package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openaiProvider talks to the OpenAI chat completions API. Groq exposes the
// same API shape, so the groq provider is this client pointed at a different
// base URL.
type openaiProvider struct {
	name   string
	client openai.Client
}

func newOpenAIProvider(apiKey, baseURL string) *openaiProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiProvider{name: "openai", client: openai.NewClient(opts...)}
}

func newGroqProvider(apiKey string) *openaiProvider {
	p := newOpenAIProvider(apiKey, groqBaseURL)
	p.name = "groq"
	return p
}

func (p *openaiProvider) Name() string { return p.name }

func (p *openaiProvider) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case "user":
			messages = append(messages, openai.UserMessage(msg.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("[%s] %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("[%s] no response choices returned", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}
