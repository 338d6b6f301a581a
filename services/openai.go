package services

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"voya/config"
)

// OpenAIProvider calls any OpenAI-compatible chat completions API (OpenRouter by default).
type OpenAIProvider struct {
	id          string
	model       string
	maxTokens   int
	temperature float32
	client      *openai.Client
}

func NewOpenAIProvider(cfg config.ProviderConfig, httpClient *http.Client) *OpenAIProvider {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.Endpoint
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}

	return &OpenAIProvider{
		id:          cfg.ID,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		client:      openai.NewClientWithConfig(oc),
	}
}

func (p *OpenAIProvider) ID() string { return p.id }

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", &ProviderCallError{Provider: p.id, StatusCode: statusFromOpenAIError(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func statusFromOpenAIError(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
