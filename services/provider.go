package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"voya/config"
)

// Provider generates itinerary text for a prompt. Each provider owns its request
// shape and its response normalizer.
type Provider interface {
	ID() string
	Generate(ctx context.Context, prompt string) (string, error)
}

var errMalformedResponse = errors.New("malformed response: body is not valid JSON")

// NewProvider builds the provider for cfg.Kind. client is shared across providers.
func NewProvider(cfg config.ProviderConfig, client *http.Client) (Provider, error) {
	switch cfg.Kind {
	case config.KindOpenAI:
		return NewOpenAIProvider(cfg, client), nil
	case config.KindChat:
		return NewHTTPProvider(cfg, chatBody, client), nil
	case config.KindOllama:
		return NewHTTPProvider(cfg, ollamaBody, client), nil
	case config.KindInference:
		return NewHTTPProvider(cfg, inferenceBody, client), nil
	default:
		return nil, fmt.Errorf("provider %s: unknown kind %q", cfg.ID, cfg.Kind)
	}
}

// NewProviders builds providers in configured order.
func NewProviders(cfgs []config.ProviderConfig, timeout time.Duration) ([]Provider, error) {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	out := make([]Provider, 0, len(cfgs))
	for _, cfg := range cfgs {
		p, err := NewProvider(cfg, client)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ─── Raw HTTP provider ────────────────────────────────────────────────────────

// shapeFunc renders the provider-specific request payload.
type shapeFunc func(cfg config.ProviderConfig, prompt string) any

// HTTPProvider posts a JSON body and pulls the text out of the response with a gjson path.
type HTTPProvider struct {
	cfg    config.ProviderConfig
	shape  shapeFunc
	client *http.Client
}

func NewHTTPProvider(cfg config.ProviderConfig, shape shapeFunc, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPProvider{cfg: cfg, shape: shape, client: client}
}

func (p *HTTPProvider) ID() string { return p.cfg.ID }

func (p *HTTPProvider) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(p.shape(p.cfg, prompt))
	if err != nil {
		return "", p.fail(0, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", p.fail(0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.AuthScheme != "" {
		req.Header.Set("Authorization", p.cfg.AuthScheme+" "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", p.fail(0, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.fail(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", p.fail(resp.StatusCode, fmt.Errorf("API error: %s", truncate(string(body), 300)))
	}

	text, err := extractText(body, p.cfg.ResponsePath)
	if err != nil {
		return "", p.fail(resp.StatusCode, err)
	}
	return text, nil
}

func (p *HTTPProvider) fail(status int, err error) error {
	return &ProviderCallError{Provider: p.cfg.ID, StatusCode: status, Err: err}
}

// extractText is the normalizer for path-addressed responses: a missing path
// yields "" while a body that isn't JSON is an error.
func extractText(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errMalformedResponse
	}
	return gjson.GetBytes(body, path).String(), nil
}

// ─── Request shapes ──────────────────────────────────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func messages(prompt string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

func chatBody(cfg config.ProviderConfig, prompt string) any {
	return chatRequest{
		Model:       cfg.Model,
		Messages:    messages(prompt),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

func ollamaBody(cfg config.ProviderConfig, prompt string) any {
	return ollamaRequest{
		Model:    cfg.Model,
		Messages: messages(prompt),
		Stream:   false,
		Options: ollamaOptions{
			NumPredict:  cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
