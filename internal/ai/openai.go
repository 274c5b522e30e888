package ai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type openAIProvider struct {
	name   string
	client *openai.Client
}

func newOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(config)
}

func (p *openAIProvider) Name() string {
	return p.name
}

func (p *openAIProvider) Generate(ctx context.Context, model string, prompt string, opts GenerateOptions) (string, error) {
	if p.client == nil {
		return "", appErr.ErrUnavailable
	}
	temperature := opts.Temperature
	if temperature == 0 {
		// a zero temperature is dropped from the request body
		temperature = math.SmallestNonzeroFloat32
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   opts.MaxTokens,
	}
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", p.name)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *openAIProvider) Embed(ctx context.Context, model string, text string, _ string) ([]float32, error) {
	if p.client == nil {
		return nil, appErr.ErrUnavailable
	}
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("%s embeddings: %w", p.name, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%s response has no embeddings", p.name)
	}
	return resp.Data[0].Embedding, nil
}

func createOpenAIProvider(args interface{}) (*openAIProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	p := &openAIProvider{name: "openai"}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey != "" {
		p.client = newOpenAIClient(apiKey, strings.TrimSpace(cfg.BaseURL), nil)
	}
	return p, nil
}

func init() {
	Register("openai", func(args interface{}) (IAIProvider, error) {
		return createOpenAIProvider(args)
	})
	RegisterEmbed("openai", func(args interface{}) (IEmbedProvider, error) {
		return createOpenAIProvider(args)
	})
}
