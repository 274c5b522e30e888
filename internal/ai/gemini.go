package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiProvider struct {
	apiKey string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return p.client, p.clientErr
}

func (p *geminiProvider) Generate(ctx context.Context, model string, prompt string, opts GenerateOptions) (string, error) {
	if p.apiKey == "" {
		return "", appErr.ErrUnavailable
	}
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		config,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (p *geminiProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, appErr.ErrUnavailable
	}
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}
	var config *genai.EmbedContentConfig
	if taskType != "" {
		config = &genai.EmbedContentConfig{
			TaskType: taskType,
		}
	}
	resp, err := client.Models.EmbedContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		config,
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding values returned")
	}
	return resp.Embeddings[0].Values, nil
}

func createGeminiProvider(args interface{}) (*geminiProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiProvider{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func init() {
	Register("gemini", func(args interface{}) (IAIProvider, error) {
		return createGeminiProvider(args)
	})
	RegisterEmbed("gemini", func(args interface{}) (IEmbedProvider, error) {
		return createGeminiProvider(args)
	})
}
