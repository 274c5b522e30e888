package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

type ManagerConfig struct {
	Timeout          int
	EmbedBatchSize   int
	EmbedConcurrency int
}

type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 1
	}
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured: %w", appErr.ErrUnavailable)
	}
	return m.embedder.Embed(ctx, text, taskType)
}

// EmbedBatch embeds texts in batches of EmbedBatchSize, running at most
// EmbedConcurrency embed calls at once. Output order matches input order.
func (m *Manager) EmbedBatch(ctx context.Context, texts []string, taskType string, progress func(done, total int)) ([][]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured: %w", appErr.ErrUnavailable)
	}
	out := make([][]float32, len(texts))
	total := len(texts)
	for start := 0; start < total; start += m.cfg.EmbedBatchSize {
		end := start + m.cfg.EmbedBatchSize
		if end > total {
			end = total
		}
		eg, ectx := errgroup.WithContext(ctx)
		eg.SetLimit(m.cfg.EmbedConcurrency)
		for i := start; i < end; i++ {
			idx := i
			eg.Go(func() error {
				vec, err := m.embedder.Embed(ectx, texts[idx], taskType)
				if err != nil {
					return fmt.Errorf("embed text %d: %w", idx, err)
				}
				out[idx] = vec
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(end, total)
		}
	}
	return out, nil
}

func (m *Manager) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured: %w", appErr.ErrUnavailable)
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", appErr.ErrEmptyAnswer
	}
	return text, nil
}

func (m *Manager) Embedder() IEmbedder {
	return m.embedder
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}
