package ai

import (
	"fmt"
	"strings"

	"github.com/xxxsen/brandbot/internal/config"
)

func BuildGenerator(items []config.ProviderConfig, opts GenerateOptions) (IGenerator, error) {
	entries := make([]GeneratorEntry, 0, len(items))
	for i, item := range items {
		provider, err := NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init generator %d: %w", i, err)
		}
		entries = append(entries, GeneratorEntry{
			Name:      entryName(item, i),
			Generator: NewGenerator(provider, item.Model, opts),
		})
	}
	gen := NewGroupGenerator(entries)
	if gen == nil {
		return nil, fmt.Errorf("no generator configured")
	}
	return gen, nil
}

func BuildEmbedder(items []config.ProviderConfig) (IEmbedder, error) {
	entries := make([]EmbedderEntry, 0, len(items))
	for i, item := range items {
		provider, err := NewEmbedProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init embedder %d: %w", i, err)
		}
		entries = append(entries, EmbedderEntry{
			Name:     entryName(item, i),
			Embedder: NewEmbedder(provider, item.Model),
		})
	}
	emb := NewGroupEmbedder(entries)
	if emb == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	return emb, nil
}

func entryName(item config.ProviderConfig, idx int) string {
	if name := strings.TrimSpace(item.Name); name != "" {
		return name
	}
	return fmt.Sprintf("%s-%d", strings.ToLower(strings.TrimSpace(item.Provider)), idx)
}
