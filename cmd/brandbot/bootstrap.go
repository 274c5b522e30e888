package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/ai"
	"github.com/xxxsen/brandbot/internal/brand"
	"github.com/xxxsen/brandbot/internal/config"
	"github.com/xxxsen/brandbot/internal/embedcache"
	"github.com/xxxsen/brandbot/internal/filestore"
	"github.com/xxxsen/brandbot/internal/ingest"
	"github.com/xxxsen/brandbot/internal/model"
	"github.com/xxxsen/brandbot/internal/retriever"
	"github.com/xxxsen/brandbot/internal/vectorindex"
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func newManager(cfg *config.Config) (*ai.Manager, error) {
	embedder, err := ai.BuildEmbedder(cfg.AI.Embedders)
	if err != nil {
		return nil, err
	}
	var generator ai.IGenerator
	if len(cfg.AI.Generators) > 0 {
		generator, err = ai.BuildGenerator(cfg.AI.Generators, ai.GenerateOptions{
			Temperature: *cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
	} else {
		logutil.GetLogger(context.Background()).Warn("no generator configured, chat answers will use fallback texts")
	}
	return ai.NewManager(generator, embedder, ai.ManagerConfig{
		Timeout:          cfg.AI.Timeout,
		EmbedBatchSize:   cfg.RAG.EmbedBatchSize,
		EmbedConcurrency: cfg.RAG.EmbedConcurrency,
	}), nil
}

func newResolver(cfg *config.Config) (*brand.Resolver, error) {
	reg := brand.DefaultRegistry()
	if cfg.ProfilesFile != "" {
		var err error
		if reg, err = brand.LoadRegistry(cfg.ProfilesFile); err != nil {
			return nil, fmt.Errorf("load brand profiles: %w", err)
		}
	}
	return brand.NewResolver(reg, nil), nil
}

func newRemoteStore(cfg *config.Config) (filestore.Store, error) {
	if !cfg.RemoteIndex.Enabled {
		return nil, nil
	}
	store, err := filestore.New(cfg.RemoteIndex)
	if err != nil {
		return nil, fmt.Errorf("init remote index store: %w", err)
	}
	return store, nil
}

func newLoader(cfg *config.Config) *ingest.Loader {
	return ingest.NewLoader(ingest.LoaderConfig{
		Extensions:       cfg.RAG.Extensions,
		MinContentLength: cfg.RAG.MinContentLength,
		ChunkSize:        cfg.RAG.ChunkSize,
		ChunkOverlap:     *cfg.RAG.ChunkOverlap,
	})
}

func sourcesFromConfig(cfg *config.Config) []ingest.Source {
	out := make([]ingest.Source, 0, len(cfg.RAG.Sources))
	for _, src := range cfg.RAG.Sources {
		out = append(out, ingest.Source{
			Path:    src.Path,
			DocType: model.DocType(src.DocType),
			Label:   src.Label,
		})
	}
	return out
}

// queryEmbedder wraps the configured embedder with the query cache.
func queryEmbedder(cfg *config.Config, manager *ai.Manager) ai.IEmbedder {
	return embedcache.WrapLru(manager.Embedder(), cfg.AI.EmbedCacheSize, time.Duration(cfg.AI.EmbedCacheTTL)*time.Second)
}

// loadRetriever opens the configured index, pulling it from the remote
// store first when it is not present locally.
func loadRetriever(ctx context.Context, cfg *config.Config, embedder ai.IEmbedder) (*retriever.Retriever, error) {
	dir, name := cfg.RAG.IndexDir, cfg.RAG.IndexName
	if !vectorindex.Exists(dir, name) {
		store, err := newRemoteStore(cfg)
		if err != nil {
			return nil, err
		}
		if store != nil {
			logutil.GetLogger(ctx).Info("local index missing, pulling from remote store",
				zap.String("dir", dir), zap.String("name", name), zap.String("store", store.Type()))
			if err := filestore.Pull(ctx, store, cfg.RemoteIndex.Prefix, dir, vectorindex.ArtifactNames(name)); err != nil {
				logutil.GetLogger(ctx).Error("pull remote index failed", zap.Error(err))
			}
		}
	}
	return retriever.Load(ctx, dir, name, embedder, retriever.Config{
		DefaultK:        cfg.RAG.DefaultK,
		FetchMultiplier: cfg.RAG.FetchMultiplier,
		SearchTimeout:   time.Duration(cfg.RAG.SearchTimeoutMs) * time.Millisecond,
		Concurrency:     cfg.RAG.SearchConcurrency,
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
