package vectorindex

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/hnsw"
	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/ai"
	"github.com/xxxsen/brandbot/internal/model"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

// BatchEmbedder is satisfied by *ai.Manager.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string, progress func(done, total int)) ([][]float32, error)
	EmbeddingModelName() string
}

// Build embeds every chunk and assembles the graph in one pass.
func Build(ctx context.Context, emb BatchEmbedder, chunks []model.Document) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("build index: %w", appErr.ErrNoDocuments)
	}
	logger := logutil.GetLogger(ctx)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	start := time.Now()
	vectors, err := emb.EmbedBatch(ctx, texts, ai.TaskTypeDocument, func(done, total int) {
		logger.Debug("embedding progress", zap.Int("done", done), zap.Int("total", total))
	})
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("embed chunks: empty vector")
	}
	nodes := make([]hnsw.Node[int], len(vectors))
	docs := make([]storedDocument, len(chunks))
	for i, vec := range vectors {
		if len(vec) != dims {
			return nil, fmt.Errorf("embed chunks: chunk %d has %d dims, want %d", i, len(vec), dims)
		}
		nodes[i] = hnsw.MakeNode(i, vec)
		docs[i] = storedDocument{ID: uuid.NewString(), Document: chunks[i]}
	}
	graph := newGraph()
	graph.Add(nodes...)
	ix := &Index{
		graph: graph,
		docs:  docs,
		manifest: model.IndexManifest{
			Model:     emb.EmbeddingModelName(),
			Dims:      dims,
			Count:     len(docs),
			BuildTime: time.Now().Unix(),
		},
	}
	logger.Info("index built",
		zap.Int("chunks", len(docs)),
		zap.Int("dims", dims),
		zap.String("model", ix.manifest.Model),
		zap.Duration("cost", time.Since(start)),
	)
	return ix, nil
}
