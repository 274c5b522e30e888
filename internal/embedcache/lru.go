package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/ai"
)

type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// Embedder is an ai.IEmbedder that also reports cache effectiveness.
type Embedder interface {
	ai.IEmbedder
	CacheStats() Stats
}

// WrapLru returns e unchanged when caching is disabled by size or ttl.
func WrapLru(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next   ai.IEmbedder
	cache  *expirable.LRU[string, []float32]
	hits   atomic.Int64
	misses atomic.Int64
}

func (l *lruEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := buildCacheKey(l.next.ModelName(), taskType, text)
	if cached, ok := l.cache.Get(key); ok {
		l.hits.Add(1)
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.String("task_type", taskType))
		return cloneEmbedding(cached), nil
	}
	l.misses.Add(1)
	res, err := l.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, cloneEmbedding(res))
	return res, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}

func (l *lruEmbedder) CacheStats() Stats {
	return Stats{
		Hits:   l.hits.Load(),
		Misses: l.misses.Load(),
		Size:   l.cache.Len(),
	}
}

func buildCacheKey(modelName, taskType, text string) string {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return "embed:" + modelName + ":" + taskType + ":" + hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
