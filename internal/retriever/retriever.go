package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xxxsen/brandbot/internal/ai"
	"github.com/xxxsen/brandbot/internal/brand"
	"github.com/xxxsen/brandbot/internal/model"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
	"github.com/xxxsen/brandbot/internal/vectorindex"
)

const warmupText = "ping"

// NeighborSearcher is the read side of a loaded index.
type NeighborSearcher interface {
	Nearest(vec []float32, n int) []model.ScoredDocument
	Len() int
	Manifest() model.IndexManifest
}

type Config struct {
	DefaultK        int
	FetchMultiplier int
	SearchTimeout   time.Duration
	Concurrency     int
}

type Stats struct {
	Documents int    `json:"documents"`
	Model     string `json:"model"`
	Dims      int    `json:"dims"`
	BuildTime int64  `json:"build_time"`
	Empty     bool   `json:"empty"`
}

// Retriever answers similarity queries against one immutable index handle.
// It is safe for concurrent use.
type Retriever struct {
	index    NeighborSearcher
	embedder ai.IEmbedder
	sem      *semaphore.Weighted
	cfg      Config
}

func New(index NeighborSearcher, embedder ai.IEmbedder, cfg Config) *Retriever {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 3
	}
	if cfg.FetchMultiplier <= 0 {
		cfg.FetchMultiplier = 2
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Retriever{
		index:    index,
		embedder: embedder,
		sem:      semaphore.NewWeighted(int64(cfg.Concurrency)),
		cfg:      cfg,
	}
}

// Load opens index name from dir and checks that embedder produces vectors
// compatible with it. The returned error wraps one of the index sentinels
// when the handle cannot be served. An empty index is only logged.
func Load(ctx context.Context, dir, name string, embedder ai.IEmbedder, cfg Config) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("no embedder: %w", appErr.ErrEmbedderInit)
	}
	ix, err := vectorindex.Load(dir, name)
	if err != nil {
		return nil, err
	}
	if err := checkCompatible(ctx, ix, embedder); err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx)
	if ix.Len() == 0 {
		logger.Warn("index loaded but empty", zap.String("dir", dir), zap.String("name", name))
	} else {
		logger.Info("index loaded",
			zap.String("dir", dir),
			zap.String("name", name),
			zap.Int("documents", ix.Len()),
			zap.String("model", ix.Manifest().Model),
		)
	}
	return New(ix, embedder, cfg), nil
}

func checkCompatible(ctx context.Context, ix NeighborSearcher, embedder ai.IEmbedder) error {
	manifest := ix.Manifest()
	if manifest.Model != "" && embedder.ModelName() != manifest.Model {
		return fmt.Errorf("index built with %q, embedder is %q: %w",
			manifest.Model, embedder.ModelName(), appErr.ErrIndexCorrupt)
	}
	vec, err := embedder.Embed(ctx, warmupText, ai.TaskTypeQuery)
	if err != nil {
		return fmt.Errorf("warm up embedder: %v: %w", err, appErr.ErrEmbedderInit)
	}
	if manifest.Dims > 0 && len(vec) != manifest.Dims {
		return fmt.Errorf("index has %d dims, embedder returns %d: %w",
			manifest.Dims, len(vec), appErr.ErrIndexCorrupt)
	}
	return nil
}

func (r *Retriever) Stats() Stats {
	m := r.index.Manifest()
	return Stats{
		Documents: r.index.Len(),
		Model:     m.Model,
		Dims:      m.Dims,
		BuildTime: m.BuildTime,
		Empty:     r.index.Len() == 0,
	}
}

type searchResult struct {
	docs []model.ScoredDocument
	err  error
}

// Search returns up to k unique documents nearest to query. A non-blank
// rawBrand restricts results to that brand's documents. Failures and
// timeouts degrade to an empty result.
func (r *Retriever) Search(ctx context.Context, query, rawBrand string, k int) []model.ScoredDocument {
	logger := logutil.GetLogger(ctx)
	if k <= 0 {
		k = r.cfg.DefaultK
	}
	query = CleanQuery(query)
	if query == "" {
		return nil
	}
	if r.index.Len() == 0 {
		logger.Warn("search on empty index")
		return nil
	}
	if r.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.SearchTimeout)
		defer cancel()
	}
	fetch := k * r.cfg.FetchMultiplier
	ch := make(chan searchResult, 1)
	go func() {
		docs, err := r.nearest(ctx, query, fetch)
		ch <- searchResult{docs: docs, err: err}
	}()
	var res searchResult
	select {
	case <-ctx.Done():
		logger.Warn("search timed out", zap.Duration("timeout", r.cfg.SearchTimeout), zap.Error(ctx.Err()))
		return nil
	case res = <-ch:
	}
	if res.err != nil {
		logger.Error("search failed", zap.Error(res.err))
		return nil
	}
	brandKey := filterKey(rawBrand)
	out := selectResults(res.docs, brandKey, k)
	if brandKey != "" && len(out) == 0 {
		logger.Warn("no documents left after brand filter",
			zap.String("brand", brandKey),
			zap.Int("candidates", len(res.docs)),
		)
	}
	return out
}

func (r *Retriever) nearest(ctx context.Context, query string, n int) ([]model.ScoredDocument, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)
	vec, err := r.embedder.Embed(ctx, query, ai.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.index.Nearest(vec, n), nil
}

// filterKey maps a raw brand to the key stored in document metadata. A brand
// whose name normalizes to nothing is stored under its raw file stem, so the
// trimmed input is used as is.
func filterKey(rawBrand string) string {
	if key := brand.Normalize(rawBrand); key != "" {
		return key
	}
	return strings.TrimSpace(rawBrand)
}

// selectResults keeps only brandKey's documents when a brand key is given,
// then the first occurrence of each exact content in rank order.
func selectResults(cands []model.ScoredDocument, brandKey string, k int) []model.ScoredDocument {
	out := make([]model.ScoredDocument, 0, k)
	seen := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		if len(out) >= k {
			break
		}
		if brandKey != "" && c.Metadata.Brand != brandKey {
			continue
		}
		if _, ok := seen[c.Content]; ok {
			continue
		}
		seen[c.Content] = struct{}{}
		out = append(out, c)
	}
	return out
}
