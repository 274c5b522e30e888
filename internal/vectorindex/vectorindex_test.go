package vectorindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/brandbot/internal/model"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

// axisEmbedder maps each known text onto its own axis so nearest neighbours
// are unambiguous.
type axisEmbedder struct {
	axes map[string]int
	dims int
}

func (a *axisEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string, progress func(done, total int)) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = a.vector(t)
	}
	if progress != nil {
		progress(len(texts), len(texts))
	}
	return out, nil
}

func (a *axisEmbedder) EmbeddingModelName() string {
	return "axis-test"
}

func (a *axisEmbedder) vector(text string) []float32 {
	vec := make([]float32, a.dims)
	vec[a.axes[text]] = 1
	return vec
}

func testChunks() []model.Document {
	return []model.Document{
		{Content: "acme hours", Metadata: model.Metadata{DocType: model.DocTypeBrand, Brand: "acme", Category: model.CategoryBrandSpecific}},
		{Content: "beta hours", Metadata: model.Metadata{DocType: model.DocTypeBrand, Brand: "beta", Category: model.CategoryBrandSpecific}},
		{Content: "shipping policy", Metadata: model.Metadata{DocType: model.DocTypeKB, Category: model.CategoryGeneral}},
	}
}

func newAxisEmbedder() *axisEmbedder {
	return &axisEmbedder{
		axes: map[string]int{"acme hours": 0, "beta hours": 1, "shipping policy": 2},
		dims: 4,
	}
}

func TestBuild_NearestFirst(t *testing.T) {
	emb := newAxisEmbedder()
	ix, err := Build(context.Background(), emb, testChunks())
	require.NoError(t, err)
	require.Equal(t, 3, ix.Len())
	require.Equal(t, "axis-test", ix.Manifest().Model)
	require.Equal(t, 4, ix.Manifest().Dims)

	res := ix.Nearest(emb.vector("beta hours"), 2)
	require.NotEmpty(t, res)
	require.Equal(t, "beta hours", res[0].Content)
	require.NotEmpty(t, res[0].ID)
	for i := 1; i < len(res); i++ {
		require.LessOrEqual(t, res[i-1].Distance, res[i].Distance)
	}
	require.Nil(t, ix.Nearest([]float32{1}, 2))
}

func TestBuild_NoChunks(t *testing.T) {
	_, err := Build(context.Background(), newAxisEmbedder(), nil)
	require.ErrorIs(t, err, appErr.ErrNoDocuments)
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	emb := newAxisEmbedder()
	ix, err := Build(ctx, emb, testChunks())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "nested", "index")
	require.NoError(t, Persist(ctx, ix, dir, "index"))
	require.True(t, Exists(dir, "index"))

	loaded, err := Load(dir, "index")
	require.NoError(t, err)
	require.Equal(t, ix.Manifest(), loaded.Manifest())
	res := loaded.Nearest(emb.vector("acme hours"), 1)
	require.Len(t, res, 1)
	require.Equal(t, "acme hours", res[0].Content)
	require.Equal(t, "acme", res[0].Metadata.Brand)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestPersist_RebuildReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	emb := newAxisEmbedder()
	dir := t.TempDir()
	first, err := Build(ctx, emb, testChunks())
	require.NoError(t, err)
	require.NoError(t, Persist(ctx, first, dir, "index"))

	second, err := Build(ctx, emb, testChunks()[:2])
	require.NoError(t, err)
	require.NoError(t, Persist(ctx, second, dir, "index"))

	loaded, err := Load(dir, "index")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
}

func TestSwapInto_FailureRestoresPrevious(t *testing.T) {
	ctx := context.Background()
	emb := newAxisEmbedder()
	dir := t.TempDir()
	first, err := Build(ctx, emb, testChunks())
	require.NoError(t, err)
	require.NoError(t, Persist(ctx, first, dir, "index"))
	graphBefore, err := os.ReadFile(filepath.Join(dir, "index.hnsw"))
	require.NoError(t, err)
	docsBefore, err := os.ReadFile(filepath.Join(dir, "index.docs"))
	require.NoError(t, err)

	second, err := Build(ctx, emb, testChunks()[:2])
	require.NoError(t, err)
	other := t.TempDir()
	require.NoError(t, Persist(ctx, second, other, "index"))
	// the staged docstore is missing, so installing it fails after the graph
	// was already moved into place
	staging := t.TempDir()
	require.NoError(t, os.Rename(filepath.Join(other, "index.hnsw"), filepath.Join(staging, "index.hnsw")))

	require.Error(t, swapInto(staging, dir, ArtifactNames("index")))

	graphAfter, err := os.ReadFile(filepath.Join(dir, "index.hnsw"))
	require.NoError(t, err)
	docsAfter, err := os.ReadFile(filepath.Join(dir, "index.docs"))
	require.NoError(t, err)
	require.Equal(t, graphBefore, graphAfter)
	require.Equal(t, docsBefore, docsAfter)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotEqual(t, ".bak", filepath.Ext(e.Name()))
	}
	require.Len(t, entries, 2)

	loaded, err := Load(dir, "index")
	require.NoError(t, err)
	require.Equal(t, len(testChunks()), loaded.Len())
}

func TestLoad_Failures(t *testing.T) {
	ctx := context.Background()
	_, err := Load(filepath.Join(t.TempDir(), "missing"), "index")
	require.ErrorIs(t, err, appErr.ErrIndexNotFound)

	dir := t.TempDir()
	ix, err := Build(ctx, newAxisEmbedder(), testChunks())
	require.NoError(t, err)
	require.NoError(t, Persist(ctx, ix, dir, "index"))

	require.NoError(t, os.Remove(filepath.Join(dir, "index.docs")))
	_, err = Load(dir, "index")
	require.ErrorIs(t, err, appErr.ErrIndexIncomplete)
	require.True(t, appErr.IsIndexFatal(err))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.docs"), []byte("{not json"), 0o644))
	_, err = Load(dir, "index")
	require.ErrorIs(t, err, appErr.ErrIndexCorrupt)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.docs"), nil, 0o644))
	_, err = Load(dir, "index")
	require.ErrorIs(t, err, appErr.ErrIndexIncomplete)
}

func TestVerify_ReportAndCountMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ix, err := Build(ctx, newAxisEmbedder(), testChunks())
	require.NoError(t, err)
	require.NoError(t, Persist(ctx, ix, dir, "index"))

	rep, err := Verify(ctx, dir, "index", 3, 5)
	require.NoError(t, err)
	require.Equal(t, 3, rep.Count)
	require.Equal(t, 3, rep.Sampled)
	require.Equal(t, map[string]int{"acme": 1, "beta": 1}, rep.Brands)
	require.Equal(t, map[string]int{"brand": 2, "kb": 1}, rep.DocTypes)
	require.Equal(t, 2, rep.Categories[model.CategoryBrandSpecific])
	require.Positive(t, rep.GraphBytes)
	require.Positive(t, rep.DocsBytes)

	_, err = Verify(ctx, dir, "index", 4, 5)
	require.ErrorIs(t, err, appErr.ErrIndexCorrupt)

	_, err = Verify(ctx, dir, "index", -1, 1)
	require.NoError(t, err)
}

func TestSamplePositions(t *testing.T) {
	require.Equal(t, []int{0, 1, 2}, samplePositions(3, 10))
	require.Equal(t, []int{0, 4, 9}, samplePositions(10, 3))
	require.Equal(t, []int{0}, samplePositions(10, 1))
	require.Nil(t, samplePositions(0, 3))
}
