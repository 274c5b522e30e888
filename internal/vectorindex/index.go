package vectorindex

import (
	"math/rand"
	"sort"

	"github.com/coder/hnsw"

	"github.com/xxxsen/brandbot/internal/model"
)

const (
	graphSeed     = 20240611
	graphEfSearch = 100
)

// Index pairs an HNSW graph with its docstore. Graph keys are positions in
// docs. An Index is never mutated after Build or Load returns it.
type Index struct {
	graph    *hnsw.Graph[int]
	docs     []storedDocument
	manifest model.IndexManifest
}

type storedDocument struct {
	ID string `json:"id"`
	model.Document
}

func newGraph() *hnsw.Graph[int] {
	g := hnsw.NewGraph[int]()
	g.Distance = hnsw.CosineDistance
	g.Rng = rand.New(rand.NewSource(graphSeed))
	g.EfSearch = graphEfSearch
	return g
}

func (ix *Index) Len() int {
	return len(ix.docs)
}

func (ix *Index) Manifest() model.IndexManifest {
	return ix.manifest
}

func (ix *Index) Document(pos int) (model.Document, bool) {
	if pos < 0 || pos >= len(ix.docs) {
		return model.Document{}, false
	}
	return ix.docs[pos].Document, true
}

// Nearest returns up to n documents ordered nearest first.
func (ix *Index) Nearest(vec []float32, n int) []model.ScoredDocument {
	if n <= 0 || len(ix.docs) == 0 || ix.graph.Len() == 0 {
		return nil
	}
	if len(vec) != ix.manifest.Dims {
		return nil
	}
	nodes := ix.graph.Search(vec, n)
	out := make([]model.ScoredDocument, 0, len(nodes))
	for _, node := range nodes {
		if node.Key < 0 || node.Key >= len(ix.docs) {
			continue
		}
		doc := ix.docs[node.Key]
		out = append(out, model.ScoredDocument{
			ID:       doc.ID,
			Document: doc.Document,
			Distance: hnsw.CosineDistance(vec, node.Value),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}
