package vectorindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/model"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

type Report struct {
	Dir        string         `json:"dir"`
	Name       string         `json:"name"`
	Model      string         `json:"model"`
	Dims       int            `json:"dims"`
	Count      int            `json:"count"`
	Expected   int            `json:"expected"`
	GraphBytes int64          `json:"graph_bytes"`
	DocsBytes  int64          `json:"docs_bytes"`
	BuildTime  int64          `json:"build_time"`
	Sampled    int            `json:"sampled"`
	Brands     map[string]int `json:"brands"`
	DocTypes   map[string]int `json:"doc_types"`
	Categories map[string]int `json:"categories"`
}

// Verify reloads index name from dir and checks it. A negative expected
// skips the count comparison.
func Verify(ctx context.Context, dir, name string, expected, sampleSize int) (*Report, error) {
	ix, err := Load(dir, name)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		Dir:        dir,
		Name:       name,
		Model:      ix.manifest.Model,
		Dims:       ix.manifest.Dims,
		Count:      ix.Len(),
		Expected:   expected,
		BuildTime:  ix.manifest.BuildTime,
		Brands:     map[string]int{},
		DocTypes:   map[string]int{},
		Categories: map[string]int{},
	}
	if rep.GraphBytes, err = fileSize(filepath.Join(dir, name+graphExt)); err != nil {
		return nil, err
	}
	if rep.DocsBytes, err = fileSize(filepath.Join(dir, name+docsExt)); err != nil {
		return nil, err
	}
	if expected >= 0 && rep.Count != expected {
		return rep, fmt.Errorf("docstore has %d documents, expected %d: %w", rep.Count, expected, appErr.ErrIndexCorrupt)
	}
	for _, d := range ix.docs {
		md := d.Metadata
		if md.DocType == model.DocTypeBrand {
			rep.Brands[md.Brand]++
		}
		rep.DocTypes[string(md.DocType)]++
		rep.Categories[md.Category]++
	}
	for _, pos := range samplePositions(ix.Len(), sampleSize) {
		doc := ix.docs[pos]
		rep.Sampled++
		if strings.TrimSpace(doc.Content) == "" {
			return rep, fmt.Errorf("document %d has no content: %w", pos, appErr.ErrIndexCorrupt)
		}
		if doc.Metadata.DocType == model.DocTypeBrand && doc.Metadata.Brand == "" {
			return rep, fmt.Errorf("brand document %d has no brand: %w", pos, appErr.ErrIndexCorrupt)
		}
	}
	logutil.GetLogger(ctx).Info("index verified",
		zap.String("dir", dir),
		zap.String("name", name),
		zap.Int("count", rep.Count),
		zap.Int("sampled", rep.Sampled),
		zap.String("model", rep.Model),
	)
	return rep, nil
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), appErr.ErrIndexIncomplete)
	}
	if fi.Size() == 0 {
		return 0, fmt.Errorf("%s is empty: %w", filepath.Base(path), appErr.ErrIndexIncomplete)
	}
	return fi.Size(), nil
}

// samplePositions spreads up to n positions evenly over [0, total), always
// including the first and the last document.
func samplePositions(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	if n >= total {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	if n == 1 {
		return []int{0}
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, i*(total-1)/(n-1))
	}
	return out
}
