package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/brand"
	"github.com/xxxsen/brandbot/internal/model"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

type Source struct {
	Path    string
	DocType model.DocType
	Label   string
}

type Stats struct {
	Processed      int            `json:"processed"`
	Skipped        int            `json:"skipped"`
	Failed         int            `json:"failed"`
	MissingSources int            `json:"missing_sources"`
	Chunks         int            `json:"chunks"`
	PerSource      map[string]int `json:"per_source"`
}

type extractor func(raw []byte) string

type Loader struct {
	extensions map[string]extractor
	minLength  int
	splitter   *Splitter
}

type LoaderConfig struct {
	Extensions       []string
	MinContentLength int
	ChunkSize        int
	ChunkOverlap     int
}

func NewLoader(cfg LoaderConfig) *Loader {
	exts := make(map[string]extractor, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		switch ext {
		case ".md", ".markdown":
			exts[ext] = markdownToText
		default:
			exts[ext] = func(raw []byte) string { return string(raw) }
		}
	}
	if len(exts) == 0 {
		exts[".txt"] = func(raw []byte) string { return string(raw) }
	}
	minLength := cfg.MinContentLength
	if minLength <= 0 {
		minLength = 10
	}
	return &Loader{
		extensions: exts,
		minLength:  minLength,
		splitter:   NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
	}
}

// LoadAndChunk reads every source tree and splits the documents into chunks.
// Per-file problems are logged and counted in Stats; an error is returned only
// when nothing usable was produced.
func (l *Loader) LoadAndChunk(ctx context.Context, sources []Source) ([]model.Document, *Stats, error) {
	docs, stats := l.Load(ctx, sources)
	if len(docs) == 0 {
		return nil, stats, fmt.Errorf("load sources: %w", appErr.ErrNoDocuments)
	}
	chunks := l.splitter.SplitDocuments(docs)
	stats.Chunks = len(chunks)
	logutil.GetLogger(ctx).Info("documents chunked",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", l.splitter.ChunkSize()),
	)
	if len(chunks) == 0 {
		return nil, stats, fmt.Errorf("split documents: %w", appErr.ErrNoDocuments)
	}
	return chunks, stats, nil
}

func (l *Loader) Load(ctx context.Context, sources []Source) ([]model.Document, *Stats) {
	logger := logutil.GetLogger(ctx)
	stats := &Stats{PerSource: make(map[string]int, len(sources))}
	var docs []model.Document
	for _, src := range sources {
		label := src.Label
		if label == "" {
			label = string(src.DocType)
		}
		info, err := os.Stat(src.Path)
		if err != nil || !info.IsDir() {
			stats.MissingSources++
			logger.Warn("source directory not found", zap.String("source", label), zap.String("path", src.Path))
			continue
		}
		before := len(docs)
		walkErr := filepath.WalkDir(src.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				stats.Failed++
				logger.Error("walk source failed", zap.String("path", path), zap.Error(err))
				return nil
			}
			if d.IsDir() {
				return nil
			}
			extract, ok := l.extensions[strings.ToLower(filepath.Ext(path))]
			if !ok {
				return nil
			}
			doc, ok, err := l.loadFile(src, path, extract)
			switch {
			case err != nil:
				stats.Failed++
				logger.Error("load file failed", zap.String("path", path), zap.Error(err))
			case !ok:
				stats.Skipped++
				logger.Warn("file skipped: content too short", zap.String("path", path), zap.Int("min_length", l.minLength))
			default:
				stats.Processed++
				docs = append(docs, doc)
			}
			return nil
		})
		if walkErr != nil {
			logger.Error("walk source aborted", zap.String("source", label), zap.Error(walkErr))
		}
		stats.PerSource[label] += len(docs) - before
		logger.Info("source loaded", zap.String("source", label), zap.Int("documents", len(docs)-before))
	}
	logger.Info("sources loaded",
		zap.Int("processed", stats.Processed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("missing_sources", stats.MissingSources),
	)
	return docs, stats
}

func (l *Loader) loadFile(src Source, path string, extract extractor) (model.Document, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, false, err
	}
	if !utf8.Valid(raw) {
		return model.Document{}, false, fmt.Errorf("file is not valid utf-8")
	}
	content := strings.TrimSpace(extract(raw))
	if utf8.RuneCountInString(content) < l.minLength {
		return model.Document{}, false, nil
	}
	rel, err := filepath.Rel(src.Path, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	filename := filepath.Base(path)
	md := model.Metadata{
		Source:   filepath.ToSlash(rel),
		Filename: filename,
		DocType:  src.DocType,
	}
	switch src.DocType {
	case model.DocTypeBrand:
		stem := strings.TrimSuffix(filename, filepath.Ext(filename))
		md.OriginalBrand = stem
		md.Brand = brand.Normalize(stem)
		if md.Brand == "" {
			md.Brand = stem
		}
		if md.Brand == "" {
			md.Brand = filename
		}
		md.Category = model.CategoryBrandSpecific
	default:
		md.Category = model.CategoryGeneral
		if dir := filepath.Dir(rel); dir != "." {
			md.Category = filepath.Base(dir)
		}
	}
	return model.Document{Content: content, Metadata: md}, true, nil
}
