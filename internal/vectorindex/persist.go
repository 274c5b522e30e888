package vectorindex

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/coder/hnsw"
	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/model"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

const (
	graphExt = ".hnsw"
	docsExt  = ".docs"
)

type docstoreFile struct {
	Manifest  model.IndexManifest `json:"manifest"`
	Documents []storedDocument    `json:"documents"`
}

// ArtifactNames lists the companion files that make up index name.
func ArtifactNames(name string) []string {
	return []string{name + graphExt, name + docsExt}
}

// Exists reports whether both companion files are present in dir.
func Exists(dir, name string) bool {
	for _, f := range ArtifactNames(name) {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return false
		}
	}
	return true
}

// Persist writes both files into a staging directory inside dir and moves
// them over the previous pair only after both were written. A failed run
// leaves the previous index untouched.
func Persist(ctx context.Context, ix *Index, dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	staging := filepath.Join(dir, "."+name+"-"+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writeGraph(ix, filepath.Join(staging, name+graphExt)); err != nil {
		return err
	}
	if err := writeDocstore(ix, filepath.Join(staging, name+docsExt)); err != nil {
		return err
	}
	if err := swapInto(staging, dir, ArtifactNames(name)); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("index persisted",
		zap.String("dir", dir),
		zap.String("name", name),
		zap.Int("count", ix.Len()),
	)
	return nil
}

func writeGraph(ix *Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := ix.graph.Export(w); err != nil {
		f.Close()
		return fmt.Errorf("export graph: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush graph: %w", err)
	}
	return f.Close()
}

func writeDocstore(ix *Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create docstore file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := json.NewEncoder(w).Encode(docstoreFile{Manifest: ix.manifest, Documents: ix.docs}); err != nil {
		f.Close()
		return fmt.Errorf("encode docstore: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush docstore: %w", err)
	}
	return f.Close()
}

// swapInto moves the named files from staging into dir. Existing files are
// kept as .bak until every rename succeeded and restored otherwise.
func swapInto(staging, dir string, names []string) error {
	var backups []string
	restore := func() {
		for _, n := range backups {
			_ = os.Rename(filepath.Join(dir, n+".bak"), filepath.Join(dir, n))
		}
	}
	for _, n := range names {
		cur := filepath.Join(dir, n)
		if _, err := os.Stat(cur); err == nil {
			if err := os.Rename(cur, cur+".bak"); err != nil {
				restore()
				return fmt.Errorf("backup %s: %w", n, err)
			}
			backups = append(backups, n)
		}
	}
	for _, n := range names {
		if err := os.Rename(filepath.Join(staging, n), filepath.Join(dir, n)); err != nil {
			restore()
			return fmt.Errorf("install %s: %w", n, err)
		}
	}
	for _, n := range backups {
		_ = os.Remove(filepath.Join(dir, n+".bak"))
	}
	return nil
}

// Load reads the companion files of index name from dir.
func Load(dir, name string) (*Index, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fmt.Errorf("%s: %w", dir, appErr.ErrIndexNotFound)
	}
	if err != nil {
		return nil, err
	}
	graphPath := filepath.Join(dir, name+graphExt)
	docsPath := filepath.Join(dir, name+docsExt)
	for _, p := range []string{graphPath, docsPath} {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), appErr.ErrIndexIncomplete)
		}
		if fi.Size() == 0 {
			return nil, fmt.Errorf("%s is empty: %w", filepath.Base(p), appErr.ErrIndexIncomplete)
		}
	}
	store, err := readDocstore(docsPath)
	if err != nil {
		return nil, err
	}
	graph, err := readGraph(graphPath)
	if err != nil {
		return nil, err
	}
	if graph.Len() != len(store.Documents) {
		return nil, fmt.Errorf("graph has %d vectors, docstore has %d documents: %w",
			graph.Len(), len(store.Documents), appErr.ErrIndexCorrupt)
	}
	if store.Manifest.Count != len(store.Documents) {
		return nil, fmt.Errorf("manifest count %d, docstore has %d documents: %w",
			store.Manifest.Count, len(store.Documents), appErr.ErrIndexCorrupt)
	}
	return &Index{graph: graph, docs: store.Documents, manifest: store.Manifest}, nil
}

func readDocstore(path string) (*docstoreFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docstore: %w", err)
	}
	defer f.Close()
	store := &docstoreFile{}
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(store); err != nil {
		return nil, fmt.Errorf("decode docstore: %v: %w", err, appErr.ErrIndexCorrupt)
	}
	return store, nil
}

func readGraph(path string) (*hnsw.Graph[int], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()
	graph := newGraph()
	if err := graph.Import(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("import graph: %v: %w", err, appErr.ErrIndexCorrupt)
	}
	return graph, nil
}
