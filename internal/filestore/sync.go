package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

func objectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Push uploads the named files from dir under prefix.
func Push(ctx context.Context, store Store, prefix, dir string, names []string) error {
	for _, name := range names {
		if err := pushFile(ctx, store, objectKey(prefix, name), filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	logutil.GetLogger(ctx).Info("index artifacts pushed",
		zap.String("store", store.Type()),
		zap.String("prefix", prefix),
		zap.Strings("files", names),
	)
	return nil
}

func pushFile(ctx context.Context, store Store, key, local string) error {
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("open %s: %w", local, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, f, info.Size()); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Pull downloads the named files into dir. Files are staged next to their
// destination and only renamed into place once every download succeeded, so
// a failed pull leaves the previous artifacts untouched.
func Pull(ctx context.Context, store Store, prefix, dir string, names []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	staged := make([]string, 0, len(names))
	cleanup := func() {
		for _, p := range staged {
			_ = os.Remove(p)
		}
	}
	for _, name := range names {
		tmp := filepath.Join(dir, name+".pull")
		staged = append(staged, tmp)
		if err := pullFile(ctx, store, objectKey(prefix, name), tmp); err != nil {
			cleanup()
			return err
		}
	}
	for i, name := range names {
		if err := os.Rename(staged[i], filepath.Join(dir, name)); err != nil {
			cleanup()
			return err
		}
	}
	logutil.GetLogger(ctx).Info("index artifacts pulled",
		zap.String("store", store.Type()),
		zap.String("prefix", prefix),
		zap.Strings("files", names),
	)
	return nil
}

func pullFile(ctx context.Context, store Store, key, dst string) error {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer rc.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("download %s: %w", key, err)
	}
	return out.Close()
}
