package blobstore

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// localStore resolves keys under {root}/sites/{siteId}/{key}. Multiple sites
// share one filesystem root, so every path is site-prefixed.
type localStore struct {
	root   string
	siteID string
}

func newLocalStore(cfg Config) *localStore {
	return &localStore{root: cfg.LocalRoot, siteID: cfg.SiteID}
}

func (s *localStore) path(key string) string {
	return filepath.Join(s.root, "sites", s.siteID, filepath.FromSlash(key))
}

func (s *localStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, apperrors.TransientIO("blobstore.local.Get", err)
	}
	return data, nil
}

func (s *localStore) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, apperrors.TransientIO("blobstore.local.GetReader", err)
	}
	return f, nil
}

func (s *localStore) Put(ctx context.Context, key string, data []byte) error {
	return s.PutReader(ctx, key, strings.NewReader(string(data)))
}

// PutReader writes via write-then-rename so a reader never observes a
// partially written file, matching §4.3's atomic-rewrite requirement for the
// manifest and every other single-writer artifact.
func (s *localStore) PutReader(ctx context.Context, key string, r io.Reader) error {
	dest := s.path(key)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.TransientIO("blobstore.local.PutReader.mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return apperrors.TransientIO("blobstore.local.PutReader.createtemp", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperrors.TransientIO("blobstore.local.PutReader.copy", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperrors.TransientIO("blobstore.local.PutReader.close", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return apperrors.TransientIO("blobstore.local.PutReader.rename", err)
	}
	return nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return apperrors.TransientIO("blobstore.local.Delete", err)
	}
	return nil
}

func (s *localStore) Exists(ctx context.Context, key string) (bool, error) {
	info, err := os.Stat(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.TransientIO("blobstore.local.Exists", err)
	}
	return !info.IsDir(), nil
}

func (s *localStore) Size(ctx context.Context, key string) (int64, error) {
	info, err := os.Stat(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, apperrors.TransientIO("blobstore.local.Size", err)
	}
	return info.Size(), nil
}

func (s *localStore) List(ctx context.Context, prefix string) ([]Object, error) {
	base := s.path(prefix)
	var objects []Object

	err := filepath.Walk(base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.path(""), p)
		if err != nil {
			return err
		}
		objects = append(objects, Object{Key: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, apperrors.TransientIO("blobstore.local.List", err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	if len(objects) > pagingLogThreshold {
		log.Printf("[DEBUG] blobstore.local.List: %d entries under %q", len(objects), prefix)
	}
	return objects, nil
}

func (s *localStore) ListDirs(ctx context.Context, prefix string) ([]string, error) {
	base := s.path(prefix)
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.TransientIO("blobstore.local.ListDirs", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, strings.TrimSuffix(prefix, "/")+"/"+e.Name()+"/")
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (s *localStore) DirectoryExists(ctx context.Context, prefix string) (bool, error) {
	info, err := os.Stat(s.path(prefix))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.TransientIO("blobstore.local.DirectoryExists", err)
	}
	return info.IsDir(), nil
}

func (s *localStore) DirectorySize(ctx context.Context, prefix string) (int64, error) {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, o := range objects {
		total += o.Size
	}
	return total, nil
}
