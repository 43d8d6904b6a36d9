package transcribe

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/killallgit/ingest-platform/internal/blobstore"
)

// memStore is a minimal in-memory blobstore.Store for unit tests that don't
// need a real filesystem or S3 backend.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return v, nil
}

func (m *memStore) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	v, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(v)), nil
}

func (m *memStore) Put(ctx context.Context, key string, data []byte) error {
	m.data[key] = data
	return nil
}

func (m *memStore) PutReader(ctx context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return m.Put(ctx, key, data)
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *memStore) Size(ctx context.Context, key string) (int64, error) {
	v, ok := m.data[key]
	if !ok {
		return 0, blobstore.ErrNotFound
	}
	return int64(len(v)), nil
}

func (m *memStore) List(ctx context.Context, prefix string) ([]blobstore.Object, error) {
	var out []blobstore.Object
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, blobstore.Object{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memStore) ListDirs(ctx context.Context, prefix string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for k := range m.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			dir := rest[:idx]
			if !seen[dir] {
				seen[dir] = true
				out = append(out, dir)
			}
		}
	}
	return out, nil
}

func (m *memStore) DirectoryExists(ctx context.Context, prefix string) (bool, error) {
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) DirectorySize(ctx context.Context, prefix string) (int64, error) {
	var total int64
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			total += int64(len(v))
		}
	}
	return total, nil
}
