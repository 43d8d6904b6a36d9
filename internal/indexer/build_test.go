package indexer

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	"github.com/killallgit/ingest-platform/internal/manifest"
)

// memStore is a minimal in-memory blobstore.Store shared by this package's
// tests — it mirrors internal/transcribe's test helper since each package
// keeps its own test-only double rather than exporting one from blobstore.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

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
func (m *memStore) ListDirs(ctx context.Context, prefix string) ([]string, error) { return nil, nil }
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

const sampleSRT = `1
00:00:00,000 --> 00:00:02,000
hello world

2
00:00:02,000 --> 00:00:04,000
second cue

`

func TestBuildIndexesKnownEpisodesAndSkipsUnknown(t *testing.T) {
	blobs := newMemStore()
	require.NoError(t, blobs.Put(context.Background(), "transcripts/feed1/ep1.srt", []byte(sampleSRT)))
	require.NoError(t, blobs.Put(context.Background(), "transcripts/feed1/orphan.srt", []byte(sampleSRT)))

	manifests := manifest.NewStore(blobs)
	m, err := manifests.Load(context.Background())
	require.NoError(t, err)
	m.Episodes = append(m.Episodes, manifest.Episode{
		SequentialID:      1,
		FileKey:           "ep1",
		PublishedAtUnixMs: 1700000000000,
	})
	require.NoError(t, manifests.Save(context.Background(), m))

	result, err := Build(context.Background(), blobs, manifests)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntriesIndexed)
	assert.Equal(t, []string{"transcripts/feed1/orphan.srt"}, result.SRTsSkipped)

	raw, err := blobs.Get(context.Background(), blobstore.IndexKey)
	require.NoError(t, err)

	restored, err := Deserialize(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Len())
}
