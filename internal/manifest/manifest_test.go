package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/ingest-platform/internal/blobstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	blobs, err := blobstore.New(context.Background(), blobstore.Config{
		Env: blobstore.EnvLocal, SiteID: "siteA", LocalRoot: t.TempDir(),
	})
	require.NoError(t, err)
	return NewStore(blobs)
}

func TestLoadAbsentManifestIsEmpty(t *testing.T) {
	store := newTestStore(t)
	m, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Episodes)
}

func TestUpsertAssignsSequentialIDs(t *testing.T) {
	m := &Manifest{}

	first, isNew := m.Upsert(Episode{FileKey: "2020-01-06_The-Opener", Title: "The Opener", OriginalAudioURL: "https://x/ep1.mp3"})
	assert.True(t, isNew)
	assert.Equal(t, 1, first.SequentialID)

	second, isNew := m.Upsert(Episode{FileKey: "2020-01-13_Episode-Two", OriginalAudioURL: "https://x/ep2.mp3"})
	assert.True(t, isNew)
	assert.Equal(t, 2, second.SequentialID)
}

func TestUpsertPreservesIdentityOnRetitle(t *testing.T) {
	m := &Manifest{}
	original, _ := m.Upsert(Episode{FileKey: "2020-01-06_The-Opener", Title: "The Opener", OriginalAudioURL: "https://x/ep1.mp3"})

	// Same audio URL, different title/fileKey candidate: must match by URL
	// and keep the original SequentialID and FileKey (§3 invariant).
	updated, isNew := m.Upsert(Episode{FileKey: "2020-01-06_Opener-Redux", Title: "Opener (Redux)", OriginalAudioURL: "https://x/ep1.mp3"})
	assert.False(t, isNew)
	assert.Equal(t, original.SequentialID, updated.SequentialID)
	assert.Equal(t, original.FileKey, updated.FileKey)
	assert.Equal(t, "Opener (Redux)", updated.Title)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	m := &Manifest{}
	m.Upsert(Episode{FileKey: "2020-01-06_The-Opener", Title: "The Opener", OriginalAudioURL: "https://x/ep1.mp3", FeedID: "feedA"})
	require.NoError(t, store.Save(ctx, m))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Episodes, 1)
	assert.Equal(t, "feedA", loaded.Episodes[0].FeedID)
}
