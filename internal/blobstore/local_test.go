package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) *localStore {
	t.Helper()
	return newLocalStore(Config{Env: EnvLocal, SiteID: "siteA", LocalRoot: t.TempDir()})
}

func TestLocalStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	require.NoError(t, store.Put(ctx, AudioKey("feedA", "2020-01-06_The-Opener"), []byte("hello")))

	data, err := store.Get(ctx, AudioKey("feedA", "2020-01-06_The-Opener"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	ok, err := store.Exists(ctx, AudioKey("feedA", "2020-01-06_The-Opener"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLocalStoreGetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	_, err := store.Get(ctx, "audio/feedA/missing.mp3")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStoreListPagination(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	for i := 0; i < 1022; i++ {
		key := TranscriptKey("feedA", padKey(i))
		require.NoError(t, store.Put(ctx, key, []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n\n")))
	}

	objects, err := store.List(ctx, PrefixTranscripts+"/")
	require.NoError(t, err)
	require.Len(t, objects, 1022)
}

func padKey(i int) string {
	return "ep-" + itoa(i)
}

func itoa(i int) string {
	digits := []byte{}
	if i == 0 {
		return "0"
	}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
