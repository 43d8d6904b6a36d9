package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	"github.com/killallgit/ingest-platform/internal/feed"
	"github.com/killallgit/ingest-platform/internal/transcribe"
	"github.com/killallgit/ingest-platform/pkg/transcript"
	"github.com/stretchr/testify/assert"
)

const idempotencyRSSFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Fixture Feed</title>
    <item>
      <title>Episode One</title>
      <pubDate>Mon, 06 Jan 2020 12:00:00 GMT</pubDate>
      <enclosure url="%s" type="audio/mpeg" length="10"/>
    </item>
  </channel>
</rss>`

// noopProvider satisfies transcribe.Provider without ever being reached in
// this test: ProcessEpisode validates ffmpeg/ffprobe binaries before
// dispatching to a Provider, and this test points those paths at binaries
// that don't exist, so transcription fails fast with a ConfigError instead
// of shelling out.
type noopProvider struct{}

func (noopProvider) Kind() transcribe.Kind { return transcribe.KindLocal }
func (noopProvider) TranscribeChunk(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	return &transcript.Transcript{}, nil
}
func (noopProvider) HealthCheck(ctx context.Context) error { return nil }

// TestRunAll_SecondRunIsNoOp exercises Phase 1-4 twice against an unchanged
// fixture feed and asserts the second run adds no blob keys and leaves the
// manifest's content unchanged (§8 property 3).
func TestRunAll_SecondRunIsNoOp(t *testing.T) {
	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer audio.Close()

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(fmt.Sprintf(idempotencyRSSFixture, audio.URL)))
	}))
	defer feedServer.Close()

	blobs, err := blobstore.New(context.Background(), blobstore.Config{
		Env:       blobstore.EnvLocal,
		SiteID:    "fixture-site",
		LocalRoot: t.TempDir(),
	})
	assert.NoError(t, err)

	site := Site{
		ID:    "fixture-site",
		Feeds: []feed.Feed{{URL: feedServer.URL, FeedID: "feed-1"}},
		Blobs: blobs,
	}

	o := New(Options{
		FeedOptions: feed.Options{
			FetchTimeout:        5 * time.Second,
			DownloadTimeout:     5 * time.Second,
			FeedConcurrency:     1,
			DownloadConcurrency: 1,
			MaxAudioSize:        1 << 20,
			TempDir:             t.TempDir(),
		},
		ProcessorOptions: transcribe.ProcessorOptions{
			FFmpegPath:  "/nonexistent/ffmpeg",
			FFprobePath: "/nonexistent/ffprobe",
		},
		Provider: noopProvider{},
	})

	err = o.RunAll(context.Background(), []Site{site})
	assert.NoError(t, err)

	objectsAfterFirst, err := blobs.List(context.Background(), "")
	assert.NoError(t, err)
	manifestAfterFirst, err := blobs.Get(context.Background(), blobstore.ManifestKey)
	assert.NoError(t, err)

	err = o.RunAll(context.Background(), []Site{site})
	assert.NoError(t, err)

	objectsAfterSecond, err := blobs.List(context.Background(), "")
	assert.NoError(t, err)
	manifestAfterSecond, err := blobs.Get(context.Background(), blobstore.ManifestKey)
	assert.NoError(t, err)

	assert.Equal(t, len(objectsAfterFirst), len(objectsAfterSecond), "second run must not write any new blob keys")
	assert.Equal(t, manifestAfterFirst, manifestAfterSecond, "second run must not change the manifest's content")
}
