package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/killallgit/ingest-platform/internal/blobstore"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
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

// TestRun_PublishedDateUsesNamedZoneRFC1123 guards against regressing to a
// single-layout parse: the spec's own E1 example pubDate is RFC1123 (named
// zone "GMT"), not RFC1123Z (numeric offset), and must resolve to the exact
// calendar date it names rather than silently zeroing out.
func TestRun_PublishedDateUsesNamedZoneRFC1123(t *testing.T) {
	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer audio.Close()

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(fmt.Sprintf(rssFixture, audio.URL)))
	}))
	defer feedServer.Close()

	blobs, err := blobstore.New(context.Background(), blobstore.Config{
		Env:       blobstore.EnvLocal,
		SiteID:    "fixture-site",
		LocalRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("blobstore.New: %v", err)
	}

	r := NewRetriever(blobs, Options{
		FetchTimeout:        5 * time.Second,
		DownloadTimeout:      5 * time.Second,
		FeedConcurrency:      1,
		DownloadConcurrency:  1,
		MaxAudioSize:         1 << 20,
		TempDir:              t.TempDir(),
	}, nil)

	result, err := r.Run(context.Background(), []Feed{{URL: feedServer.URL, FeedID: "feed-1"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.FeedErrors) != 0 {
		t.Fatalf("unexpected feed errors: %v", result.FeedErrors)
	}

	m, err := r.manifests.Load(context.Background())
	if err != nil {
		t.Fatalf("manifests.Load: %v", err)
	}
	if len(m.Episodes) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(m.Episodes))
	}

	ep := m.Episodes[0]
	wantUnixMs := time.Date(2020, time.January, 6, 12, 0, 0, 0, time.UTC).UnixMilli()
	if ep.PublishedAtUnixMs != wantUnixMs {
		t.Errorf("PublishedAtUnixMs = %d, want %d (got zero-value year-1 if the named-zone parse regressed)", ep.PublishedAtUnixMs, wantUnixMs)
	}
	if ep.FileKey == "" || ep.FileKey[:10] != "2020-01-06" {
		t.Errorf("FileKey = %q, want date prefix 2020-01-06", ep.FileKey)
	}
}
