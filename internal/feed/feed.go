// Package feed implements the RSS retriever (C3): fetching and parsing feed
// documents, matching items against the manifest, downloading new audio, and
// emitting a result the orchestrator uses to gate downstream stages.
package feed

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// Feed is one configured RSS/Atom source within a site.
type Feed struct {
	URL    string
	FeedID string
}

// Item is one feed entry reduced to the fields the retriever needs.
type Item struct {
	Title       string
	AudioURL    string
	PublishedAt string // raw pubDate string, parsed downstream by episodekey
}

// Parser wraps gofeed.Parser the way the retriever uses it: one instance
// reused across fetches (gofeed documents this as safe for concurrent use).
type Parser struct {
	inner   *gofeed.Parser
	timeout time.Duration
}

// NewParser creates a feed Parser with a bounded per-fetch timeout.
func NewParser(timeout time.Duration, userAgent string) *Parser {
	p := gofeed.NewParser()
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	return &Parser{inner: p, timeout: timeout}
}

// Fetch downloads and parses one feed URL, returning its audio-bearing items.
// Feeds with no enclosure are skipped item-by-item rather than failing the
// whole fetch, matching §4.3's per-feed error isolation policy (malformed
// individual items shouldn't sink an otherwise-good feed).
func (p *Parser) Fetch(ctx context.Context, f Feed) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	parsed, err := p.inner.ParseURLWithContext(f.URL, ctx)
	if err != nil {
		return nil, apperrors.UpstreamFailure("feed:"+f.FeedID, err)
	}

	var items []Item
	for _, entry := range parsed.Items {
		audioURL := enclosureAudioURL(entry)
		if audioURL == "" {
			continue
		}
		items = append(items, Item{
			Title:       entry.Title,
			AudioURL:    audioURL,
			PublishedAt: entry.Published,
		})
	}
	return items, nil
}

func enclosureAudioURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc.URL == "" {
			continue
		}
		if enc.Type == "" || isAudioEnclosure(enc.Type) {
			return enc.URL
		}
	}
	return ""
}

func isAudioEnclosure(mimeType string) bool {
	switch mimeType {
	case "audio/mpeg", "audio/mp3", "audio/x-mp3", "audio/mp4", "audio/m4a", "audio/wav", "audio/ogg", "audio/opus":
		return true
	default:
		return len(mimeType) >= 6 && mimeType[:6] == "audio/"
	}
}
