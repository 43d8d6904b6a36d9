package blobstore

import (
	"fmt"
	"strings"
)

// Well-known key prefixes within a site, per §6's blob store layout.
const (
	PrefixAudio       = "audio"
	PrefixTranscripts = "transcripts"
	PrefixManifest    = "episode-manifest"
	PrefixRSS         = "rss"
	PrefixSearchIndex = "search-index"
)

const (
	ManifestKey = PrefixManifest + "/full-episode-manifest.json"
	IndexKey    = PrefixSearchIndex + "/orama_index.msp"
)

// AudioKey returns the blob key for a feed/episode's downloaded audio.
func AudioKey(feedID, fileKey string) string {
	return fmt.Sprintf("%s/%s/%s.mp3", PrefixAudio, feedID, fileKey)
}

// TranscriptKey returns the blob key for a feed/episode's SRT transcript.
func TranscriptKey(feedID, fileKey string) string {
	return fmt.Sprintf("%s/%s/%s.srt", PrefixTranscripts, feedID, fileKey)
}

// RSSCacheKey returns the optional cached-raw-feed key for a feed.
func RSSCacheKey(feedID string) string {
	return fmt.Sprintf("%s/%s.xml", PrefixRSS, feedID)
}

// ParseAudioKey extracts (feedID, fileKey) from a key produced by AudioKey,
// used by the orchestrator to recover episode identity from the new-audio
// keys a retrieval run reports.
func ParseAudioKey(key string) (feedID, fileKey string, ok bool) {
	trimmed := strings.TrimSuffix(key, ".mp3")
	if trimmed == key {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(trimmed, PrefixAudio+"/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
