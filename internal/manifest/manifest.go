// Package manifest implements the episode manifest store (C9): the
// authoritative, single-writer list of episodes for a site, persisted as one
// JSON document at episode-manifest/full-episode-manifest.json.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// Episode is the immutable per-site record described in §3. Once assigned,
// SequentialID and FileKey never change for a given episode, even if its
// title is edited upstream — matching is keyed on FileKey OR
// OriginalAudioURL specifically so a retitled episode isn't treated as new.
type Episode struct {
	SequentialID      int     `json:"sequentialId"`
	FileKey           string  `json:"fileKey"`
	Title             string  `json:"title"`
	OriginalAudioURL  string  `json:"originalAudioURL"`
	PublishedAtIso    string  `json:"publishedAtIso"`
	PublishedAtUnixMs int64   `json:"publishedAtUnixMs"`
	FeedID            string  `json:"feedId"`
	DownloadedAtIso   *string `json:"downloadedAtIso,omitempty"`
}

// PublishedUnixSeconds returns the episode's publish time as Unix seconds,
// the granularity the search index sorts on (episodePublishedUnixTimestamp).
func (e Episode) PublishedUnixSeconds() int64 {
	return e.PublishedAtUnixMs / 1000
}

// Manifest is the ordered sequence of Episode records for one site.
type Manifest struct {
	Episodes []Episode
}

// Store loads and saves a site's manifest through its blob store.
type Store struct {
	blobs blobstore.Store
}

// NewStore builds a manifest Store backed by blobs.
func NewStore(blobs blobstore.Store) *Store {
	return &Store{blobs: blobs}
}

// Load returns the site's manifest, or an empty one if no manifest has ever
// been written — readers must tolerate an absent file per §4.9.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	data, err := s.blobs.Get(ctx, blobstore.ManifestKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return &Manifest{}, nil
		}
		return nil, apperrors.TransientIO("manifest.Load", err)
	}

	var episodes []Episode
	if err := json.Unmarshal(data, &episodes); err != nil {
		return nil, apperrors.InvariantViolation("manifest", "malformed JSON: "+err.Error())
	}
	return &Manifest{Episodes: episodes}, nil
}

// Save performs a whole-file replacement of the manifest. The blob store's
// Put is itself atomic (write-then-rename locally, single PutObject
// remotely), so there is nothing further to do here to satisfy §4.3 step 5.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	data, err := json.MarshalIndent(m.Episodes, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshaling manifest")
	}
	if err := s.blobs.Put(ctx, blobstore.ManifestKey, data); err != nil {
		return apperrors.TransientIO("manifest.Save", err)
	}
	return nil
}

// FindByFileKeyOrURL returns the existing episode matching fileKey or
// audioURL, implementing the match rule from §4.3 step 3 and resolving open
// question 1 (duplicate fileKey, differing audio URL): episodes are scanned in
// manifest order and the first one whose FileKey or audio URL matches is
// returned, so a retitled episode whose slug changed but whose audio is the
// same file is still found. A FileKey match is not preferred over an earlier
// URL match.
func (m *Manifest) FindByFileKeyOrURL(fileKey, audioURL string) (Episode, bool) {
	for _, e := range m.Episodes {
		if e.FileKey == fileKey || (audioURL != "" && e.OriginalAudioURL == audioURL) {
			return e, true
		}
	}
	return Episode{}, false
}

// MaxSequentialID returns the highest SequentialID present, or 0 if empty.
func (m *Manifest) MaxSequentialID() int {
	max := 0
	for _, e := range m.Episodes {
		if e.SequentialID > max {
			max = e.SequentialID
		}
	}
	return max
}

// Upsert inserts a newly-discovered episode or, if one already exists
// matching FileKey/OriginalAudioURL, leaves the existing SequentialID and
// FileKey untouched while refreshing mutable fields (title, downloaded-at).
// Returns the final stored episode and whether it was newly created.
func (m *Manifest) Upsert(candidate Episode) (Episode, bool) {
	for i, e := range m.Episodes {
		if e.FileKey == candidate.FileKey ||
			(candidate.OriginalAudioURL != "" && e.OriginalAudioURL == candidate.OriginalAudioURL) {
			// Preserve identity; allow title drift (e.g. publisher edits).
			m.Episodes[i].Title = candidate.Title
			if candidate.DownloadedAtIso != nil {
				m.Episodes[i].DownloadedAtIso = candidate.DownloadedAtIso
			}
			return m.Episodes[i], false
		}
	}

	candidate.SequentialID = m.MaxSequentialID() + 1
	m.Episodes = append(m.Episodes, candidate)
	return candidate, true
}

// SortByID orders episodes by SequentialID ascending, which is how they are
// persisted and how §8 property 2 (contiguous range from 1) is verified.
func (m *Manifest) SortByID() {
	sort.Slice(m.Episodes, func(i, j int) bool {
		return m.Episodes[i].SequentialID < m.Episodes[j].SequentialID
	})
}

// NowIso is a small seam so callers stamp ISO timestamps (PublishedAtIso) with a consistent
// format (RFC3339) without importing time directly at every call site.
func NowIso(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
