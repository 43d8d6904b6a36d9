// Package syncstate implements the sync-consistency checker (C7): a
// purely descriptive comparison between a site's local filesystem mirror
// and its blob store, producing a bidirectional gap report.
package syncstate

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// Mode selects which direction(s) of drift Check reports.
type Mode string

const (
	ModeS3ToLocal    Mode = "s3_to_local"
	ModeLocalToS3    Mode = "local_to_s3"
	ModeBidirectional Mode = "bidirectional"
)

// categories are the blob-store prefixes §4.7 names as comparable; the
// search index is explicitly excluded since it is managed exclusively by
// the indexer.
var categories = []string{
	blobstore.PrefixAudio,
	blobstore.PrefixTranscripts,
	blobstore.PrefixManifest,
	blobstore.PrefixRSS,
}

// GapReport describes the drift found for one site.
type GapReport struct {
	SiteID     string
	LocalOnly  []string
	S3Only     []string
	Consistent []string
}

// Check compares localRoot/sites/{siteId}/** against blobs and returns the
// gap report gated by mode.
func Check(ctx context.Context, localRoot, siteID string, blobs blobstore.Store, mode Mode) (GapReport, error) {
	report := GapReport{SiteID: siteID}

	localKeys, err := enumerateLocal(localRoot, siteID)
	if err != nil {
		return report, apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "enumerating local files")
	}

	remoteKeys, err := enumerateRemote(ctx, blobs)
	if err != nil {
		return report, err
	}

	for key := range localKeys {
		if remoteKeys[key] {
			report.Consistent = append(report.Consistent, key)
		} else {
			report.LocalOnly = append(report.LocalOnly, key)
		}
	}
	for key := range remoteKeys {
		if !localKeys[key] {
			report.S3Only = append(report.S3Only, key)
		}
	}

	switch mode {
	case ModeS3ToLocal:
		report.LocalOnly = nil
	case ModeLocalToS3:
		report.S3Only = nil
	case ModeBidirectional, "":
		// report both
	}

	return report, nil
}

// enumerateLocal walks {localRoot}/sites/{siteId}/{category}/** for every
// comparable category, returning the set of keys relative to the site root
// (matching the blob store's key shape), skipping dot-files.
func enumerateLocal(localRoot, siteID string) (map[string]bool, error) {
	keys := map[string]bool{}
	siteRoot := filepath.Join(localRoot, "sites", siteID)

	for _, category := range categories {
		categoryRoot := filepath.Join(siteRoot, category)
		err := filepath.Walk(categoryRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if info.IsDir() {
				return nil
			}
			if strings.HasPrefix(info.Name(), ".") {
				return nil
			}
			rel, err := filepath.Rel(siteRoot, path)
			if err != nil {
				return err
			}
			keys[filepath.ToSlash(rel)] = true
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// enumerateRemote lists every key under each comparable prefix, relying on
// blobstore.Store.List's own pagination.
func enumerateRemote(ctx context.Context, blobs blobstore.Store) (map[string]bool, error) {
	keys := map[string]bool{}
	for _, category := range categories {
		objects, err := blobs.List(ctx, category)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "listing "+category)
		}
		for _, obj := range objects {
			keys[obj.Key] = true
		}
	}
	return keys, nil
}
