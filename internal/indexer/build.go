package indexer

import (
	"context"
	"io"
	"log"
	"path"
	"strconv"
	"strings"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	"github.com/killallgit/ingest-platform/internal/manifest"
	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
	"github.com/killallgit/ingest-platform/pkg/transcript"
)

// BuildResult reports what one index build produced, replacing an
// event-emitter with an explicit struct per §9's redesign note.
type BuildResult struct {
	EntriesIndexed int
	SRTsSkipped    []string // SRT keys whose fileKey has no manifest entry
}

// Build runs the §4.5 algorithm for one site: enumerate every SRT under the
// transcripts prefix, resolve each to its episode via the manifest, parse
// cues into entries, and persist the resulting index to
// blobstore.IndexKey.
func Build(ctx context.Context, blobs blobstore.Store, manifests *manifest.Store) (BuildResult, error) {
	var result BuildResult

	objects, err := blobs.List(ctx, blobstore.PrefixTranscripts)
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "listing transcripts")
	}

	m, err := manifests.Load(ctx)
	if err != nil {
		return result, err
	}
	byFileKey := make(map[string]manifest.Episode, len(m.Episodes))
	for _, e := range m.Episodes {
		byFileKey[e.FileKey] = e
	}

	parser := transcript.NewParser()
	idx := New()

	for _, obj := range objects {
		fileKey, ok := fileKeyFromSRTKey(obj.Key)
		if !ok {
			continue
		}
		episode, ok := byFileKey[fileKey]
		if !ok {
			log.Printf("[WARN] indexer: %s has no manifest entry, skipping", obj.Key)
			result.SRTsSkipped = append(result.SRTsSkipped, obj.Key)
			continue
		}

		data, err := blobs.Get(ctx, obj.Key)
		if err != nil {
			log.Printf("[WARN] indexer: reading %s: %v", obj.Key, err)
			result.SRTsSkipped = append(result.SRTsSkipped, obj.Key)
			continue
		}

		parsed, err := parser.Parse(string(data), transcript.FormatSRT)
		if err != nil {
			log.Printf("[WARN] indexer: parsing %s: %v", obj.Key, err)
			result.SRTsSkipped = append(result.SRTsSkipped, obj.Key)
			continue
		}

		sequentialIDStr := strconv.Itoa(episode.SequentialID)
		for cueIndex, seg := range parsed.Segments {
			idx.Insert(Entry{
				ID:                            sequentialIDStr + ":" + strconv.Itoa(cueIndex),
				Text:                          seg.Text,
				SequentialEpisodeIDAsString:   sequentialIDStr,
				StartTimeMs:                   seg.Start.Milliseconds(),
				EndTimeMs:                     seg.End.Milliseconds(),
				EpisodePublishedUnixTimestamp: episode.PublishedUnixSeconds(),
			})
			result.EntriesIndexed++
		}
	}

	if err := persist(ctx, blobs, idx); err != nil {
		return result, err
	}
	return result, nil
}

// persist streams idx's serialized form straight into the blob store
// without ever holding the full gzip payload in a buffer, matching §4.5's
// "must not materialize the whole index as a single string."
func persist(ctx context.Context, blobs blobstore.Store, idx *Index) error {
	pr, pw := io.Pipe()

	go func() {
		err := idx.Serialize(pw)
		pw.CloseWithError(err)
	}()

	if err := blobs.PutReader(ctx, blobstore.IndexKey, pr); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "uploading search index")
	}
	return nil
}

// fileKeyFromSRTKey extracts the fileKey from a "transcripts/{feedId}/{fileKey}.srt" key.
func fileKeyFromSRTKey(key string) (string, bool) {
	if !strings.HasSuffix(key, ".srt") {
		return "", false
	}
	base := path.Base(key)
	return strings.TrimSuffix(base, ".srt"), true
}
