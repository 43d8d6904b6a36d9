package feed

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	"github.com/killallgit/ingest-platform/internal/episodekey"
	"github.com/killallgit/ingest-platform/internal/manifest"
	"github.com/killallgit/ingest-platform/pkg/download"
	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
	"github.com/killallgit/ingest-platform/pkg/retry"
)

// Options configures one retrieval run.
type Options struct {
	FetchTimeout      time.Duration
	DownloadTimeout   time.Duration
	FeedConcurrency   int
	DownloadConcurrency int
	UserAgent         string
	MaxAudioSize      int64
	TempDir           string
}

// Result is the explicit signal C3 hands the orchestrator, replacing the
// in-process event emitter the original design used (§9 "Event-driven gating
// → explicit results").
type Result struct {
	HasNewAudio    bool
	NewAudioKeys   []string
	DownloadErrors []error
	FeedErrors     []error
}

// Retriever runs the RSS retrieval algorithm of §4.3 for one site.
type Retriever struct {
	parser      *Parser
	blobs       blobstore.Store
	manifests   *manifest.Store
	invalidator CacheInvalidator
	downloader  *download.Downloader
	opts        Options
}

// NewRetriever builds a Retriever wired to a site's blob store.
func NewRetriever(blobs blobstore.Store, opts Options, invalidator CacheInvalidator) *Retriever {
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	return &Retriever{
		parser:    NewParser(opts.FetchTimeout, opts.UserAgent),
		blobs:     blobs,
		manifests: manifest.NewStore(blobs),
		downloader: download.NewDownloader(download.DownloadOptions{
			TempDir:   opts.TempDir,
			MaxSize:   opts.MaxAudioSize,
			Timeout:   opts.DownloadTimeout,
			UserAgent: opts.UserAgent,
		}),
		invalidator: invalidator,
		opts:        opts,
	}
}

// Run executes one retrieval cycle across all of a site's feeds.
func (r *Retriever) Run(ctx context.Context, feeds []Feed) (Result, error) {
	m, err := r.manifests.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	type feedOutcome struct {
		feedID string
		items  []Item
		err    error
	}

	outcomes := make([]feedOutcome, len(feeds))
	concurrency := r.opts.FeedConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, f := range feeds {
		i, f := i, f
		g.Go(func() error {
			items, err := r.parser.Fetch(gctx, f)
			outcomes[i] = feedOutcome{feedID: f.FeedID, items: items, err: err}
			return nil // per-feed errors isolate; never abort the group
		})
	}
	_ = g.Wait()

	var result Result
	var newCandidates []manifest.Episode

	for _, outcome := range outcomes {
		if outcome.err != nil {
			log.Printf("[WARN] feed %s: fetch failed: %v", outcome.feedID, outcome.err)
			result.FeedErrors = append(result.FeedErrors, outcome.err)
			continue
		}
		for _, item := range outcome.items {
			fileKey, err := episodekey.FileKey(item.Title, item.PublishedAt)
			if err != nil {
				log.Printf("[WARN] feed %s: skipping item %q: %v", outcome.feedID, item.Title, err)
				continue
			}
			if _, exists := m.FindByFileKeyOrURL(fileKey, item.AudioURL); exists {
				continue
			}
			pubTime, err := episodekey.ParseDate(item.PublishedAt)
			if err != nil {
				log.Printf("[WARN] feed %s: skipping item %q: %v", outcome.feedID, item.Title, err)
				continue
			}
			newCandidates = append(newCandidates, manifest.Episode{
				FileKey:          fileKey,
				Title:            item.Title,
				OriginalAudioURL: item.AudioURL,
				PublishedAtIso:   manifest.NowIso(pubTime),
				PublishedAtUnixMs: pubTime.UnixMilli(),
				FeedID:           outcome.feedID,
			})
		}
	}

	// Assign IDs sequentially (single-writer, so no race) before fanning out
	// downloads, so every new episode has a stable identity even if its
	// download fails.
	assigned := make([]manifest.Episode, 0, len(newCandidates))
	for _, candidate := range newCandidates {
		final, isNew := m.Upsert(candidate)
		if isNew {
			assigned = append(assigned, final)
		}
	}

	if len(assigned) > 0 {
		r.downloadAll(ctx, assigned, &result)
	}

	// A run that assigned no new episode leaves the manifest as loaded, so it
	// is not rewritten.
	if len(assigned) > 0 {
		m.SortByID()
		if err := r.manifests.Save(ctx, m); err != nil {
			return result, err
		}
	}

	if result.HasNewAudio {
		if err := r.invalidator.Invalidate(ctx, result.NewAudioKeys); err != nil {
			log.Printf("[WARN] CDN invalidation failed: %v", err)
		}
	}

	return result, nil
}

func (r *Retriever) downloadAll(ctx context.Context, episodes []manifest.Episode, result *Result) {
	concurrency := r.opts.DownloadConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, ep := range episodes {
		ep := ep
		g.Go(func() error {
			key := blobstore.AudioKey(ep.FeedID, ep.FileKey)

			// Skip if already present with non-zero length — §4.3 step 4.
			if size, err := r.blobs.Size(gctx, key); err == nil && size > 0 {
				return nil
			}

			retryOpts := retry.DefaultOptions()
			var localPath string
			err := retry.Do(gctx, retryOpts, "download:"+ep.FileKey, func(ctx context.Context) error {
				res, derr := r.downloader.DownloadToTemp(ctx, ep.OriginalAudioURL, ep.FileKey)
				if derr != nil {
					return apperrors.TransientIO("feed.download", derr)
				}
				localPath = res.FilePath
				return nil
			})
			if err != nil {
				mu.Lock()
				result.DownloadErrors = append(result.DownloadErrors, err)
				mu.Unlock()
				log.Printf("[WARN] episode %s: download failed, skipping: %v", ep.FileKey, err)
				return nil
			}
			defer download.CleanupTempFile(localPath)

			data, err := os.ReadFile(localPath)
			if err != nil {
				mu.Lock()
				result.DownloadErrors = append(result.DownloadErrors, err)
				mu.Unlock()
				return nil
			}

			if err := r.blobs.Put(gctx, key, data); err != nil {
				mu.Lock()
				result.DownloadErrors = append(result.DownloadErrors, err)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			result.HasNewAudio = true
			result.NewAudioKeys = append(result.NewAudioKeys, key)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}
