package cmd

import (
	"context"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	"github.com/killallgit/ingest-platform/internal/database"
	"github.com/killallgit/ingest-platform/internal/feed"
	"github.com/killallgit/ingest-platform/internal/orchestrator"
	"github.com/killallgit/ingest-platform/internal/runstate"
	"github.com/killallgit/ingest-platform/internal/transcribe"
	"github.com/killallgit/ingest-platform/pkg/config"
	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// resolveBlobEnv maps the two-value storage.env setting onto the blob
// store's three-value Env, picking the prod-remote bucket naming scheme
// only when environment is explicitly "production" or "prod".
func resolveBlobEnv(cfg *config.Config) blobstore.Env {
	if cfg.Storage.Env != "remote" {
		return blobstore.EnvLocal
	}
	if cfg.Environment == "production" || cfg.Environment == "prod" {
		return blobstore.EnvProdRemote
	}
	return blobstore.EnvDevRemote
}

// newSiteBlobStore builds the Store for the active SITE_ID, failing with a
// ConfigError if no site is configured (§7 "ConfigError - missing SITE_ID").
func newSiteBlobStore(ctx context.Context, cfg *config.Config) (string, blobstore.Store, error) {
	siteID := cfg.Site.ID
	if siteID == "" {
		return "", nil, apperrors.ConfigError("site.id", "no active site configured; set SITE_ID or site.id")
	}

	store, err := blobstore.New(ctx, blobstore.Config{
		Env:          resolveBlobEnv(cfg),
		SiteID:       siteID,
		LocalRoot:    cfg.Storage.LocalRoot,
		BucketSuffix: cfg.Storage.BucketSuffix,
		Region:       cfg.Storage.Region,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
		Endpoint:     cfg.Storage.Endpoint,
	})
	if err != nil {
		return "", nil, err
	}
	return siteID, store, nil
}

// buildSite assembles the orchestrator.Site value for the active SITE_ID,
// deriving one feed.Feed per configured feed URL with FeedID set to the
// site ID itself when only a single feed is configured, else an index
// suffix, since the spec leaves per-feed identifiers implicit for the
// common single-feed-per-site case.
func buildSite(ctx context.Context, cfg *config.Config) (orchestrator.Site, error) {
	siteID, store, err := newSiteBlobStore(ctx, cfg)
	if err != nil {
		return orchestrator.Site{}, err
	}

	feeds := make([]feed.Feed, 0, len(cfg.Site.Feeds))
	for i, url := range cfg.Site.Feeds {
		feedID := siteID
		if len(cfg.Site.Feeds) > 1 {
			feedID = feedIDForIndex(siteID, i)
		}
		feeds = append(feeds, feed.Feed{URL: url, FeedID: feedID})
	}

	return orchestrator.Site{
		ID:        siteID,
		Feeds:     feeds,
		Blobs:     store,
		LocalRoot: cfg.Storage.LocalRoot,
	}, nil
}

func feedIDForIndex(siteID string, i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	suffix := string(letters[i%len(letters)])
	return siteID + "-" + suffix
}

func feedOptionsFromConfig(cfg *config.Config) feed.Options {
	return feed.Options{
		FetchTimeout:        cfg.Feed.FetchTimeout,
		DownloadTimeout:     cfg.Feed.DownloadTimeout,
		FeedConcurrency:     cfg.Feed.MaxConcurrency,
		DownloadConcurrency: cfg.Feed.MaxConcurrency,
		UserAgent:           cfg.Feed.UserAgent,
		MaxAudioSize:        cfg.Feed.MaxAudioSize,
		TempDir:             cfg.Processing.TempDir,
	}
}

func processorOptionsFromConfig(cfg *config.Config) transcribe.ProcessorOptions {
	return transcribe.ProcessorOptions{
		FFmpegPath:    cfg.Processing.FFmpegPath,
		FFprobePath:   cfg.Processing.FFprobePath,
		FFmpegTimeout: cfg.Processing.FFmpegTimeout,
		ChunkDuration: cfg.Processing.ChunkDuration,
		ChunkOverlap:  cfg.Processing.ChunkOverlap,
		MaxDuration:   cfg.Processing.MaxDuration,
		TempDir:       cfg.Processing.TempDir,
	}
}

// openRunStateDB opens (creating if needed) the sqlite-backed run-history
// store shared by the orchestrator (Phase 0-4 idempotency fingerprints) and
// the search server's /health status, migrating its schema on connect.
func openRunStateDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&runstate.StageRun{}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func transcribeProviderFromConfig(cfg *config.Config) (transcribe.Provider, error) {
	return transcribe.New(transcribe.Options{
		Provider:     cfg.Transcription.Provider,
		APIKey:       cfg.Transcription.APIKey,
		PollInterval: int64(cfg.Transcription.PollInterval.Seconds()),
		TimeoutSecs:  int64(cfg.Transcription.Timeout.Seconds()),
		MaxRetries:   cfg.Transcription.MaxRetries,
		LocalModel:   cfg.Transcription.LocalModel,
		LocalBinPath: cfg.Transcription.LocalBinPath,
	})
}
