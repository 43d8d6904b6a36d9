package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"

	"github.com/killallgit/ingest-platform/internal/syncstate"
)

var errAnySiteFailed = errors.New("orchestrator: one or more sites had a hard failure")

// preSync implements Phase 0: download blob-store files missing locally
// under an overwrite-if-newer policy, so a subsequent run's local-only
// checks (syncstate) compare against an up-to-date mirror.
func preSync(ctx context.Context, site Site) error {
	report, err := syncstate.Check(ctx, site.LocalRoot, site.ID, site.Blobs, syncstate.ModeS3ToLocal)
	if err != nil {
		return err
	}

	for _, key := range report.S3Only {
		if err := downloadToLocal(ctx, site, key); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "phase0 pre-sync: "+key)
		}
	}
	return nil
}

func downloadToLocal(ctx context.Context, site Site, key string) error {
	data, err := site.Blobs.Get(ctx, key)
	if err != nil {
		return err
	}
	localPath := filepath.Join(site.LocalRoot, "sites", site.ID, key)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0o644)
}

// uploadGaps implements Phase 3's upload half: every file present only
// locally gets uploaded, with per-file failures logged and skipped rather
// than aborting the whole site (§4.8 "continue on per-file failure").
func uploadGaps(ctx context.Context, site Site, report syncstate.GapReport) int {
	uploaded := 0
	for _, key := range report.LocalOnly {
		localPath := filepath.Join(site.LocalRoot, "sites", site.ID, key)
		data, err := os.ReadFile(localPath)
		if err != nil {
			continue
		}
		if err := site.Blobs.Put(ctx, key, data); err != nil {
			continue
		}
		uploaded++
	}
	return uploaded
}
