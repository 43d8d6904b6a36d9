package cmd

import (
	"context"
	"fmt"

	"github.com/killallgit/ingest-platform/internal/syncstate"
	"github.com/killallgit/ingest-platform/pkg/config"
	"github.com/spf13/cobra"
)

var syncModeFlag string

// syncCmd reports the gap between local scratch storage and the blob
// store for the active site, without writing anything (a read-only
// counterpart to the orchestrator's Phase 0/3 checks).
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Report local/blob-store consistency gaps for the active site",
	Long: `Sync lists keys present only locally, only in the blob store, or in
both, across the audio, transcripts, manifest, and RSS categories. It
never writes — use "run" to actually transfer files.

Example:
  ingest-platform sync --mode=bidirectional`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncModeFlag, "mode", "bidirectional", "s3-to-local, local-to-s3, or bidirectional")
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	mode, err := parseSyncMode(syncModeFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	siteID, store, err := newSiteBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	report, err := syncstate.Check(ctx, cfg.Storage.LocalRoot, siteID, store, mode)
	if err != nil {
		return err
	}

	printGapReport(cmd, report)
	return nil
}

func parseSyncMode(s string) (syncstate.Mode, error) {
	switch s {
	case "s3-to-local":
		return syncstate.ModeS3ToLocal, nil
	case "local-to-s3":
		return syncstate.ModeLocalToS3, nil
	case "bidirectional", "":
		return syncstate.ModeBidirectional, nil
	default:
		return "", fmt.Errorf("invalid --mode %q: want s3-to-local, local-to-s3, or bidirectional", s)
	}
}

func printGapReport(cmd *cobra.Command, report syncstate.GapReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "site %s\n", report.SiteID)
	fmt.Fprintf(out, "  local-only:  %d\n", len(report.LocalOnly))
	for _, k := range report.LocalOnly {
		fmt.Fprintf(out, "    %s\n", k)
	}
	fmt.Fprintf(out, "  s3-only:     %d\n", len(report.S3Only))
	for _, k := range report.S3Only {
		fmt.Fprintf(out, "    %s\n", k)
	}
	fmt.Fprintf(out, "  consistent:  %d\n", len(report.Consistent))
}
