package cmd

import (
	"context"
	"fmt"

	"github.com/killallgit/ingest-platform/internal/indexer"
	"github.com/killallgit/ingest-platform/internal/manifest"
	"github.com/killallgit/ingest-platform/pkg/config"
	"github.com/spf13/cobra"
)

// indexCmd rebuilds the search index for the active site directly,
// bypassing the orchestrator's phase-4 gating — useful after a manual
// transcript edit or a corrections reapply.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the search index for the active site from stored transcripts",
	RunE:  runIndexBuild,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	_, store, err := newSiteBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := indexer.Build(ctx, store, manifest.NewStore(store))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "indexed %d entries\n", result.EntriesIndexed)
	if len(result.SRTsSkipped) > 0 {
		fmt.Fprintf(out, "skipped %d transcripts with no manifest match:\n", len(result.SRTsSkipped))
		for _, key := range result.SRTsSkipped {
			fmt.Fprintf(out, "  %s\n", key)
		}
	}
	return nil
}
