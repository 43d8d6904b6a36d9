package cmd

import (
	"context"
	"fmt"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	"github.com/killallgit/ingest-platform/internal/corrections"
	"github.com/killallgit/ingest-platform/pkg/config"
	"github.com/spf13/cobra"
)

// correctionsCmd groups operations on the spelling-corrections table.
var correctionsCmd = &cobra.Command{
	Use:   "corrections",
	Short: "Manage spelling-correction rules for the active site",
}

// correctionsReapplyCmd resolves §9 open question 2: reapplication is an
// explicit, opt-in operation distinct from the transcription path, which
// only ever applies corrections once at transcribe time. Running this
// reapplies the CURRENT correction table against every stored transcript,
// so a newly added rule reaches already-transcribed episodes without
// re-transcribing audio.
var correctionsReapplyCmd = &cobra.Command{
	Use:   "reapply",
	Short: "Reapply the current correction table to every stored transcript",
	RunE:  runCorrectionsReapply,
}

func init() {
	rootCmd.AddCommand(correctionsCmd)
	correctionsCmd.AddCommand(correctionsReapplyCmd)
}

func runCorrectionsReapply(cmd *cobra.Command, args []string) error {
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

	table, err := corrections.Load(ctx, store, nil)
	if err != nil {
		return err
	}

	keys, err := store.List(ctx, blobstore.PrefixTranscripts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	totalCorrections := 0
	for _, obj := range keys {
		raw, err := store.Get(ctx, obj.Key)
		if err != nil {
			fmt.Fprintf(out, "skip %s: %v\n", obj.Key, err)
			continue
		}
		corrected, report := table.Apply(string(raw))
		if len(report) == 0 {
			continue
		}
		if err := store.Put(ctx, obj.Key, []byte(corrected)); err != nil {
			fmt.Fprintf(out, "failed to write %s: %v\n", obj.Key, err)
			continue
		}
		for spelling, count := range report {
			totalCorrections += count
			fmt.Fprintf(out, "%s: %q x%d\n", obj.Key, spelling, count)
		}
	}

	fmt.Fprintf(out, "reapply complete: %d corrections across %d transcripts\n", totalCorrections, len(keys))
	return nil
}
