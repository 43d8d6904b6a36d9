package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/killallgit/ingest-platform/internal/orchestrator"
	"github.com/killallgit/ingest-platform/internal/runstate"
	"github.com/killallgit/ingest-platform/pkg/config"
	"github.com/spf13/cobra"
)

var (
	runSitesFlag string
	runDryRun    bool
	runOnce      bool
)

// runCmd drives the pipeline orchestrator (C8) for the active site.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ingestion pipeline for configured sites",
	Long: `Run executes the four-phase pipeline (pre-sync, RSS retrieval, audio
processing, consistency check + indexing) once, or continuously on
orchestrator.schedule, for the sites selected by --sites.

Example:
  ingest-platform run --once
  ingest-platform run --sites=siteA,siteB --dry-run`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runSitesFlag, "sites", "", "comma-separated site IDs to run (default: active SITE_ID)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "log what would run without writing anything")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "ignore orchestrator.schedule and run exactly once")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	site, err := buildSite(ctx, cfg)
	if err != nil {
		return err
	}

	selected := orchestrator.ParseSitesFlag(runSitesFlag)
	if len(selected) == 0 {
		selected = cfg.Orchestrator.Sites
	}
	sites := orchestrator.FilterSites([]orchestrator.Site{site}, selected)
	if len(sites) == 0 {
		fmt.Println("no sites selected; nothing to do")
		return nil
	}

	provider, err := transcribeProviderFromConfig(cfg)
	if err != nil {
		return err
	}

	db, err := openRunStateDB(cfg)
	var runStore *runstate.Store
	if err != nil {
		fmt.Printf("Warning: run-state database unavailable, proceeding without idempotency bookkeeping: %v\n", err)
	} else {
		defer func() { _ = db.Close() }()
		runStore = runstate.New(db.DB)
	}

	dryRun := runDryRun || cfg.Orchestrator.DryRun

	o := orchestrator.New(orchestrator.Options{
		RunLogPath:       cfg.Orchestrator.RunLogPath,
		DryRun:           dryRun,
		FeedOptions:      feedOptionsFromConfig(cfg),
		ProcessorOptions: processorOptionsFromConfig(cfg),
		Provider:         provider,
		RunStore:         runStore,
	})

	schedule := cfg.Orchestrator.Schedule
	if runOnce || schedule == "" {
		return o.RunAll(ctx, sites)
	}

	interval, err := time.ParseDuration(schedule)
	if err != nil {
		return fmt.Errorf("invalid orchestrator.schedule %q: %w", schedule, err)
	}
	return o.RunContinuously(ctx, sites, interval)
}
