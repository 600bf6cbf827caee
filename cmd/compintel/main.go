// compintel runs the competitive-advertising intelligence pipeline end to
// end: discovery, curation, ranking, ingestion, strategic labeling,
// embeddings, visual intelligence, strategic analysis, multi-dimensional
// intelligence, and enhanced output.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/adintel/compintel/pkg/adarchive"
	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/config"
	"github.com/adintel/compintel/pkg/orchestrator"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/search"
	"github.com/adintel/compintel/pkg/stage"
	"github.com/adintel/compintel/pkg/stages/analysis"
	"github.com/adintel/compintel/pkg/stages/curation"
	"github.com/adintel/compintel/pkg/stages/discovery"
	"github.com/adintel/compintel/pkg/stages/embeddings"
	"github.com/adintel/compintel/pkg/stages/ingestion"
	"github.com/adintel/compintel/pkg/stages/intelligence"
	"github.com/adintel/compintel/pkg/stages/labeling"
	"github.com/adintel/compintel/pkg/stages/output"
	"github.com/adintel/compintel/pkg/stages/ranking"
	"github.com/adintel/compintel/pkg/stages/visual"
	"github.com/adintel/compintel/pkg/warehouse"
	"github.com/adintel/compintel/pkg/warehouse/ai"
	"github.com/adintel/compintel/pkg/warehouse/memory"
	"github.com/adintel/compintel/pkg/warehouse/pg"
	"github.com/adintel/compintel/pkg/warehouse/querytpl"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitDegraded = 2
	exitUsage    = 64
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	brand := flag.String("brand", "", "brand to run the pipeline for (required)")
	vertical := flag.String("vertical", "", "industry vertical key from the config's vertical table")
	resumeRunID := flag.String("resume", "", "resume a prior run by its run ID instead of starting a new one")
	dryRun := flag.Bool("dry-run", false, "validate configuration and warehouse query templates without executing any stage")
	configDir := flag.String("config", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	if *brand == "" {
		fmt.Fprintln(os.Stderr, "compintel: -brand is required")
		os.Exit(exitUsage)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Printf("failed to initialize configuration: %v", err)
		os.Exit(exitUsage)
	}
	cfg.DryRun = *dryRun

	if *vertical != "" {
		if _, ok := cfg.Verticals[*vertical]; !ok {
			log.Printf("unknown vertical %q", *vertical)
			os.Exit(exitUsage)
		}
	}

	runID := *resumeRunID
	if runID == "" {
		runID = uuid.NewString()
	}

	rc := runctx.New(runID, *brand, *vertical, cfg, logger)

	orch, closeFn, err := build(ctx, cfg, logger)
	if err != nil {
		log.Printf("failed to build pipeline: %v", err)
		os.Exit(exitFailure)
	}
	defer closeFn()

	if cfg.DryRun {
		if err := orch.DryRun(ctx, rc); err != nil {
			log.Printf("dry run failed: %v", err)
			os.Exit(exitFailure)
		}
		log.Printf("dry run OK: run_id=%s brand=%s templates validated, manifest stamped", runID, *brand)
		os.Exit(exitOK)
	}

	log.Printf("starting run_id=%s brand=%s vertical=%s", runID, *brand, *vertical)
	start := time.Now()
	result := orch.Execute(ctx, rc)
	elapsed := time.Since(start)

	switch result.Status {
	case "OK":
		log.Printf("run_id=%s completed OK in %s (skipped=%v)", runID, elapsed, result.Skipped)
		os.Exit(exitOK)
	case "DEGRADED":
		log.Printf("run_id=%s completed DEGRADED in %s (skipped=%v)", runID, elapsed, result.Skipped)
		os.Exit(exitDegraded)
	default:
		log.Printf("run_id=%s FAILED at stage %s after %s: %v", runID, result.Stage, elapsed, result.Err)
		var stageErr *pipeerr.StageError
		if pe, ok := result.Err.(*pipeerr.StageError); ok {
			stageErr = pe
		}
		if stageErr != nil && stageErr.Kind == pipeerr.KindInput {
			os.Exit(exitUsage)
		}
		os.Exit(exitFailure)
	}
}

// build wires the warehouse adapters and constructs the ten-stage pipeline
// in execution order behind one Orchestrator. Dry-run mode substitutes an
// in-memory artifact store and warehouse so validating templates never
// requires a live database connection; closeFn releases any connection
// pool opened for a real run.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (orch *orchestrator.Orchestrator, closeFn func(), err error) {
	searchProvider := search.NewHTTPClient(
		cfg.Providers.Search.BaseURL,
		os.Getenv(cfg.Providers.Search.APIKeyEnv),
		logger,
	)
	adArchiveProvider := adarchive.NewHTTPClient(
		cfg.Providers.AdArchive.BaseURL,
		os.Getenv(cfg.Providers.AdArchive.APIKeyEnv),
	)
	aiClient := ai.NewClient(
		os.Getenv(cfg.Providers.Warehouse.AIAPIKeyEnv),
		cfg.Providers.Warehouse.AIModel,
		logger,
	)

	if cfg.DryRun {
		store := memory.NewArtifactStore()
		analytics := memory.New()
		orch = assemble(searchProvider, adArchiveProvider, aiClient, analytics, store)
		return orch, func() {}, nil
	}

	pgStore, err := pg.NewStore(ctx, pg.Config{
		DSN:             os.Getenv(cfg.Providers.Warehouse.DSNEnv),
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to warehouse: %w", err)
	}
	artifactStore := pg.NewArtifactStore(pgStore)

	orch = assemble(searchProvider, adArchiveProvider, aiClient, pgStore, artifactStore)
	return orch, func() { _ = pgStore.Close() }, nil
}

// assemble constructs every stage against its external collaborators and
// hands the ordered list to a new Orchestrator.
func assemble(
	searchProvider search.Provider,
	adArchiveProvider adarchive.Provider,
	aiClient warehouse.AIClient,
	analytics warehouse.Analytics,
	store artifact.Store,
) *orchestrator.Orchestrator {
	registry := querytpl.NewRegistry()

	stages := []stage.Stage{
		discovery.New(searchProvider, store),
		curation.New(aiClient, store),
		ranking.New(adArchiveProvider, store),
		ingestion.New(adArchiveProvider, store),
		labeling.New(aiClient, store),
		embeddings.New(aiClient, store),
		visual.New(aiClient, store),
		analysis.New(analytics, store),
		intelligence.New(store),
		output.New(store, registry),
	}

	return orchestrator.New(stages, store)
}
