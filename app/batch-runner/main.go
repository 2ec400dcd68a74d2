package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"
	psqlRepo "captionSelector/internal/repository/postgres"
	"captionSelector/pkg/config"
	"captionSelector/pkg/database"
	"captionSelector/pkg/logger"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:  "batch-runner",
		Usage: "run caption selection for every active creator",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "concurrent selections",
				Value: 4,
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "target date (YYYY-MM-DD), defaults to today UTC",
			},
			&cli.IntFlag{
				Name:  "ppv",
				Usage: "paid captions per creator, split across tiers by segment",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "bump",
				Usage: "bump captions per creator",
				Value: 4,
			},
			&cli.StringSliceFlag{
				Name:  "creator",
				Usage: "limit the run to these creator ids",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "select without writing assignments",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "seed the sampler for a reproducible run (0 uses entropy)",
			},
		},
		Action: runBatch,
	}
	app.RunAndExitOnError()
}

func runBatch(cctx *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.App.Environment)

	target := time.Now().UTC()
	if raw := cctx.String("date"); raw != "" {
		target, err = time.Parse(domain.DateLayout, raw)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	db, err := database.InitPostgres(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.ClosePostgres(db)

	creatorRepo := psqlRepo.NewCreatorRepository(db)
	pgLedger := psqlRepo.NewAssignmentLedger(db)

	var ledger selection.AssignmentLedger = pgLedger
	if cctx.Bool("dry-run") {
		ledger = newDryRunLedger(pgLedger)
		logger.Info("Dry run: assignments will not be written")
	}

	svc, err := selection.NewSelectionService(
		creatorRepo,
		psqlRepo.NewCaptionRepository(db),
		psqlRepo.NewStatsRepository(db),
		psqlRepo.NewRestrictionRepository(db),
		ledger,
		pgLedger,
		psqlRepo.NewSelectionConfigRepository(db),
		selection.ConfigFromSettings(cfg.Selection),
	)
	if err != nil {
		return err
	}
	if seed := cctx.Uint64("seed"); seed != 0 {
		svc.SetSourceFactory(selection.SeededFactory(seed))
	}

	ctx := selection.WithTraceID(cctx.Context, "")
	creators, err := creatorRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list creators: %w", err)
	}

	reqs := buildRequests(creators, cctx.StringSlice("creator"), target, cctx.Int("ppv"), cctx.Int("bump"))
	logger.Info("Batch starting", "creators", len(reqs), "target_date", target.Format(domain.DateLayout))

	report, err := svc.BatchSelect(ctx, reqs, cctx.Int("workers"))
	for _, o := range report.Outcomes {
		if o.Err != nil {
			logger.Warn("Creator selection failed", "creator_id", o.CreatorID, "error", o.Err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(report.Summary); encErr != nil {
		return encErr
	}
	if err != nil {
		return err
	}
	if report.Summary.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d creator(s) failed", report.Summary.Failed), 2)
	}
	return nil
}
