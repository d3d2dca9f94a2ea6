// Package app is the composition root: bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"tastebook.io/tastebook/internal/api/handlers"
	"tastebook.io/tastebook/internal/config"
	"tastebook.io/tastebook/internal/generator"
	"tastebook.io/tastebook/internal/images"
	"tastebook.io/tastebook/internal/infrastructure"
	"tastebook.io/tastebook/internal/jobs"
	"tastebook.io/tastebook/internal/pkg/worker"
	"tastebook.io/tastebook/internal/service"
	"tastebook.io/tastebook/internal/usecase"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools
}

// Bootstrap initializes all dependencies using manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize:   cfg.Worker.GeneralPoolSize,
		SynthesisPoolSize: cfg.Worker.SynthesisPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	gen, err := generator.NewClient(generator.Config{
		APIKey:  cfg.Generator.APIKey,
		BaseURL: cfg.Generator.BaseURL,
		Model:   cfg.Generator.Model,
		Timeout: cfg.Generator.Timeout,
	})
	if err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init generator: %w", err)
	}

	// The synthesizer is optional: without an API key it reports disabled
	// and drafts simply stay image-less.
	synth := images.NewClient(images.Config{
		APIKey:       cfg.Images.APIKey,
		BaseURL:      cfg.Images.BaseURL,
		Model:        cfg.Images.Model,
		Size:         cfg.Images.Size,
		PollInterval: cfg.Images.PollInterval,
		Timeout:      cfg.Images.Timeout,
	})

	enricher := service.NewEnricher(db.Store, synth, pools)

	server := handlers.NewServer(handlers.ServerDeps{
		Store:          db.Store,
		GenerateUC:     usecase.NewGenerateStoryUseCase(db.Store, gen, enricher),
		RegenerateUC:   usecase.NewRegenerateStoryUseCase(db.Store, gen, enricher),
		GetStoryUC:     usecase.NewGetStoryUseCase(db.Store),
		StartSessionUC: usecase.NewStartSessionUseCase(db.Store),
		TelemetryUC:    usecase.NewReportTelemetryUseCase(db.Store),
		FeedbackUC:     usecase.NewSubmitFeedbackUseCase(db.Store),
	})

	// River maintenance jobs run only on postgres deployments.
	if db.Pool != nil {
		if err := db.MigrateRiver(ctx); err != nil {
			pools.Shutdown()
			db.Close()
			return nil, fmt.Errorf("migrate river: %w", err)
		}

		workers := river.NewWorkers()
		river.AddWorker(workers, jobs.NewTelemetryCleanupWorker(db.Store, cfg.Telemetry.RetentionPeriod))

		if err := db.InitRiverClient(workers, cfg.River); err != nil {
			pools.Shutdown()
			db.Close()
			return nil, fmt.Errorf("init river workers: %w", err)
		}

		// Telemetry retention cleanup: run daily and once on startup.
		db.RiverClient.PeriodicJobs().Add(
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.Telemetry.CleanupInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return jobs.TelemetryCleanupArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		)
	}

	return &Application{
		Config: cfg,
		Router: newRouter(server),
		DB:     db,
		Pools:  pools,
	}, nil
}
