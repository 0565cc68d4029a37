package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/setup"
	"github.com/albiongw/goodwill/internal/setup/logging"
	"github.com/albiongw/goodwill/internal/worker/maintenance"
	"github.com/albiongw/goodwill/internal/worker/rankings"
)

const (
	// WorkerLogDir specifies where worker log files are stored.
	WorkerLogDir = "logs/worker_logs"

	// MaintenanceWorker trims aggregate tables to their retention windows.
	MaintenanceWorker = "maintenance"

	// RankingsWorker recomputes attendance and MMR snapshots.
	RankingsWorker = "rankings"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start a goodwill worker",
		Commands: []*cli.Command{
			{
				Name:  MaintenanceWorker,
				Usage: "Start the retention maintenance worker",
				Action: func(ctx context.Context, _ *cli.Command) error {
					runWorkerType(ctx, MaintenanceWorker)
					return nil
				},
			},
			{
				Name:  RankingsWorker,
				Usage: "Start the rankings worker",
				Action: func(ctx context.Context, _ *cli.Command) error {
					runWorkerType(ctx, RankingsWorker)
					return nil
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// runWorkerType initializes the application and runs one worker type.
func runWorkerType(ctx context.Context, workerType string) {
	app, err := setup.InitializeApp(WorkerLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup()

	workerLogger := logging.GetWorkerLogger(
		fmt.Sprintf("%s_worker", workerType),
		WorkerLogDir,
		app.Config.Common.Debug.LogLevel,
	)

	var w interface{ Start() }
	switch workerType {
	case MaintenanceWorker:
		w = maintenance.New(app, workerLogger)
	case RankingsWorker:
		w = rankings.New(app, workerLogger)
	default:
		log.Fatalf("Invalid worker type: %s", workerType)
	}

	log.Printf("Started %s worker", workerType)
	runWorker(ctx, w, workerLogger)
}

// runWorker runs a single worker in a loop with error recovery.
func runWorker(ctx context.Context, w interface{ Start() }, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled, stopping worker")
			return
		default:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("Worker execution failed",
							zap.String("worker_type", fmt.Sprintf("%T", w)),
							zap.Any("panic", r),
						)
						logger.Info("Restarting worker in 5 seconds...")
						time.Sleep(5 * time.Second)
					}
				}()

				logger.Info("Starting worker")
				w.Start()
			}()

			logger.Warn("Worker stopped unexpectedly",
				zap.String("worker_type", fmt.Sprintf("%T", w)),
			)
			time.Sleep(5 * time.Second)
		}
	}
}
