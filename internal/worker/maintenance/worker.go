// Package maintenance implements the retention worker: it trims the activity
// aggregate tables to their configured lookback windows.
package maintenance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/database"
	"github.com/albiongw/goodwill/internal/database/models"
	"github.com/albiongw/goodwill/internal/setup"
	"github.com/albiongw/goodwill/internal/setup/config"
	"github.com/albiongw/goodwill/internal/worker/core"
)

// Worker purges expired aggregate rows once an hour.
type Worker struct {
	db        *database.Client
	retention config.Retention
	reporter  *core.StatusReporter
	logger    *zap.Logger
}

// New creates a maintenance worker.
func New(app *setup.App, logger *zap.Logger) *Worker {
	return &Worker{
		db:        app.DB,
		retention: app.Config.Worker.Retention,
		reporter:  core.NewStatusReporter(app.StatsClient, "maintenance", logger),
		logger:    logger,
	}
}

// Start begins the maintenance worker's main loop.
func (w *Worker) Start() {
	w.logger.Info("Maintenance worker started", zap.String("workerID", w.reporter.GetWorkerID()))

	ctx := context.Background()
	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	for {
		w.reporter.SetHealthy(true)

		w.reporter.UpdateStatus("Waiting for next hour", 0)
		nextHour := time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
		time.Sleep(time.Until(nextHour))

		w.reporter.UpdateStatus("Purging expired aggregates", 50)
		w.purge(ctx)

		w.reporter.UpdateStatus("Purge complete", 100)
	}
}

func (w *Worker) purge(ctx context.Context) {
	now := time.Now().UTC()

	targets := []struct {
		granularity models.Granularity
		cutoff      time.Time
	}{
		{models.GranularityDaily, now.AddDate(0, 0, -w.retention.DailyDays)},
		{models.GranularityWeekly, now.AddDate(0, 0, -w.retention.WeeklyDays)},
		{models.GranularityMonthly, now.AddDate(0, 0, -w.retention.MonthlyDays)},
	}

	for _, target := range targets {
		deleted, err := w.db.Activity().Purge(ctx, target.granularity, target.cutoff)
		if err != nil {
			w.logger.Error("Failed to purge aggregates",
				zap.Error(err),
				zap.Stringer("granularity", target.granularity))
			w.reporter.SetHealthy(false)
			continue
		}

		if deleted > 0 {
			w.logger.Info("Purged expired aggregates",
				zap.Stringer("granularity", target.granularity),
				zap.Int64("rows", deleted),
				zap.Time("cutoff", target.cutoff))
		}
	}
}
