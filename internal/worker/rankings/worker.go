// Package rankings implements the ranking worker: it recomputes battle
// attendance and weapon ladder snapshots from the Albion stat APIs.
package rankings

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/albion"
	"github.com/albiongw/goodwill/internal/database"
	"github.com/albiongw/goodwill/internal/database/models"
	"github.com/albiongw/goodwill/internal/setup"
	"github.com/albiongw/goodwill/internal/setup/config"
	"github.com/albiongw/goodwill/internal/worker/core"
)

// minWeaponUsages filters ladder lines with too few fights to mean anything.
const minWeaponUsages = 10

// Worker recomputes ranking snapshots once an hour.
type Worker struct {
	db       *database.Client
	gameinfo *albion.GameinfoClient
	ledger   *albion.MurderLedgerClient
	battles  *albion.AlbionBBClient
	config   config.Rankings
	reporter *core.StatusReporter
	logger   *zap.Logger
}

// New creates a rankings worker.
func New(app *setup.App, logger *zap.Logger) *Worker {
	return &Worker{
		db:       app.DB,
		gameinfo: app.Gameinfo,
		ledger:   app.MurderLedger,
		battles:  app.AlbionBB,
		config:   app.Config.Worker.Rankings,
		reporter: core.NewStatusReporter(app.StatsClient, "rankings", logger),
		logger:   logger,
	}
}

// Start begins the rankings worker's main loop.
func (w *Worker) Start() {
	w.logger.Info("Rankings worker started", zap.String("workerID", w.reporter.GetWorkerID()))

	ctx := context.Background()
	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	for {
		w.reporter.SetHealthy(true)

		w.reporter.UpdateStatus("Waiting for next hour", 0)
		nextHour := time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
		time.Sleep(time.Until(nextHour))

		guilds, err := w.db.Settings().GetGuildsWithAlbionID(ctx)
		if err != nil {
			w.logger.Error("Failed to list guilds with Albion id", zap.Error(err))
			w.reporter.SetHealthy(false)
			continue
		}

		for i, guild := range guilds {
			progress := 10 + 90*i/max(len(guilds), 1)
			w.reporter.UpdateStatus("Recomputing rankings", progress)

			if err := w.recomputeGuild(ctx, guild); err != nil {
				w.logger.Error("Failed to recompute guild rankings",
					zap.Error(err),
					zap.Uint64("guildID", guild.GuildID),
					zap.String("albionGuildID", guild.AlbionGuildID))
				w.reporter.SetHealthy(false)
			}
		}

		w.reporter.UpdateStatus("Rankings updated", 100)
	}
}

// recomputeGuild replaces one guild's attendance and MMR snapshots.
func (w *Worker) recomputeGuild(ctx context.Context, guild models.GuildSetting) error {
	runID := uuid.New()

	if err := w.recomputeAttendance(ctx, guild, runID); err != nil {
		return err
	}
	return w.recomputeMMR(ctx, guild, runID)
}

func (w *Worker) recomputeAttendance(ctx context.Context, guild models.GuildSetting, runID uuid.UUID) error {
	since := time.Now().UTC().AddDate(0, 0, -w.config.LookbackDays)

	minPlayers := guild.MinBattlePlayers
	if minPlayers <= 0 {
		minPlayers = w.config.MinBattlePlayers
	}

	battles, err := w.battles.GuildBattles(ctx, guild.AlbionGuildID, minPlayers, since)
	if err != nil {
		return err
	}

	counts, lastSeen, err := w.battles.Attendance(ctx, guild.AlbionGuildID, battles, w.config.FetchConcurrency)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rows := make([]models.AttendanceRanking, 0, len(counts))
	for name, battleCount := range counts {
		rows = append(rows, models.AttendanceRanking{
			GuildID:    guild.GuildID,
			AlbionName: name,
			RunID:      runID,
			Battles:    battleCount,
			LastBattle: lastSeen[name],
			ComputedAt: now,
		})
	}

	if err := w.db.Rankings().ReplaceAttendance(ctx, guild.GuildID, rows); err != nil {
		return err
	}

	w.logger.Info("Attendance snapshot replaced",
		zap.Uint64("guildID", guild.GuildID),
		zap.Int("battles", len(battles)),
		zap.Int("players", len(rows)))
	return nil
}

func (w *Worker) recomputeMMR(ctx context.Context, guild models.GuildSetting, runID uuid.UUID) error {
	members, err := w.gameinfo.GuildMembers(ctx, guild.AlbionGuildID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	var mu sync.Mutex
	var rows []models.MMRRanking

	p := pool.New().WithContext(ctx).WithMaxGoroutines(max(w.config.FetchConcurrency, 1))
	for _, member := range members {
		p.Go(func(ctx context.Context) error {
			stats, err := w.ledger.PlayerWeaponStats(ctx, member.Name)
			if err != nil {
				// A single missing ledger should not sink the whole run.
				w.logger.Warn("Skipping player ledger",
					zap.String("player", member.Name),
					zap.Error(err))
				return nil
			}

			best := albion.BestWeaponByRole(stats, minWeaponUsages)

			mu.Lock()
			defer mu.Unlock()
			for role, stat := range best {
				rows = append(rows, models.MMRRanking{
					GuildID:    guild.GuildID,
					AlbionName: member.Name,
					Weapon:     stat.Weapon,
					RunID:      runID,
					Role:       string(role),
					Elo:        stat.Elo,
					Kills:      stat.Kills,
					ComputedAt: now,
				})
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return err
	}

	if err := w.db.Rankings().ReplaceMMR(ctx, guild.GuildID, rows); err != nil {
		return err
	}

	w.logger.Info("MMR snapshot replaced",
		zap.Uint64("guildID", guild.GuildID),
		zap.Int("members", len(members)),
		zap.Int("rows", len(rows)))
	return nil
}
